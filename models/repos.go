package models

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"edisonvision/attendance"
	"edisonvision/facerec"
)

// StudentRepo adapts the students table to the gallery's view of
// enrollment: identity plus raw face encoding.
type StudentRepo struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) *StudentRepo {
	return &StudentRepo{db: db}
}

func (r *StudentRepo) ListEnrolled() ([]facerec.EnrolledStudent, error) {
	var students []Student
	err := r.db.
		Where("face_encoding IS NOT NULL AND LENGTH(face_encoding) > 0").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	out := make([]facerec.EnrolledStudent, 0, len(students))
	for _, s := range students {
		out = append(out, facerec.EnrolledStudent{
			StudentId:   s.StudentId,
			RawEncoding: s.FaceEncoding,
			ImagePath:   s.FaceImagePath,
		})
	}
	return out, nil
}

// SaveEncoding writes a new canonical face encoding for a student.
func (r *StudentRepo) SaveEncoding(studentId string, encoding []byte, imagePath string) error {
	res := r.db.Model(&Student{}).
		Where("student_id = ?", studentId).
		Updates(map[string]interface{}{
			"face_encoding":   encoding,
			"face_image_path": imagePath,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ScheduleRepo adapts the class_schedules table to the window builder.
type ScheduleRepo struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) GetSlot(classId string, day time.Weekday) (*attendance.ScheduleSlot, error) {
	var row ClassSchedule
	err := r.db.
		Where("class_id = ? AND weekday = ?", classId, day.String()[:3]).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &attendance.ScheduleSlot{
		ClassId:   row.ClassId,
		Weekday:   day,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
	}, nil
}

// AttendanceStore adapts the attendance_records table to the recorder.
type AttendanceStore struct {
	db *gorm.DB
}

func NewAttendanceStore(db *gorm.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func (s *AttendanceStore) HasRecord(studentId, classId string, day time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&AttendanceRecord{}).
		Where("student_id = ? AND class_id = ? AND attendance_date = ?",
			studentId, classId, day.Format("2006-01-02")).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *AttendanceStore) Insert(rec attendance.Record) error {
	row := AttendanceRecord{
		StudentId:      rec.StudentId,
		ClassId:        rec.ClassId,
		AttendanceDate: rec.CheckInTime.Format("2006-01-02"),
		Status:         string(rec.Status),
		CheckInTime:    rec.CheckInTime,
		LateMinutes:    rec.LateMinutes,
		Confidence:     rec.Confidence,
		Notes:          rec.Notes,
	}
	return s.db.Create(&row).Error
}

// ListForClassDate returns the ledger rows for one class and calendar
// day, newest first. Used by the attendance listing endpoint.
func (s *AttendanceStore) ListForClassDate(classId, date string) ([]AttendanceRecord, error) {
	var rows []AttendanceRecord
	err := s.db.
		Where("class_id = ? AND attendance_date = ?", classId, date).
		Order("check_in_time DESC").
		Find(&rows).Error
	return rows, err
}
