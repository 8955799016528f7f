package models

// ClassSchedule is one weekly timetable slot for a class. Weekday is the
// three-letter day name ("Mon".."Sun"); times are "15:04" wall-clock
// strings, same shape the class editor writes.
type ClassSchedule struct {
	Id        int64  `gorm:"primaryKey" json:"id"`
	ClassId   string `gorm:"index:idx_schedule_day;size:64" json:"class_id"`
	Weekday   string `gorm:"index:idx_schedule_day;size:3" json:"weekday"`
	StartTime string `gorm:"size:8" json:"start_time"`
	EndTime   string `gorm:"size:8" json:"end_time"`
}

func (ClassSchedule) TableName() string {
	return "class_schedules"
}
