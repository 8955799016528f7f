package models

import (
	"time"
)

// AttendanceRecord is one row of the attendance ledger. The composite
// unique index on (student, class, date) is the storage-level backstop
// for the one-record-per-day invariant the recorder enforces.
type AttendanceRecord struct {
	Id             int64     `gorm:"primaryKey" json:"id"`
	StudentId      string    `gorm:"uniqueIndex:idx_attendance_once;size:64" json:"student_id"`
	ClassId        string    `gorm:"uniqueIndex:idx_attendance_once;size:64" json:"class_id"`
	AttendanceDate string    `gorm:"uniqueIndex:idx_attendance_once;size:10" json:"attendance_date"`
	Status         string    `gorm:"size:16" json:"status"`
	CheckInTime    time.Time `json:"check_in_time"`
	LateMinutes    int       `json:"late_minutes"`
	Confidence     *float64  `json:"confidence,omitempty"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
