package models

import (
	"time"
)

// Student is an enrolled student. FaceEncoding holds the stored embedding
// bytes (base64 text for legacy rows, raw little-endian float64 bytes for
// new ones); FaceImagePath points at the enrollment photo and doubles as
// the cache key for decoded embeddings.
type Student struct {
	Id            int64     `gorm:"primaryKey" json:"id"`
	StudentId     string    `gorm:"uniqueIndex;size:64" json:"student_id"`
	Name          string    `json:"name"`
	FaceEncoding  []byte    `gorm:"type:blob" json:"-"`
	FaceImagePath string    `json:"face_image_path"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Student) TableName() string {
	return "students"
}
