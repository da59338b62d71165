package model

import (
	"time"

	"gorm.io/gorm"
)

// File is the metadata row for a stored blob. StoragePath is the
// server-generated handle into the blob backend; it is never derived
// from client input.
type File struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CompanyID    uint           `json:"company_id" gorm:"index;not null"`
	UploadedByID uint           `json:"uploaded_by_id" gorm:"index;not null"`
	FileName     string         `json:"file_name" gorm:"type:varchar(255);not null"`
	OriginalName string         `json:"original_name" gorm:"type:varchar(255);not null"`
	MimeType     string         `json:"mime_type" gorm:"type:varchar(100)"`
	Size         int64          `json:"size" gorm:"not null"`
	StoragePath  string         `json:"-" gorm:"type:varchar(512);not null"`
	Category     string         `json:"category,omitempty" gorm:"type:varchar(100);index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	UploadedBy User `json:"uploaded_by,omitempty" gorm:"foreignKey:UploadedByID"`
}
