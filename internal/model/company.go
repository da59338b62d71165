package model

import (
	"time"

	"gorm.io/gorm"
)

// Company is the tenant root. Every business row in the system carries
// a CompanyID referencing exactly one company.
type Company struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug      string         `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100)"`
	Plan      string         `json:"plan" gorm:"type:varchar(50);default:'free'"`
	Settings  Settings       `json:"settings" gorm:"serializer:json;type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Settings is the per-company settings document.
type Settings struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
}

// DefaultSettings returns the settings applied at signup.
func DefaultSettings() Settings {
	return Settings{Theme: "light", Notifications: true}
}
