package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is a company-scoped permission set. Exactly one role per
// company is marked as the default role for new employees.
// Permissions is stored as a structured jsonb array, not a serialized
// string blob.
type Role struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"company_id" gorm:"index;not null;uniqueIndex:idx_company_role_name"`
	Name        string         `json:"name" gorm:"type:varchar(50);not null;uniqueIndex:idx_company_role_name"`
	Description string         `json:"description" gorm:"type:text"`
	Permissions []string       `json:"permissions" gorm:"serializer:json;type:jsonb"`
	IsDefault   bool           `json:"is_default" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
