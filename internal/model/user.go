package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents an employee account. Email is unique within a
// company, not globally, so the same address may exist under two
// different tenants.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CompanyID    uint           `json:"company_id" gorm:"index;not null;uniqueIndex:idx_company_email"`
	RoleID       uint           `json:"role_id" gorm:"index;not null"`
	Email        string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_company_email"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Position     string         `json:"position" gorm:"type:varchar(100)"`
	Department   string         `json:"department" gorm:"type:varchar(100)"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Company Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Role    Role    `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}
