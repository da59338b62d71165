package model

import (
	"time"

	"gorm.io/gorm"
)

// Category groups tasks within a company.
type Category struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"company_id" gorm:"index;not null;uniqueIndex:idx_company_category_name"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_company_category_name"`
	Description string         `json:"description" gorm:"type:text"`
	Color       string         `json:"color" gorm:"type:varchar(20)"`
	Icon        string         `json:"icon" gorm:"type:varchar(50)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
