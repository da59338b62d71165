package model

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses and priorities.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task is a unit of work assigned to an employee within a company.
type Task struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CompanyID    uint           `json:"company_id" gorm:"index;not null"`
	CategoryID   *uint          `json:"category_id,omitempty" gorm:"index"`
	CreatedByID  uint           `json:"created_by_id" gorm:"index;not null"`
	AssignedToID *uint          `json:"assigned_to_id,omitempty" gorm:"index"`
	Title        string         `json:"title" gorm:"type:varchar(200);not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Status       string         `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Priority     string         `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	AssignedTo *User     `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
}

// ValidTaskStatus reports whether s is a recognized task status.
func ValidTaskStatus(s string) bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusCompleted
}

// ValidTaskPriority reports whether p is a recognized task priority.
func ValidTaskPriority(p string) bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}
