// Package store is the tenant-scoped data access layer. The Store is
// constructed explicitly and injected into handlers; there is no
// package-level database handle. Every query on business data takes the
// acting principal's company id and filters by it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nexushq/nexus-server/internal/model"
)

// ErrNotFound is returned when a row is absent or belongs to a
// different company. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

// UserUpdate is the set of fields a PATCH on an employee may change.
// Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	Position     *string
	Department   *string
	RoleID       *uint
	IsActive     *bool
	PasswordHash *string
}

// TaskUpdate is the set of fields a PATCH on a task may change.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	CategoryID   *uint
	AssignedToID *uint
	DueDate      *time.Time
}

// Store is the persistence contract used by handlers and the identity
// resolver. Implementations must map driver-level "no rows" results to
// ErrNotFound.
type Store interface {
	// Atomically runs fn inside a transaction. Any error from fn rolls
	// back every write made through the Store it receives.
	Atomically(ctx context.Context, fn func(Store) error) error

	// Companies
	CreateCompany(ctx context.Context, company *model.Company) error
	GetCompanyByID(ctx context.Context, id uint) (*model.Company, error)
	GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error)
	CompanySlugExists(ctx context.Context, slug string) (bool, error)

	// Roles
	CreateRole(ctx context.Context, role *model.Role) error
	GetRole(ctx context.Context, companyID, id uint) (*model.Role, error)
	GetDefaultRole(ctx context.Context, companyID uint) (*model.Role, error)
	ListRoles(ctx context.Context, companyID uint) ([]model.Role, error)

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetCompanyUser(ctx context.Context, companyID, id uint) (*model.User, error)
	GetCompanyUserByEmail(ctx context.Context, companyID uint, email string) (*model.User, error)
	ListUsers(ctx context.Context, companyID uint) ([]model.User, error)
	UpdateUser(ctx context.Context, companyID, id uint, update UserUpdate) error
	DeleteUser(ctx context.Context, companyID, id uint) error
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error

	// Sessions
	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, id uint) error
	DeleteSessionByToken(ctx context.Context, token string) error

	// Files
	CreateFile(ctx context.Context, file *model.File) error
	GetFile(ctx context.Context, companyID, id uint) (*model.File, error)
	ListFiles(ctx context.Context, companyID uint, category string) ([]model.File, error)
	DeleteFile(ctx context.Context, companyID, id uint) error

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, companyID, id uint) (*model.Task, error)
	ListTasks(ctx context.Context, companyID uint) ([]model.Task, error)
	UpdateTask(ctx context.Context, companyID, id uint, update TaskUpdate) error
	DeleteTask(ctx context.Context, companyID, id uint) error

	// Categories
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, companyID, id uint) (*model.Category, error)
	ListCategories(ctx context.Context, companyID uint) ([]model.Category, error)
}
