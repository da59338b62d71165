package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nexushq/nexus-server/internal/model"
)

// gormStore implements Store on top of gorm/postgres.
type gormStore struct {
	db *gorm.DB
}

// New wraps a gorm handle in a Store.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Companies

func (s *gormStore) CreateCompany(ctx context.Context, company *model.Company) error {
	return s.db.WithContext(ctx).Create(company).Error
}

func (s *gormStore) GetCompanyByID(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &company, nil
}

func (s *gormStore) GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &company, nil
}

func (s *gormStore) CompanySlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Company{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Roles

func (s *gormStore) CreateRole(ctx context.Context, role *model.Role) error {
	return s.db.WithContext(ctx).Create(role).Error
}

func (s *gormStore) GetRole(ctx context.Context, companyID, id uint) (*model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&role).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &role, nil
}

func (s *gormStore) GetDefaultRole(ctx context.Context, companyID uint) (*model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Where("company_id = ? AND is_default = ?", companyID, true).First(&role).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &role, nil
}

func (s *gormStore) ListRoles(ctx context.Context, companyID uint) ([]model.Role, error) {
	var roles []model.Role
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name asc").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Users

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").Preload("Company").First(&user, id).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").Preload("Company").
		Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormStore) GetCompanyUser(ctx context.Context, companyID, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("id = ? AND company_id = ?", id, companyID).First(&user).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormStore) GetCompanyUserByEmail(ctx context.Context, companyID uint, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").Preload("Company").
		Where("company_id = ? AND email = ?", companyID, email).First(&user).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormStore) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("company_id = ?", companyID).Order("created_at desc").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormStore) UpdateUser(ctx context.Context, companyID, id uint, update UserUpdate) error {
	values := map[string]interface{}{}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.Email != nil {
		values["email"] = *update.Email
	}
	if update.Position != nil {
		values["position"] = *update.Position
	}
	if update.Department != nil {
		values["department"] = *update.Department
	}
	if update.RoleID != nil {
		values["role_id"] = *update.RoleID
	}
	if update.IsActive != nil {
		values["is_active"] = *update.IsActive
	}
	if update.PasswordHash != nil {
		values["password_hash"] = *update.PasswordHash
	}
	if len(values) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND company_id = ?", id, companyID).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteUser(ctx context.Context, companyID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).Update("last_login_at", at).Error
}

// Sessions

func (s *gormStore) CreateSession(ctx context.Context, session *model.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *gormStore) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &session, nil
}

func (s *gormStore) DeleteSession(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.Session{}, id).Error
}

func (s *gormStore) DeleteSessionByToken(ctx context.Context, token string) error {
	// Deleting an absent token is not an error; sign-out is idempotent.
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error
}

// Files

func (s *gormStore) CreateFile(ctx context.Context, file *model.File) error {
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *gormStore) GetFile(ctx context.Context, companyID, id uint) (*model.File, error) {
	var file model.File
	err := s.db.WithContext(ctx).Preload("UploadedBy").
		Where("id = ? AND company_id = ?", id, companyID).First(&file).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &file, nil
}

func (s *gormStore) ListFiles(ctx context.Context, companyID uint, category string) ([]model.File, error) {
	query := s.db.WithContext(ctx).Preload("UploadedBy").Where("company_id = ?", companyID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var files []model.File
	if err := query.Order("created_at desc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (s *gormStore) DeleteFile(ctx context.Context, companyID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.File{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Tasks

func (s *gormStore) CreateTask(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *gormStore) GetTask(ctx context.Context, companyID, id uint) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).Preload("Category").Preload("AssignedTo").
		Where("id = ? AND company_id = ?", id, companyID).First(&task).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &task, nil
}

func (s *gormStore) ListTasks(ctx context.Context, companyID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Preload("Category").Preload("AssignedTo").
		Where("company_id = ?", companyID).Order("created_at desc").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) UpdateTask(ctx context.Context, companyID, id uint, update TaskUpdate) error {
	values := map[string]interface{}{}
	if update.Title != nil {
		values["title"] = *update.Title
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.Priority != nil {
		values["priority"] = *update.Priority
	}
	if update.CategoryID != nil {
		values["category_id"] = *update.CategoryID
	}
	if update.AssignedToID != nil {
		values["assigned_to_id"] = *update.AssignedToID
	}
	if update.DueDate != nil {
		values["due_date"] = *update.DueDate
	}
	if len(values) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND company_id = ?", id, companyID).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteTask(ctx context.Context, companyID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories

func (s *gormStore) CreateCategory(ctx context.Context, category *model.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *gormStore) GetCategory(ctx context.Context, companyID, id uint) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&category).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &category, nil
}

func (s *gormStore) ListCategories(ctx context.Context, companyID uint) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name asc").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
