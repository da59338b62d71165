// Package storetest provides an in-memory store.Store for handler and
// resolver tests, with per-operation fault injection.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store"
)

// Store is an in-memory implementation of store.Store. The Fail*
// fields, when non-nil, make the corresponding operation return that
// error; combined with Atomically this exercises transaction rollback.
type Store struct {
	mu sync.Mutex

	Companies  []model.Company
	Roles      []model.Role
	Users      []model.User
	Sessions   []model.Session
	Files      []model.File
	Tasks      []model.Task
	Categories []model.Category

	FailCreateCompany error
	FailCreateRole    error
	FailCreateUser    error
	FailCreateFile    error
	FailCreateSession error

	nextID uint
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

type snapshot struct {
	companies  []model.Company
	roles      []model.Role
	users      []model.User
	sessions   []model.Session
	files      []model.File
	tasks      []model.Task
	categories []model.Category
	nextID     uint
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		companies:  append([]model.Company(nil), s.Companies...),
		roles:      append([]model.Role(nil), s.Roles...),
		users:      append([]model.User(nil), s.Users...),
		sessions:   append([]model.Session(nil), s.Sessions...),
		files:      append([]model.File(nil), s.Files...),
		tasks:      append([]model.Task(nil), s.Tasks...),
		categories: append([]model.Category(nil), s.Categories...),
		nextID:     s.nextID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.Companies = snap.companies
	s.Roles = snap.roles
	s.Users = snap.users
	s.Sessions = snap.sessions
	s.Files = snap.files
	s.Tasks = snap.tasks
	s.Categories = snap.categories
	s.nextID = snap.nextID
}

// Atomically runs fn and rolls every write back if it fails.
func (s *Store) Atomically(ctx context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

// Companies

func (s *Store) CreateCompany(ctx context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateCompany != nil {
		return s.FailCreateCompany
	}
	company.ID = s.id()
	company.CreatedAt = time.Now()
	s.Companies = append(s.Companies, *company)
	return nil
}

func (s *Store) GetCompanyByID(ctx context.Context, id uint) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Companies {
		if s.Companies[i].ID == id {
			c := s.Companies[i]
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Companies {
		if s.Companies[i].Slug == slug {
			c := s.Companies[i]
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CompanySlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetCompanyBySlug(ctx, slug)
	if err == store.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// Roles

func (s *Store) CreateRole(ctx context.Context, role *model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateRole != nil {
		return s.FailCreateRole
	}
	role.ID = s.id()
	s.Roles = append(s.Roles, *role)
	return nil
}

func (s *Store) GetRole(ctx context.Context, companyID, id uint) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Roles {
		if s.Roles[i].ID == id && s.Roles[i].CompanyID == companyID {
			r := s.Roles[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetDefaultRole(ctx context.Context, companyID uint) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Roles {
		if s.Roles[i].CompanyID == companyID && s.Roles[i].IsDefault {
			r := s.Roles[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListRoles(ctx context.Context, companyID uint) ([]model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roles []model.Role
	for _, r := range s.Roles {
		if r.CompanyID == companyID {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// Users

func (s *Store) roleByID(id uint) (model.Role, bool) {
	for _, r := range s.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return model.Role{}, false
}

func (s *Store) companyByID(id uint) (model.Company, bool) {
	for _, c := range s.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return model.Company{}, false
}

func (s *Store) hydrate(u model.User) *model.User {
	if role, ok := s.roleByID(u.RoleID); ok {
		u.Role = role
	}
	if company, ok := s.companyByID(u.CompanyID); ok {
		u.Company = company
	}
	return &u
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateUser != nil {
		return s.FailCreateUser
	}
	user.ID = s.id()
	user.CreatedAt = time.Now()
	s.Users = append(s.Users, *user)
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].ID == id {
			return s.hydrate(s.Users[i]), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if strings.EqualFold(s.Users[i].Email, email) {
			return s.hydrate(s.Users[i]), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCompanyUser(ctx context.Context, companyID, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].ID == id && s.Users[i].CompanyID == companyID {
			return s.hydrate(s.Users[i]), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCompanyUserByEmail(ctx context.Context, companyID uint, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].CompanyID == companyID && strings.EqualFold(s.Users[i].Email, email) {
			return s.hydrate(s.Users[i]), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	for i := range s.Users {
		if s.Users[i].CompanyID == companyID {
			users = append(users, *s.hydrate(s.Users[i]))
		}
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, companyID, id uint, update store.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		u := &s.Users[i]
		if u.ID != id || u.CompanyID != companyID {
			continue
		}
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.Position != nil {
			u.Position = *update.Position
		}
		if update.Department != nil {
			u.Department = *update.Department
		}
		if update.RoleID != nil {
			u.RoleID = *update.RoleID
		}
		if update.IsActive != nil {
			u.IsActive = *update.IsActive
		}
		if update.PasswordHash != nil {
			u.PasswordHash = *update.PasswordHash
		}
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) DeleteUser(ctx context.Context, companyID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].ID == id && s.Users[i].CompanyID == companyID {
			s.Users = append(s.Users[:i], s.Users[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].ID == userID {
			s.Users[i].LastLoginAt = &at
			return nil
		}
	}
	return store.ErrNotFound
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateSession != nil {
		return s.FailCreateSession
	}
	session.ID = s.id()
	session.CreatedAt = time.Now()
	s.Sessions = append(s.Sessions, *session)
	return nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Sessions {
		if s.Sessions[i].Token == token {
			sess := s.Sessions[i]
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteSession(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			s.Sessions = append(s.Sessions[:i], s.Sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Sessions {
		if s.Sessions[i].Token == token {
			s.Sessions = append(s.Sessions[:i], s.Sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

// Files

func (s *Store) CreateFile(ctx context.Context, file *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateFile != nil {
		return s.FailCreateFile
	}
	file.ID = s.id()
	file.CreatedAt = time.Now()
	s.Files = append(s.Files, *file)
	return nil
}

func (s *Store) GetFile(ctx context.Context, companyID, id uint) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Files {
		if s.Files[i].ID == id && s.Files[i].CompanyID == companyID {
			f := s.Files[i]
			return &f, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListFiles(ctx context.Context, companyID uint, category string) ([]model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var files []model.File
	for _, f := range s.Files {
		if f.CompanyID != companyID {
			continue
		}
		if category != "" && f.Category != category {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, companyID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Files {
		if s.Files[i].ID == id && s.Files[i].CompanyID == companyID {
			s.Files = append(s.Files[:i], s.Files[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = s.id()
	task.CreatedAt = time.Now()
	s.Tasks = append(s.Tasks, *task)
	return nil
}

func (s *Store) GetTask(ctx context.Context, companyID, id uint) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Tasks {
		if s.Tasks[i].ID == id && s.Tasks[i].CompanyID == companyID {
			t := s.Tasks[i]
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListTasks(ctx context.Context, companyID uint) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []model.Task
	for _, t := range s.Tasks {
		if t.CompanyID == companyID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, companyID, id uint, update store.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.ID != id || t.CompanyID != companyID {
			continue
		}
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Description != nil {
			t.Description = *update.Description
		}
		if update.Status != nil {
			t.Status = *update.Status
		}
		if update.Priority != nil {
			t.Priority = *update.Priority
		}
		if update.CategoryID != nil {
			t.CategoryID = update.CategoryID
		}
		if update.AssignedToID != nil {
			t.AssignedToID = update.AssignedToID
		}
		if update.DueDate != nil {
			t.DueDate = update.DueDate
		}
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) DeleteTask(ctx context.Context, companyID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Tasks {
		if s.Tasks[i].ID == id && s.Tasks[i].CompanyID == companyID {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = s.id()
	s.Categories = append(s.Categories, *category)
	return nil
}

func (s *Store) GetCategory(ctx context.Context, companyID, id uint) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == id && s.Categories[i].CompanyID == companyID {
			c := s.Categories[i]
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListCategories(ctx context.Context, companyID uint) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var categories []model.Category
	for _, c := range s.Categories {
		if c.CompanyID == companyID {
			categories = append(categories, c)
		}
	}
	return categories, nil
}
