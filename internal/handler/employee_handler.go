package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

// EmployeeHandler manages the company's employee accounts. Every query
// is scoped to the acting principal's company.
type EmployeeHandler struct {
	store store.Store
}

// NewEmployeeHandler builds the employee endpoints.
func NewEmployeeHandler(st store.Store) *EmployeeHandler {
	return &EmployeeHandler{store: st}
}

// employeeView strips the password hash and flattens the role.
func employeeView(u *model.User) echo.Map {
	return echo.Map{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"position":   u.Position,
		"department": u.Department,
		"is_active":  u.IsActive,
		"role": echo.Map{
			"id":          u.Role.ID,
			"name":        u.Role.Name,
			"permissions": u.Role.Permissions,
		},
		"last_login_at": u.LastLoginAt,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
}

// List returns the company's employees.
func (h *EmployeeHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEmployeeOperation("list")
	principal := middleware.GetPrincipal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.store.ListUsers(c.Request().Context(), principal.CompanyID)
	if err != nil {
		log.Error("Failed to list employees", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch employees"})
	}

	employees := make([]echo.Map, 0, len(users))
	for i := range users {
		employees = append(employees, employeeView(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"employees": employees})
}

// Create adds an employee to the company, defaulting to the company's
// default role.
func (h *EmployeeHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEmployeeOperation("create")
	principal := middleware.GetPrincipal(c)

	var req struct {
		Email      string `json:"email"`
		Name       string `json:"name"`
		Password   string `json:"password"`
		RoleID     *uint  `json:"role_id,omitempty"`
		Position   string `json:"position,omitempty"`
		Department string `json:"department,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse employee creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, name, and password are required"})
	}
	if len(req.Password) < MinPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	if _, err := h.store.GetCompanyUserByEmail(ctx, principal.CompanyID, email); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with this email already exists in your company"})
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("Failed to check existing email", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create employee"})
	}

	// Resolve the role: a client-supplied role must belong to this
	// company, otherwise fall back to the company default.
	var role *model.Role
	var err error
	if req.RoleID != nil {
		role, err = h.store.GetRole(ctx, principal.CompanyID, *req.RoleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
			}
			log.Error("Failed to load role", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create employee"})
		}
	} else {
		role, err = h.store.GetDefaultRole(ctx, principal.CompanyID)
		if err != nil {
			log.Error("No default role for company",
				zap.Uint("company_id", principal.CompanyID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no default role found"})
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create employee"})
	}

	position := req.Position
	if position == "" {
		position = "Employee"
	}
	department := req.Department
	if department == "" {
		department = "General"
	}

	user := model.User{
		CompanyID:    principal.CompanyID,
		RoleID:       role.ID,
		Email:        email,
		Name:         req.Name,
		PasswordHash: string(passwordHash),
		Position:     position,
		Department:   department,
		IsActive:     true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateUser(ctx, &user); err != nil {
		log.Error("Failed to create employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create employee"})
	}
	user.Role = *role

	log.Info("Employee created",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("user_id", user.ID),
		zap.String("role", role.Name))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Employee created successfully",
		"employee": employeeView(&user),
	})
}

// Get returns one employee. A cross-company id is indistinguishable
// from an absent one.
func (h *EmployeeHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.store.GetCompanyUser(c.Request().Context(), principal.CompanyID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		log.Error("Failed to fetch employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch employee"})
	}

	return c.JSON(http.StatusOK, echo.Map{"employee": employeeView(user)})
}

// Update applies a partial update to an employee.
func (h *EmployeeHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEmployeeOperation("update")
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	var req struct {
		Name       *string `json:"name,omitempty"`
		Email      *string `json:"email,omitempty"`
		Position   *string `json:"position,omitempty"`
		Department *string `json:"department,omitempty"`
		RoleID     *uint   `json:"role_id,omitempty"`
		IsActive   *bool   `json:"is_active,omitempty"`
		Password   *string `json:"password,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse employee update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()

	// Fetch by id, then re-verify the tenant match before mutating.
	defer prometheus.TrackDBOperation("query")(time.Now())
	existing, err := h.store.GetCompanyUser(ctx, principal.CompanyID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		log.Error("Failed to fetch employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
	}

	update := store.UserUpdate{
		Name:       req.Name,
		Position:   req.Position,
		Department: req.Department,
		IsActive:   req.IsActive,
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !validEmail(email) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
		}
		if email != existing.Email {
			other, err := h.store.GetCompanyUserByEmail(ctx, principal.CompanyID, email)
			if err == nil && other.ID != existing.ID {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already in use"})
			}
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				log.Error("Failed to check email uniqueness", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
			}
			update.Email = &email
		}
	}

	if req.RoleID != nil {
		if _, err := h.store.GetRole(ctx, principal.CompanyID, *req.RoleID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
			}
			log.Error("Failed to load role", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
		}
		update.RoleID = req.RoleID
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < MinPasswordLength {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.UpdateUser(ctx, principal.CompanyID, uint(id), update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		log.Error("Failed to update employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
	}

	updated, err := h.store.GetCompanyUser(ctx, principal.CompanyID, uint(id))
	if err != nil {
		log.Error("Failed to reload employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update employee"})
	}

	log.Info("Employee updated",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("user_id", updated.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Employee updated successfully",
		"employee": employeeView(updated),
	})
}

// Delete removes an employee. Deleting your own account is refused.
func (h *EmployeeHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEmployeeOperation("delete")
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	if uint(id) == principal.UserID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.store.DeleteUser(c.Request().Context(), principal.CompanyID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		log.Error("Failed to delete employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete employee"})
	}

	log.Info("Employee deleted",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("user_id", uint(id)))

	return c.JSON(http.StatusOK, echo.Map{"message": "Employee deleted successfully"})
}
