package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexushq/nexus-server/internal/auth"
	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/storage"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/authz"
	"github.com/nexushq/nexus-server/pkg/jwtutil"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/pkg/slug"
	"github.com/nexushq/nexus-server/prometheus"
)

const bcryptCost = 12

// AuthHandler serves signup, signin, signout and the identity probe.
type AuthHandler struct {
	store      store.Store
	backend    storage.Backend
	cookieName string
	sessionTTL time.Duration
}

// NewAuthHandler builds the auth endpoints.
func NewAuthHandler(st store.Store, backend storage.Backend, cookieName string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		store:      st,
		backend:    backend,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
}

// Signup creates a company, its default roles and the first
// administrator account in one transaction.
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req struct {
		CompanyName string `json:"companyName"`
		Email       string `json:"email"`
		Name        string `json:"name"`
		Password    string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.CompanyName == "" || req.Email == "" || req.Name == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}
	if len(req.Password) < MinPasswordLength {
		prometheus.RecordAuthError("weak_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		prometheus.RecordAuthError("invalid_email")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}

	ctx := c.Request().Context()

	// Signin without a company slug resolves accounts by email alone,
	// so the first account's email must be unique across companies.
	defer prometheus.TrackDBOperation("query")(time.Now())
	if _, err := h.store.GetUserByEmail(ctx, email); err == nil {
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with this email already exists"})
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("Failed to check existing email", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	base := slug.Make(req.CompanyName)
	if base == "" {
		prometheus.RecordAuthError("invalid_company_name")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company name must contain letters or digits"})
	}

	var slugErr error
	companySlug := slug.Unique(base, func(candidate string) bool {
		exists, err := h.store.CompanySlugExists(ctx, candidate)
		if err != nil {
			slugErr = err
		}
		return exists
	})
	if slugErr != nil {
		log.Error("Failed to check slug uniqueness", zap.Error(slugErr))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	var (
		company model.Company
		user    model.User
	)

	// Company, roles and the first administrator are all-or-nothing; a
	// failure midway must leave no orphaned tenant.
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = h.store.Atomically(ctx, func(tx store.Store) error {
		company = model.Company{
			Name:     req.CompanyName,
			Slug:     companySlug,
			Email:    email,
			Settings: model.DefaultSettings(),
		}
		if err := tx.CreateCompany(ctx, &company); err != nil {
			return err
		}

		adminRole := model.Role{
			CompanyID:   company.ID,
			Name:        authz.RoleAdmin,
			Description: authz.AdminRoleDescription,
			Permissions: authz.AdminPermissions(),
		}
		if err := tx.CreateRole(ctx, &adminRole); err != nil {
			return err
		}

		employeeRole := model.Role{
			CompanyID:   company.ID,
			Name:        authz.RoleEmployee,
			Description: authz.EmployeeRoleDescription,
			Permissions: authz.EmployeePermissions(),
			IsDefault:   true,
		}
		if err := tx.CreateRole(ctx, &employeeRole); err != nil {
			return err
		}

		user = model.User{
			CompanyID:    company.ID,
			RoleID:       adminRole.ID,
			Email:        email,
			Name:         req.Name,
			PasswordHash: string(passwordHash),
			Position:     "Administrator",
			Department:   "Management",
			IsActive:     true,
		}
		return tx.CreateUser(ctx, &user)
	})
	if err != nil {
		log.Error("Signup transaction failed", zap.Error(err))
		prometheus.RecordAuthError("signup_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	// Storage bootstrap happens after the account is committed; a
	// failure here is logged, not surfaced.
	if err := h.backend.InitCompany(ctx, company.ID); err != nil {
		log.Warn("Failed to initialize company storage",
			zap.Uint("company_id", company.ID), zap.Error(err))
	}

	log.Info("Company signed up",
		zap.String("company", company.Name),
		zap.String("slug", company.Slug),
		zap.Uint("company_id", company.ID),
		zap.Uint("user_id", user.ID))
	prometheus.CompaniesGauge.Inc()

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully",
		"company": echo.Map{
			"id":   company.ID,
			"name": company.Name,
			"slug": company.Slug,
		},
		"user": echo.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// Signin verifies credentials and issues a session cookie plus an API
// token. Every failure mode returns the same generic message so the
// endpoint cannot be used to enumerate accounts or companies.
func (h *AuthHandler) Signin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SigninCounter.Inc()

	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		CompanySlug string `json:"companySlug,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signin request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_signin")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	email := normalizeEmail(req.Email)

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	var (
		user *model.User
		err  error
	)
	if req.CompanySlug != "" {
		var company *model.Company
		company, err = h.store.GetCompanyBySlug(ctx, req.CompanySlug)
		if err == nil {
			user, err = h.store.GetCompanyUserByEmail(ctx, company.ID, email)
		}
	} else {
		user, err = h.store.GetUserByEmail(ctx, email)
	}

	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("Failed to look up user", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign in"})
		}
		log.Info("Signin for unknown account", zap.String("email", email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.IsActive {
		log.Warn("Signin for inactive account", zap.Uint("user_id", user.ID))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info("Signin with wrong password", zap.Uint("user_id", user.ID))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		log.Error("Failed to generate session token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign in"})
	}

	session := model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.sessionTTL),
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateSession(ctx, &session); err != nil {
		log.Error("Failed to create session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign in"})
	}

	if err := h.store.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		log.Warn("Failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	apiToken, err := jwtutil.GenerateToken(user.ID, user.Email, user.CompanyID,
		user.Company.Slug, user.Role.Name, user.Role.Permissions)
	if err != nil {
		log.Error("Failed to generate API token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign in"})
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	prometheus.IncreaseActiveSessions()
	log.Info("User signed in",
		zap.Uint("user_id", user.ID),
		zap.Uint("company_id", user.CompanyID),
		zap.String("role", user.Role.Name))

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"position":   user.Position,
			"department": user.Department,
			"role":       user.Role.Name,
		},
		"company": echo.Map{
			"id":   user.Company.ID,
			"name": user.Company.Name,
			"slug": user.Company.Slug,
		},
		"token": apiToken,
	})
}

// Signout deletes the presented session and clears the cookie. It is
// idempotent: signing out an unknown token succeeds.
func (h *AuthHandler) Signout(c echo.Context) error {
	log := logger.FromContext(c)

	if cookie, err := c.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		defer prometheus.TrackDBOperation("delete")(time.Now())
		if err := h.store.DeleteSessionByToken(c.Request().Context(), cookie.Value); err != nil {
			// The cookie is cleared regardless.
			log.Warn("Failed to delete session", zap.Error(err))
		} else {
			prometheus.DecreaseActiveSessions()
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Signed out successfully"})
}

// Me returns the authenticated user and company.
func (h *AuthHandler) Me(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	user, err := h.loadUser(c.Request().Context(), principal.UserID)
	if err != nil {
		log.Error("Failed to load current user", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"position":   user.Position,
			"department": user.Department,
			"role":       user.Role.Name,
		},
		"company": echo.Map{
			"id":   user.Company.ID,
			"name": user.Company.Name,
			"slug": user.Company.Slug,
		},
	})
}

func (h *AuthHandler) loadUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrPrincipalInactive
	}
	return user, nil
}
