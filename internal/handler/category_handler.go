package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

// CategoryHandler manages task categories.
type CategoryHandler struct {
	store store.Store
}

// NewCategoryHandler builds the category endpoints.
func NewCategoryHandler(st store.Store) *CategoryHandler {
	return &CategoryHandler{store: st}
}

// List returns the company's categories.
func (h *CategoryHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	categories, err := h.store.ListCategories(c.Request().Context(), principal.CompanyID)
	if err != nil {
		log.Error("Failed to list categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch categories"})
	}

	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

// Create adds a category to the company.
func (h *CategoryHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Color       string `json:"color,omitempty"`
		Icon        string `json:"icon,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse category creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	category := model.Category{
		CompanyID:   principal.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateCategory(c.Request().Context(), &category); err != nil {
		log.Error("Failed to create category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create category"})
	}

	log.Info("Category created",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("category_id", category.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Category created successfully",
		"category": category,
	})
}
