package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

// RoleHandler lists the company's roles. Listing requires only
// authentication; role mutation is not exposed over HTTP.
type RoleHandler struct {
	store store.Store
}

// NewRoleHandler builds the role endpoints.
func NewRoleHandler(st store.Store) *RoleHandler {
	return &RoleHandler{store: st}
}

// List returns the company's roles ordered by name.
func (h *RoleHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	roles, err := h.store.ListRoles(c.Request().Context(), principal.CompanyID)
	if err != nil {
		log.Error("Failed to list roles", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch roles"})
	}

	return c.JSON(http.StatusOK, echo.Map{"roles": roles})
}
