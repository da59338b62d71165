package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

// TaskHandler manages the company's tasks.
type TaskHandler struct {
	store store.Store
}

// NewTaskHandler builds the task endpoints.
func NewTaskHandler(st store.Store) *TaskHandler {
	return &TaskHandler{store: st}
}

// List returns the company's tasks.
func (h *TaskHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("list")
	principal := middleware.GetPrincipal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	tasks, err := h.store.ListTasks(c.Request().Context(), principal.CompanyID)
	if err != nil {
		log.Error("Failed to list tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tasks"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// Create adds a task. Category and assignee references must belong to
// the acting principal's company.
func (h *TaskHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("create")
	principal := middleware.GetPrincipal(c)

	var req struct {
		Title        string     `json:"title"`
		Description  string     `json:"description,omitempty"`
		Status       string     `json:"status,omitempty"`
		Priority     string     `json:"priority,omitempty"`
		CategoryID   *uint      `json:"category_id,omitempty"`
		AssignedToID *uint      `json:"assigned_to_id,omitempty"`
		DueDate      *time.Time `json:"due_date,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	status := req.Status
	if status == "" {
		status = model.TaskStatusPending
	}
	if !model.ValidTaskStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	priority := req.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !model.ValidTaskPriority(priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid priority"})
	}

	ctx := c.Request().Context()

	if req.CategoryID != nil {
		if _, err := h.store.GetCategory(ctx, principal.CompanyID, *req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
			}
			log.Error("Failed to load category", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
		}
	}
	if req.AssignedToID != nil {
		if _, err := h.store.GetCompanyUser(ctx, principal.CompanyID, *req.AssignedToID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignee"})
			}
			log.Error("Failed to load assignee", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
		}
	}

	task := model.Task{
		CompanyID:    principal.CompanyID,
		CategoryID:   req.CategoryID,
		CreatedByID:  principal.UserID,
		AssignedToID: req.AssignedToID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      req.DueDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateTask(ctx, &task); err != nil {
		log.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	log.Info("Task created",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("task_id", task.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Task created successfully",
		"task":    task,
	})
}

// Get returns one task, tenant-scoped.
func (h *TaskHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	task, err := h.store.GetTask(c.Request().Context(), principal.CompanyID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to fetch task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch task"})
	}

	return c.JSON(http.StatusOK, echo.Map{"task": task})
}

// Update applies a partial update to a task.
func (h *TaskHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("update")
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var req struct {
		Title        *string    `json:"title,omitempty"`
		Description  *string    `json:"description,omitempty"`
		Status       *string    `json:"status,omitempty"`
		Priority     *string    `json:"priority,omitempty"`
		CategoryID   *uint      `json:"category_id,omitempty"`
		AssignedToID *uint      `json:"assigned_to_id,omitempty"`
		DueDate      *time.Time `json:"due_date,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Status != nil && !model.ValidTaskStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.Priority != nil && !model.ValidTaskPriority(*req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid priority"})
	}

	ctx := c.Request().Context()

	// Re-verify the tenant match on the task and on any referenced rows
	// before mutating.
	defer prometheus.TrackDBOperation("query")(time.Now())
	if _, err := h.store.GetTask(ctx, principal.CompanyID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to fetch task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	if req.CategoryID != nil {
		if _, err := h.store.GetCategory(ctx, principal.CompanyID, *req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
			}
			log.Error("Failed to load category", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
		}
	}
	if req.AssignedToID != nil {
		if _, err := h.store.GetCompanyUser(ctx, principal.CompanyID, *req.AssignedToID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignee"})
			}
			log.Error("Failed to load assignee", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
		}
	}

	update := store.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		CategoryID:   req.CategoryID,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.UpdateTask(ctx, principal.CompanyID, uint(id), update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to update task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	task, err := h.store.GetTask(ctx, principal.CompanyID, uint(id))
	if err != nil {
		log.Error("Failed to reload task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// Delete removes a task, tenant-scoped.
func (h *TaskHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("delete")
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.store.DeleteTask(c.Request().Context(), principal.CompanyID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to delete task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete task"})
	}

	log.Info("Task deleted",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("task_id", uint(id)))

	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}
