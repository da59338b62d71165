package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store/storetest"
)

func seedCategory(t *testing.T, st *storetest.Store, companyID uint, name string) model.Category {
	t.Helper()
	category := model.Category{CompanyID: companyID, Name: name}
	if err := st.CreateCategory(context.Background(), &category); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func TestTaskCreateDefaults(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewTaskHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/tasks",
		`{"title":"Ship the release"}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if len(st.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(st.Tasks))
	}
	task := st.Tasks[0]
	if task.Status != model.TaskStatusPending {
		t.Errorf("status = %q, want %q", task.Status, model.TaskStatusPending)
	}
	if task.Priority != model.TaskPriorityMedium {
		t.Errorf("priority = %q, want %q", task.Priority, model.TaskPriorityMedium)
	}
	if task.CreatedByID != tn.Admin.ID {
		t.Errorf("created_by = %d, want %d", task.CreatedByID, tn.Admin.ID)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	rival := seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	rivalCategory := seedCategory(t, st, rival.Company.ID, "Secret")
	h := NewTaskHandler(st)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"no title"}`},
		{"bad status", `{"title":"x","status":"paused"}`},
		{"bad priority", `{"title":"x","priority":"critical"}`},
		{"foreign category", `{"title":"x","category_id":` + strconv.Itoa(int(rivalCategory.ID)) + `}`},
		{"foreign assignee", `{"title":"x","assigned_to_id":` + strconv.Itoa(int(rival.Admin.ID)) + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := jsonContext(echo.New(), http.MethodPost, "/api/tasks", tt.body)
			actAs(c, tn.principal())
			if err := h.Create(c); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if len(st.Tasks) != 0 {
		t.Errorf("tasks = %d, want 0", len(st.Tasks))
	}
}

func TestTaskUpdatePartial(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	task := model.Task{
		CompanyID:   tn.Company.ID,
		CreatedByID: tn.Admin.ID,
		Title:       "Ship the release",
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityMedium,
	}
	if err := st.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	h := NewTaskHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPatch, "/api/tasks/:id",
		`{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(task.ID)))
	actAs(c, tn.principal())
	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, err := st.GetTask(context.Background(), tn.Company.ID, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if updated.Status != model.TaskStatusCompleted {
		t.Errorf("status = %q, want %q", updated.Status, model.TaskStatusCompleted)
	}
	if updated.Title != "Ship the release" || updated.Priority != model.TaskPriorityMedium {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
}

func TestTaskGetCrossTenant(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	rival := seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	task := model.Task{
		CompanyID:   rival.Company.ID,
		CreatedByID: rival.Admin.ID,
		Title:       "Rival task",
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityMedium,
	}
	if err := st.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	h := NewTaskHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/tasks/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(task.ID)))
	actAs(c, tn.principal())
	if err := h.Get(c); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTaskDelete(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	task := model.Task{
		CompanyID:   tn.Company.ID,
		CreatedByID: tn.Admin.ID,
		Title:       "Throwaway",
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityLow,
	}
	if err := st.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	h := NewTaskHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodDelete, "/api/tasks/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(task.ID)))
	actAs(c, tn.principal())
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(st.Tasks) != 0 {
		t.Errorf("tasks = %d, want 0", len(st.Tasks))
	}
}

func TestCategoryCreateAndScopedList(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	rival := seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	seedCategory(t, st, rival.Company.ID, "Rival only")
	h := NewCategoryHandler(st)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, "/api/categories",
		`{"name":"Invoices","color":"#ff8800"}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	lc, lrec := jsonContext(e, http.MethodGet, "/api/categories", "")
	actAs(lc, tn.principal())
	if err := h.List(lc); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	categories := decodeBody(t, lrec)["categories"].([]any)
	if len(categories) != 1 {
		t.Fatalf("categories = %d, want only the acting company's 1", len(categories))
	}
	first := categories[0].(map[string]any)
	if first["name"] != "Invoices" {
		t.Errorf("category name = %v", first["name"])
	}
}

func TestRoleList(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	h := NewRoleHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/roles", "")
	actAs(c, tn.principal())
	if err := h.List(c); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	roles := decodeBody(t, rec)["roles"].([]any)
	if len(roles) != 2 {
		t.Fatalf("roles = %d, want the acting company's 2", len(roles))
	}
}
