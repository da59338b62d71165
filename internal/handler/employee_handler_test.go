package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store/storetest"
)

func TestEmployeeCreateUsesDefaultRole(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/employees",
		`{"email":"bea@acme.test","name":"Bea","password":"secret1"}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if len(st.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(st.Users))
	}
	created := st.Users[1]
	if created.RoleID != tn.EmployeeRole.ID {
		t.Errorf("role = %d, want default role %d", created.RoleID, tn.EmployeeRole.ID)
	}
	if created.Position != "Employee" || created.Department != "General" {
		t.Errorf("position/department = %q/%q, want Employee/General", created.Position, created.Department)
	}
	if !created.IsActive {
		t.Error("new employee should be active")
	}
}

func TestEmployeeCreateWithExplicitRole(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/employees",
		`{"email":"bea@acme.test","name":"Bea","password":"secret1","role_id":`+strconv.Itoa(int(tn.AdminRole.ID))+`}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if st.Users[1].RoleID != tn.AdminRole.ID {
		t.Errorf("role = %d, want %d", st.Users[1].RoleID, tn.AdminRole.ID)
	}
}

func TestEmployeeCreateRejectsForeignRole(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	other := seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/employees",
		`{"email":"bea@acme.test","name":"Bea","password":"secret1","role_id":`+strconv.Itoa(int(other.AdminRole.ID))+`}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(st.Users) != 2 {
		t.Errorf("users = %d, want 2 (nothing created)", len(st.Users))
	}
}

func TestEmployeeCreateDuplicateEmail(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/employees",
		`{"email":"OWNER@acme.test","name":"Copy","password":"secret1"}`)
	actAs(c, tn.principal())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEmployeeListIsTenantScoped(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/employees", "")
	actAs(c, tn.principal())
	if err := h.List(c); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	employees := decodeBody(t, rec)["employees"].([]any)
	if len(employees) != 1 {
		t.Fatalf("employees = %d, want only the acting company's 1", len(employees))
	}
	first := employees[0].(map[string]any)
	if first["email"] != "owner@acme.test" {
		t.Errorf("employee email = %v", first["email"])
	}
	if _, leaked := first["password_hash"]; leaked {
		t.Error("password hash leaked in listing")
	}
}

func TestEmployeeGetCrossTenant(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	other := seedTenant(t, st, "Rival Co", "rival-co", "boss@rival.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/employees/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(other.Admin.ID)))
	actAs(c, tn.principal())
	if err := h.Get(c); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	// Indistinguishable from a nonexistent id.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEmployeeUpdatePartial(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	bea := model.User{
		CompanyID:    tn.Company.ID,
		RoleID:       tn.EmployeeRole.ID,
		Email:        "bea@acme.test",
		Name:         "Bea",
		PasswordHash: hashPassword(t, "secret1"),
		Position:     "Employee",
		Department:   "General",
		IsActive:     true,
	}
	if err := st.CreateUser(context.Background(), &bea); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPatch, "/api/employees/:id",
		`{"position":"Senior Engineer"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(bea.ID)))
	actAs(c, tn.principal())
	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, err := st.GetCompanyUser(context.Background(), tn.Company.ID, bea.ID)
	if err != nil {
		t.Fatalf("reload employee: %v", err)
	}
	if updated.Position != "Senior Engineer" {
		t.Errorf("position = %q, want Senior Engineer", updated.Position)
	}
	// Untouched fields keep their values.
	if updated.Name != "Bea" || updated.Email != "bea@acme.test" || updated.Department != "General" {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
}

func TestEmployeeUpdatePassword(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPatch, "/api/employees/:id",
		`{"password":"newsecret"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(tn.Admin.ID)))
	actAs(c, tn.principal())
	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, err := st.GetCompanyUser(context.Background(), tn.Company.ID, tn.Admin.ID)
	if err != nil {
		t.Fatalf("reload employee: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
}

func TestEmployeeUpdateEmailConflict(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	bea := model.User{
		CompanyID:    tn.Company.ID,
		RoleID:       tn.EmployeeRole.ID,
		Email:        "bea@acme.test",
		Name:         "Bea",
		PasswordHash: hashPassword(t, "secret1"),
		IsActive:     true,
	}
	if err := st.CreateUser(context.Background(), &bea); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodPatch, "/api/employees/:id",
		`{"email":"owner@acme.test"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(bea.ID)))
	actAs(c, tn.principal())
	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEmployeeDeleteSelfRefused(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodDelete, "/api/employees/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(tn.Admin.ID)))
	actAs(c, tn.principal())
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(st.Users) != 1 {
		t.Errorf("users = %d, want 1 (self-delete refused)", len(st.Users))
	}
}

func TestEmployeeDelete(t *testing.T) {
	st := storetest.New()
	tn := seedTenant(t, st, "Acme Inc", "acme-inc", "owner@acme.test")
	bea := model.User{
		CompanyID:    tn.Company.ID,
		RoleID:       tn.EmployeeRole.ID,
		Email:        "bea@acme.test",
		Name:         "Bea",
		PasswordHash: hashPassword(t, "secret1"),
		IsActive:     true,
	}
	if err := st.CreateUser(context.Background(), &bea); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	h := NewEmployeeHandler(st)

	c, rec := jsonContext(echo.New(), http.MethodDelete, "/api/employees/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(bea.ID)))
	actAs(c, tn.principal())
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(st.Users) != 1 {
		t.Errorf("users = %d, want 1", len(st.Users))
	}
}
