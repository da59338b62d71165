package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/store/storetest"
	"github.com/nexushq/nexus-server/pkg/authz"
)

// jsonContext builds an echo context carrying a JSON body.
func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v (body %q)", err, rec.Body.String())
	}
	return body
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

// tenant is a fully seeded company with its default roles and an
// active administrator.
type tenant struct {
	Company      model.Company
	AdminRole    model.Role
	EmployeeRole model.Role
	Admin        model.User
}

// seedTenant provisions a company the way signup would.
func seedTenant(t *testing.T, st *storetest.Store, name, slug, adminEmail string) tenant {
	t.Helper()
	ctx := context.Background()

	company := model.Company{Name: name, Slug: slug, Email: adminEmail, Settings: model.DefaultSettings()}
	if err := st.CreateCompany(ctx, &company); err != nil {
		t.Fatalf("seed company: %v", err)
	}

	adminRole := model.Role{
		CompanyID:   company.ID,
		Name:        authz.RoleAdmin,
		Permissions: authz.AdminPermissions(),
	}
	if err := st.CreateRole(ctx, &adminRole); err != nil {
		t.Fatalf("seed admin role: %v", err)
	}
	employeeRole := model.Role{
		CompanyID:   company.ID,
		Name:        authz.RoleEmployee,
		Permissions: authz.EmployeePermissions(),
		IsDefault:   true,
	}
	if err := st.CreateRole(ctx, &employeeRole); err != nil {
		t.Fatalf("seed employee role: %v", err)
	}

	admin := model.User{
		CompanyID:    company.ID,
		RoleID:       adminRole.ID,
		Email:        adminEmail,
		Name:         "Admin",
		PasswordHash: hashPassword(t, "secret1"),
		Position:     "Administrator",
		Department:   "Management",
		IsActive:     true,
	}
	if err := st.CreateUser(ctx, &admin); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}

	return tenant{Company: company, AdminRole: adminRole, EmployeeRole: employeeRole, Admin: admin}
}

func (tn tenant) principal() *authz.Principal {
	return &authz.Principal{
		UserID:      tn.Admin.ID,
		CompanyID:   tn.Company.ID,
		CompanySlug: tn.Company.Slug,
		Email:       tn.Admin.Email,
		Name:        tn.Admin.Name,
		RoleName:    tn.AdminRole.Name,
		Permissions: tn.AdminRole.Permissions,
	}
}

func actAs(c echo.Context, p *authz.Principal) {
	middleware.SetPrincipal(c, p)
}
