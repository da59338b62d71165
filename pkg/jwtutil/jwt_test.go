package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestGenerateAndValidateToken(t *testing.T) {
	perms := []string{"tasks.read", "files.read"}
	tokenString, err := GenerateToken(7, "a@acme.com", 3, "acme-inc", "Employee", perms)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 7 || claims.CompanyID != 3 {
		t.Errorf("claims ids = (%d, %d), want (7, 3)", claims.UserID, claims.CompanyID)
	}
	if claims.CompanySlug != "acme-inc" || claims.Role != "Employee" {
		t.Errorf("claims = %q/%q, want acme-inc/Employee", claims.CompanySlug, claims.Role)
	}
	if len(claims.Permissions) != 2 || claims.Permissions[0] != "tasks.read" {
		t.Errorf("permissions = %v, want %v", claims.Permissions, perms)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	claims := APIClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := ValidateToken(forged); err == nil {
		t.Fatal("expected error for token signed with a different key")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	claims := APIClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := ValidateToken(expired); err == nil {
		t.Fatal("expected error for expired token")
	}
}
