package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nexushq/nexus-server/pkg/config"
)

var (
	signingKey = []byte("nexusservicesecretkey")
	expiration = 24 * time.Hour
)

// Initialize configures the signing key and token lifetime.
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		signingKey = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// APIClaims is the stateless credential issued at signin for
// non-browser clients. It carries the full principal so API requests
// need no session lookup.
type APIClaims struct {
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	CompanyID   uint     `json:"company_id"`
	CompanySlug string   `json:"company_slug"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed API token for the given principal data.
func GenerateToken(userID uint, email string, companyID uint, companySlug, role string, permissions []string) (string, error) {
	claims := APIClaims{
		UserID:      userID,
		Email:       email,
		CompanyID:   companyID,
		CompanySlug: companySlug,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses an API token.
func ValidateToken(tokenString string) (*APIClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &APIClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*APIClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
