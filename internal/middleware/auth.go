package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/auth"
	"github.com/nexushq/nexus-server/pkg/authz"
	"github.com/nexushq/nexus-server/pkg/jwtutil"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

const principalKey = "principal"

// Authenticator resolves the request credential (session cookie or
// bearer token) into a Principal and stores it on the echo context.
type Authenticator struct {
	resolver   *auth.Resolver
	cookieName string
}

// NewAuthenticator builds the auth middleware around a resolver.
func NewAuthenticator(resolver *auth.Resolver, cookieName string) *Authenticator {
	return &Authenticator{resolver: resolver, cookieName: cookieName}
}

// Middleware authenticates the request. Browser clients present the
// session cookie; API clients may present a Bearer credential, either a
// signed JWT or a raw session token.
func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		if cookie, err := c.Cookie(a.cookieName); err == nil && cookie.Value != "" {
			principal, err := a.resolver.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				return a.reject(c, err)
			}
			c.Set(principalKey, principal)
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Debug("Request without credential")
			prometheus.RecordAuthError("missing_credential")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		token := parts[1]

		// A JWT carries the full principal; anything else is treated as
		// an opaque session token.
		if claims, err := jwtutil.ValidateToken(token); err == nil {
			c.Set(principalKey, &authz.Principal{
				UserID:      claims.UserID,
				CompanyID:   claims.CompanyID,
				CompanySlug: claims.CompanySlug,
				Email:       claims.Email,
				RoleName:    claims.Role,
				Permissions: claims.Permissions,
			})
			return next(c)
		}

		principal, err := a.resolver.Resolve(c.Request().Context(), token)
		if err != nil {
			return a.reject(c, err)
		}
		c.Set(principalKey, principal)
		return next(c)
	}
}

func (a *Authenticator) reject(c echo.Context, err error) error {
	log := logger.FromContext(c)

	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		log.Info("Session expired")
		prometheus.RecordAuthError("session_expired")
		a.clearCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
	case errors.Is(err, auth.ErrPrincipalInactive):
		log.Warn("Inactive account attempted access")
		prometheus.RecordAuthError("principal_inactive")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is inactive"})
	case errors.Is(err, auth.ErrUnauthenticated):
		prometheus.RecordAuthError("invalid_credential")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	default:
		log.Error("Failed to resolve credential", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func (a *Authenticator) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetPrincipal returns the principal set by the auth middleware, or nil.
func GetPrincipal(c echo.Context) *authz.Principal {
	principal, _ := c.Get(principalKey).(*authz.Principal)
	return principal
}

// SetPrincipal stores a principal on the context. Used by tests to
// bypass the credential exchange.
func SetPrincipal(c echo.Context, p *authz.Principal) {
	c.Set(principalKey, p)
}

// RequirePermission gates a route on a permission token. Denials are
// always surfaced as 403, never dropped.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := GetPrincipal(c)
			if principal == nil {
				prometheus.RecordAuthError("missing_principal")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !authz.HasPermission(principal, permission) {
				logger.FromContext(c).Warn("Permission denied",
					zap.Uint("user_id", principal.UserID),
					zap.Uint("company_id", principal.CompanyID),
					zap.String("permission", permission))
				prometheus.RecordAuthError("forbidden")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
