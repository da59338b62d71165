// Package auth resolves session credentials to principals and owns the
// authentication error taxonomy.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/authz"
)

// Resolver turns an opaque session token into a Principal.
type Resolver struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewResolver builds a Resolver over the given store.
func NewResolver(st store.Store, log *zap.Logger) *Resolver {
	return &Resolver{store: st, log: log, now: time.Now}
}

// Resolve looks up the session for token and returns the principal it
// belongs to. Expired sessions are deleted on sight before the call
// fails with ErrSessionExpired.
func (r *Resolver) Resolve(ctx context.Context, token string) (*authz.Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := r.store.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if session.Expired(r.now()) {
		if err := r.store.DeleteSession(ctx, session.ID); err != nil {
			r.log.Warn("Failed to delete expired session",
				zap.Uint("session_id", session.ID), zap.Error(err))
		}
		return nil, ErrSessionExpired
	}

	user, err := r.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrPrincipalInactive
	}

	return &authz.Principal{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		CompanySlug: user.Company.Slug,
		Email:       user.Email,
		Name:        user.Name,
		RoleName:    user.Role.Name,
		Permissions: user.Role.Permissions,
	}, nil
}
