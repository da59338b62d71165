package auth

import "errors"

// Authentication failure taxonomy. Handlers map all three to 401; the
// distinction matters for logging and for cookie cleanup on expiry.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrSessionExpired    = errors.New("session expired")
	ErrPrincipalInactive = errors.New("principal inactive")
)
