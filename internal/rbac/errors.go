package rbac

import "errors"

// Authentication failures. All of them surface as 401.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrMissingClaims      = errors.New("token is missing required claims")
	ErrRevokedToken       = errors.New("token revoked")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrInactiveAccount    = errors.New("account is inactive")
)

// ErrForbidden is returned by every guard and ownership check. It surfaces
// as 403 with a generic message.
var ErrForbidden = errors.New("forbidden")

// ErrUnknownRole means a role outside the fixed set reached the registry.
// It is an invariant violation and surfaces as 500.
var ErrUnknownRole = errors.New("unknown role")
