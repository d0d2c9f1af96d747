package rbac

import (
	"slices"

	"github.com/oerms/oerms-backend/internal/model"
)

// RequireRole passes p through when its role is one of roles.
func RequireRole(p *model.Principal, roles ...model.Role) (*model.Principal, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if slices.Contains(roles, p.Role) {
		return p, nil
	}
	return nil, ErrForbidden
}

// RequirePermission passes p through when it carries perm.
func RequirePermission(p *model.Principal, perm model.Permission) (*model.Principal, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if p.HasPermission(perm) {
		return p, nil
	}
	return nil, ErrForbidden
}

// RequireAnyPermission passes p through on the first permission it carries.
func RequireAnyPermission(p *model.Principal, perms ...model.Permission) (*model.Principal, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	for _, perm := range perms {
		if p.HasPermission(perm) {
			return p, nil
		}
	}
	return nil, ErrForbidden
}
