// Package rbac holds the role → permission table, the pure guards built on
// it, and the row-level ownership predicates.
package rbac

import (
	"fmt"
	"slices"

	"github.com/oerms/oerms-backend/internal/model"
)

var selfService = []model.Permission{
	model.PermissionReadOwnData,
	model.PermissionRegisterForExams,
	model.PermissionViewOwnResults,
	model.PermissionReceiveNotifications,
	model.PermissionUpdateOwnProfile,
}

var institutionScope = []model.Permission{
	model.PermissionManageInstitutionStudents,
	model.PermissionUploadStudentDocuments,
	model.PermissionViewInstitutionData,
	model.PermissionRegisterStudents,
	model.PermissionViewInstitutionResults,
	model.PermissionManageInstitutionRegistrations,
	model.PermissionEnrollStudents,
	model.PermissionGenerateInstitutionReports,
}

var ministryScope = []model.Permission{
	model.PermissionReadAllData,
	model.PermissionManageInstitutions,
	model.PermissionManageExams,
	model.PermissionPublishResults,
	model.PermissionViewSystemAnalytics,
	model.PermissionManageUsers,
	model.PermissionCreateInstitutions,
	model.PermissionDeleteInstitutions,
	model.PermissionVerifyInstitutions,
	model.PermissionDeleteExams,
	model.PermissionSystemBackup,
	model.PermissionSystemRecovery,
	model.PermissionManageSystemSettings,
}

var examinationOffice = []model.Permission{
	model.PermissionReadOwnData,
	model.PermissionVerifyRegistrations,
	model.PermissionManageExamSessions,
	model.PermissionScheduleExams,
	model.PermissionViewInstitutionData,
}

var shared = []model.Permission{
	model.PermissionViewPublicData,
	model.PermissionChangePassword,
	model.PermissionSearchData,
}

// DefaultGrants is the canonical role table.
func DefaultGrants() map[model.Role][]model.Permission {
	return map[model.Role][]model.Permission{
		model.RoleStudent:            concat(selfService, shared),
		model.RoleInstitutionalAdmin: concat([]model.Permission{model.PermissionReadOwnData}, institutionScope, shared),
		model.RoleMinistryAdmin:      concat(ministryScope, shared),
		model.RoleExaminationOfficer: concat(examinationOffice, shared),
	}
}

// Registry answers which permissions a role holds. It is built once at
// startup and is read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	grants map[model.Role]map[model.Permission]struct{}
	sorted map[model.Role][]model.Permission
}

// NewRegistry builds the registry from DefaultGrants.
func NewRegistry() *Registry {
	return newRegistry(DefaultGrants())
}

func newRegistry(table map[model.Role][]model.Permission) *Registry {
	r := &Registry{
		grants: make(map[model.Role]map[model.Permission]struct{}, len(table)),
		sorted: make(map[model.Role][]model.Permission, len(table)),
	}
	for role, perms := range table {
		set := make(map[model.Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		list := make([]model.Permission, 0, len(set))
		for p := range set {
			list = append(list, p)
		}
		slices.Sort(list)
		r.grants[role] = set
		r.sorted[role] = list
	}
	return r
}

// GrantsFor returns the permissions of role, sorted. The slice is a copy.
func (r *Registry) GrantsFor(role model.Role) ([]model.Permission, error) {
	list, ok := r.sorted[role]
	if !ok || !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return slices.Clone(list), nil
}

// RoleHasPermission is a pure lookup; unknown pairs are false.
func (r *Registry) RoleHasPermission(role model.Role, perm model.Permission) bool {
	_, ok := r.grants[role][perm]
	return ok
}

// Validate checks that every role holds at least one permission and that
// every declared permission is granted to some role.
func (r *Registry) Validate() error {
	for _, role := range model.AllRoles {
		if len(r.grants[role]) == 0 {
			return fmt.Errorf("role %q has no permissions", role)
		}
	}
	for _, perm := range model.AllPermissions {
		if len(r.RolesWith(perm)) == 0 {
			return fmt.Errorf("permission %q is not granted to any role", perm)
		}
	}
	return nil
}

// RolesWith lists the roles holding perm, in model.AllRoles order.
func (r *Registry) RolesWith(perm model.Permission) []model.Role {
	var roles []model.Role
	for _, role := range model.AllRoles {
		if r.RoleHasPermission(role, perm) {
			roles = append(roles, role)
		}
	}
	return roles
}

func concat(groups ...[]model.Permission) []model.Permission {
	var out []model.Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
