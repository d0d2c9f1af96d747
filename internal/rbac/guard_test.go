package rbac

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principalFor(t *testing.T, role model.Role) *model.Principal {
	t.Helper()
	grants, err := NewRegistry().GrantsFor(role)
	require.NoError(t, err)
	return &model.Principal{ID: uuid.New(), Role: role, Permissions: grants, IsActive: true}
}

func TestRequireRole(t *testing.T) {
	ministry := principalFor(t, model.RoleMinistryAdmin)

	_, err := RequireRole(ministry, model.RoleInstitutionalAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := RequireRole(ministry, model.RoleInstitutionalAdmin, model.RoleMinistryAdmin)
	require.NoError(t, err)
	assert.Same(t, ministry, got)

	_, err = RequireRole(nil, model.RoleStudent)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequirePermission(t *testing.T) {
	ministry := principalFor(t, model.RoleMinistryAdmin)

	got, err := RequirePermission(ministry, model.PermissionManageInstitutions)
	require.NoError(t, err)
	assert.Same(t, ministry, got)

	_, err = RequirePermission(ministry, model.PermissionRegisterForExams)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRequireAnyPermission(t *testing.T) {
	student := principalFor(t, model.RoleStudent)

	got, err := RequireAnyPermission(student, model.PermissionRegisterStudents, model.PermissionViewPublicData)
	require.NoError(t, err)
	assert.Same(t, student, got)

	bare := &model.Principal{ID: uuid.New(), Role: model.RoleStudent}
	_, err = RequireAnyPermission(bare, model.PermissionRegisterStudents, model.PermissionViewPublicData)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = RequireAnyPermission(student)
	assert.ErrorIs(t, err, ErrForbidden)
}
