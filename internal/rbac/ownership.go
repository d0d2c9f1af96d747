package rbac

import (
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
)

// StudentRef is the part of a student record ownership rules look at.
type StudentRef struct {
	ID            uuid.UUID
	InstitutionID uuid.UUID
}

// CanAccessStudent: ministry always, institutional admins for their own
// institution's students, students for themselves, nobody else.
func CanAccessStudent(p *model.Principal, s StudentRef) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleMinistryAdmin:
		return true
	case model.RoleInstitutionalAdmin:
		return p.InInstitution(s.InstitutionID)
	case model.RoleStudent:
		return p.ID == s.ID
	default:
		return false
	}
}

// CanAccessInstitution: ministry always, institutional admins for their own
// institution, nobody else.
func CanAccessInstitution(p *model.Principal, institutionID uuid.UUID) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleMinistryAdmin:
		return true
	case model.RoleInstitutionalAdmin:
		return p.InInstitution(institutionID)
	default:
		return false
	}
}

// CanViewInstitution widens CanAccessInstitution to unscoped principals
// holding view_institution_data, such as examination officers.
func CanViewInstitution(p *model.Principal, institutionID uuid.UUID) bool {
	if CanAccessInstitution(p, institutionID) {
		return true
	}
	return p != nil && p.InstitutionID == nil && p.HasPermission(model.PermissionViewInstitutionData)
}

// CanManageExam is reserved to the ministry.
func CanManageExam(p *model.Principal, _ *model.Exam) bool {
	return isMinistry(p)
}

// CanPublishResults is reserved to the ministry.
func CanPublishResults(p *model.Principal) bool {
	return isMinistry(p)
}

// CanVerifyInstitution is reserved to the ministry.
func CanVerifyInstitution(p *model.Principal) bool {
	return isMinistry(p)
}

// CanAccessRegistration follows the scoping of the registered student.
// Examination officers holding verify_registrations may see every one.
func CanAccessRegistration(p *model.Principal, r *model.Registration) bool {
	if p.HasPermission(model.PermissionVerifyRegistrations) {
		return true
	}
	return CanAccessStudent(p, StudentRef{ID: r.StudentID, InstitutionID: r.InstitutionID})
}

// CanReviewRegistration decides who may approve or reject r.
func CanReviewRegistration(p *model.Principal, r *model.Registration) bool {
	if p.HasPermission(model.PermissionVerifyRegistrations) {
		return true
	}
	return p.HasPermission(model.PermissionManageInstitutionRegistrations) &&
		CanAccessInstitution(p, r.InstitutionID)
}

// CanAccessResult follows the scoping of the student the result belongs to.
func CanAccessResult(p *model.Principal, r *model.Result) bool {
	return CanAccessStudent(p, StudentRef{ID: r.StudentID, InstitutionID: r.InstitutionID})
}

func isMinistry(p *model.Principal) bool {
	return p != nil && p.Role == model.RoleMinistryAdmin
}
