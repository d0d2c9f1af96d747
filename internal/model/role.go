package model

// Role is the fixed category of an account.
type Role string

const (
	RoleStudent            Role = "student"
	RoleInstitutionalAdmin Role = "institutional_admin"
	RoleMinistryAdmin      Role = "ministry_admin"
	RoleExaminationOfficer Role = "examination_officer"
)

// AllRoles lists every role in a stable order.
var AllRoles = []Role{
	RoleStudent,
	RoleInstitutionalAdmin,
	RoleMinistryAdmin,
	RoleExaminationOfficer,
}

// StaffRoles are the roles stored in the staff_accounts table.
var StaffRoles = []Role{
	RoleInstitutionalAdmin,
	RoleMinistryAdmin,
	RoleExaminationOfficer,
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether accounts of this role live in staff_accounts.
func (r Role) IsStaff() bool {
	for _, known := range StaffRoles {
		if r == known {
			return true
		}
	}
	return false
}
