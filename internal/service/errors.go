package service

import (
	"errors"

	"github.com/oerms/oerms-backend/internal/response"
)

// Domain errors returned by the services.
var (
	ErrExamNotOpen             = errors.New("exam is not accepting registrations")
	ErrAlreadyRegistered       = errors.New("student is already registered for this exam")
	ErrInvalidTransition       = errors.New("registration is no longer pending")
	ErrRegistrationNotApproved = errors.New("student has no approved registration for this exam")
	ErrStudentInactive         = errors.New("student account is inactive")
	ErrResultExists            = errors.New("result already exists")
	ErrResultLocked            = errors.New("published results can only be amended by the ministry")
	ErrInstitutionRequired     = errors.New("institution is required")
	ErrEmailTaken              = errors.New("email is already in use")
	ErrInvalidRole             = errors.New("role cannot be assigned here")
	ErrSelfDeactivation        = errors.New("accounts cannot deactivate themselves")
)

// Page is a validated page/per-page pair.
type Page struct {
	Number  int
	PerPage int
}

// NewPage clamps page and perPage to sane bounds.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return Page{Number: page, PerPage: perPage}
}

// Limit returns the SQL limit.
func (p Page) Limit() int { return p.PerPage }

// Offset returns the SQL offset.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

// Pagination builds the response pagination block.
func (p Page) Pagination(total int) *response.Pagination {
	return response.NewPagination(p.Number, p.PerPage, total)
}
