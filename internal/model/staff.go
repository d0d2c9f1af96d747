package model

import (
	"time"

	"github.com/google/uuid"
)

// Staff is a ministry admin, institutional admin or examination officer.
type Staff struct {
	ID            uuid.UUID  `json:"id"`
	Role          Role       `json:"role"`
	InstitutionID *uuid.UUID `json:"institution_id,omitempty"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	PasswordHash  string     `json:"-"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateStaffRequest is the payload for creating a staff account.
type CreateStaffRequest struct {
	Role          Role       `json:"role" binding:"required,staff_role"`
	InstitutionID *uuid.UUID `json:"institution_id" binding:"required_if=Role institutional_admin"`
	FirstName     string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName      string     `json:"last_name" binding:"required,min=1,max=100"`
	Email         string     `json:"email" binding:"required,email,max=255"`
	Phone         string     `json:"phone" binding:"omitempty,max=20"`
	Password      string     `json:"password" binding:"required,min=8,max=72"`
}

// StaffFilter narrows staff listings.
type StaffFilter struct {
	Role          Role
	InstitutionID *uuid.UUID
}

// SetActiveRequest toggles an account's active flag.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
