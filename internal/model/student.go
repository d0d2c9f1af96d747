package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is a candidate enrolled at exactly one institution.
type Student struct {
	ID            uuid.UUID  `json:"id"`
	InstitutionID uuid.UUID  `json:"institution_id"`
	StudentNumber string     `json:"student_number"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	PasswordHash  string     `json:"-"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// EnrollStudentRequest is the payload for enrolling a new student.
// InstitutionID is taken from the caller for institutional admins.
type EnrollStudentRequest struct {
	InstitutionID *uuid.UUID `json:"institution_id"`
	StudentNumber string     `json:"student_number" binding:"required,min=3,max=50"`
	FirstName     string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName      string     `json:"last_name" binding:"required,min=1,max=100"`
	Email         string     `json:"email" binding:"required,email,max=255"`
	Phone         string     `json:"phone" binding:"omitempty,max=20"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Password      string     `json:"password" binding:"required,min=8,max=72"`
}

// UpdateStudentRequest is the payload for updating a student profile.
type UpdateStudentRequest struct {
	FirstName   string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string     `json:"last_name" binding:"required,min=1,max=100"`
	Phone       string     `json:"phone" binding:"omitempty,max=20"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	InstitutionID *uuid.UUID
	Search        string
}
