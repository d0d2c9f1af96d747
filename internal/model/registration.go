package model

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of an exam registration.
// pending → approved | rejected; both outcomes are terminal.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Registration links a student to an exam sitting.
type Registration struct {
	ID              uuid.UUID          `json:"id"`
	StudentID       uuid.UUID          `json:"student_id"`
	ExamID          uuid.UUID          `json:"exam_id"`
	InstitutionID   uuid.UUID          `json:"institution_id"`
	Status          RegistrationStatus `json:"status"`
	CandidateNumber *string            `json:"candidate_number,omitempty"`
	VerifiedBy      *uuid.UUID         `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time         `json:"verified_at,omitempty"`
	RejectReason    string             `json:"reject_reason,omitempty"`
	RegisteredAt    time.Time          `json:"registered_at"`
}

// RegisterRequest is the payload for POST /registrations. StudentID is
// implied for students registering themselves.
type RegisterRequest struct {
	ExamID    uuid.UUID  `json:"exam_id" binding:"required"`
	StudentID *uuid.UUID `json:"student_id"`
}

// RejectRequest carries an optional reason for a rejection.
type RejectRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RegistrationFilter narrows registration listings.
type RegistrationFilter struct {
	StudentID     *uuid.UUID
	ExamID        *uuid.UUID
	InstitutionID *uuid.UUID
	Status        RegistrationStatus
}
