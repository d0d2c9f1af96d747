package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus represents the lifecycle of an exam.
type ExamStatus string

const (
	ExamStatusActive    ExamStatus = "active"
	ExamStatusInactive  ExamStatus = "inactive"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// Exam is a national examination sitting.
type Exam struct {
	ID                   uuid.UUID  `json:"id"`
	Code                 string     `json:"code"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	Description          string     `json:"description,omitempty"`
	ExamDate             time.Time  `json:"exam_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	Status               ExamStatus `json:"status"`
	CreatedBy            uuid.UUID  `json:"created_by"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// RegistrationOpen reports whether students may still register at now.
func (e *Exam) RegistrationOpen(now time.Time) bool {
	if e.Status != ExamStatusActive {
		return false
	}
	return e.RegistrationDeadline == nil || now.Before(*e.RegistrationDeadline)
}

// ExamRequest is the payload for creating or updating an exam.
type ExamRequest struct {
	Code                 string     `json:"code" binding:"required,min=2,max=50"`
	Title                string     `json:"title" binding:"required,min=2,max=200"`
	Type                 string     `json:"type" binding:"required,min=2,max=50"`
	Description          string     `json:"description" binding:"omitempty,max=2000"`
	ExamDate             time.Time  `json:"exam_date" binding:"required"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Status               ExamStatus `json:"status" binding:"omitempty,oneof=active inactive completed cancelled"`
}

// ExamFilter narrows exam listings.
type ExamFilter struct {
	Status ExamStatus
	Type   string
	Year   int
}
