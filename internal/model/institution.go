package model

import (
	"time"

	"github.com/google/uuid"
)

// InstitutionType classifies an institution.
type InstitutionType string

const (
	InstitutionUniversity     InstitutionType = "university"
	InstitutionCollege        InstitutionType = "college"
	InstitutionSchool         InstitutionType = "school"
	InstitutionTrainingCenter InstitutionType = "training_center"
)

// Institution is a school or university whose students sit exams.
type Institution struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Type       InstitutionType `json:"type"`
	Region     string          `json:"region"`
	Address    string          `json:"address,omitempty"`
	Email      string          `json:"email,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	IsVerified bool            `json:"is_verified"`
	VerifiedBy *uuid.UUID      `json:"verified_by,omitempty"`
	VerifiedAt *time.Time      `json:"verified_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InstitutionRequest is the payload for creating or updating an institution.
type InstitutionRequest struct {
	Name    string          `json:"name" binding:"required,min=2,max=200"`
	Type    InstitutionType `json:"type" binding:"required,oneof=university college school training_center"`
	Region  string          `json:"region" binding:"required,min=2,max=100"`
	Address string          `json:"address" binding:"omitempty,max=500"`
	Email   string          `json:"email" binding:"omitempty,email,max=255"`
	Phone   string          `json:"phone" binding:"omitempty,max=20"`
}

// InstitutionFilter narrows institution listings.
type InstitutionFilter struct {
	ID           *uuid.UUID
	Region       string
	VerifiedOnly bool
	Search       string
}

// InstitutionReport aggregates an institution's activity.
type InstitutionReport struct {
	InstitutionID    uuid.UUID      `json:"institution_id"`
	ActiveStudents   int            `json:"active_students"`
	Registrations    map[string]int `json:"registrations"`
	PublishedResults int            `json:"published_results"`
	ResultsByStatus  map[string]int `json:"results_by_status"`
}
