package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the outcome recorded for a candidate.
type ResultStatus string

const (
	ResultPass    ResultStatus = "pass"
	ResultFail    ResultStatus = "fail"
	ResultAbsent  ResultStatus = "absent"
	ResultPending ResultStatus = "pending"
)

// Result is one candidate's outcome for one exam. It is hidden from the
// student and the public until IsPublished is set.
type Result struct {
	ID            uuid.UUID          `json:"id"`
	StudentID     uuid.UUID          `json:"student_id"`
	ExamID        uuid.UUID          `json:"exam_id"`
	InstitutionID uuid.UUID          `json:"institution_id"`
	Scores        map[string]float64 `json:"scores"`
	Grade         string             `json:"grade,omitempty"`
	Status        ResultStatus       `json:"status"`
	Remarks       string             `json:"remarks,omitempty"`
	IsPublished   bool               `json:"is_published"`
	PublishedAt   *time.Time         `json:"published_at,omitempty"`
	UploadedBy    uuid.UUID          `json:"uploaded_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ResultRequest is the payload for uploading or amending a result.
type ResultRequest struct {
	StudentID uuid.UUID          `json:"student_id" binding:"required"`
	ExamID    uuid.UUID          `json:"exam_id" binding:"required"`
	Scores    map[string]float64 `json:"scores" binding:"omitempty,dive,keys,min=1,max=100,endkeys,gte=0,lte=100"`
	Grade     string             `json:"grade" binding:"omitempty,max=5"`
	Status    ResultStatus       `json:"status" binding:"required,oneof=pass fail absent pending"`
	Remarks   string             `json:"remarks" binding:"omitempty,max=1000"`
}

// ResultFilter narrows result listings.
type ResultFilter struct {
	StudentID     *uuid.UUID
	ExamID        *uuid.UUID
	InstitutionID *uuid.UUID
	PublishedOnly bool
}

// Publication records one bulk publication of an exam's results.
type Publication struct {
	ID           uuid.UUID `json:"id"`
	ExamID       uuid.UUID `json:"exam_id"`
	PublishedBy  uuid.UUID `json:"published_by"`
	TotalResults int       `json:"total_results"`
	Notes        string    `json:"notes,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
}

// PublishExamRequest is the payload for publishing an exam's results.
type PublishExamRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// PublicResult is the view of a published result returned to anonymous callers.
type PublicResult struct {
	CandidateNumber string       `json:"candidate_number"`
	StudentNumber   string       `json:"student_number"`
	StudentName     string       `json:"student_name"`
	InstitutionName string       `json:"institution_name"`
	ExamCode        string       `json:"exam_code"`
	ExamTitle       string       `json:"exam_title"`
	Grade           string       `json:"grade,omitempty"`
	Status          ResultStatus `json:"status"`
	PublishedAt     time.Time    `json:"published_at"`
}

// PublicSearchQuery holds the public lookup keys. At least one must be set.
type PublicSearchQuery struct {
	CandidateNumber string `form:"candidate_number" binding:"omitempty,candidate_number"`
	StudentNumber   string `form:"student_number" binding:"omitempty,min=3,max=50"`
	ExamID          string `form:"exam_id" binding:"omitempty,uuid"`
}

// Empty reports whether no lookup key was supplied.
func (q PublicSearchQuery) Empty() bool {
	return q.CandidateNumber == "" && q.StudentNumber == "" && q.ExamID == ""
}

// PublicStats are the aggregate counters shown on the landing page.
type PublicStats struct {
	VerifiedInstitutions int `json:"verified_institutions"`
	ActiveStudents       int `json:"active_students"`
	ActiveExams          int `json:"active_exams"`
	PublishedResults     int `json:"published_results"`
}
