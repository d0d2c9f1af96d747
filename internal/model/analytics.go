package model

import "github.com/google/uuid"

// ResultSummary counts results by outcome. PassRate is a percentage rounded
// to two decimals, zero when there are no results.
type ResultSummary struct {
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Absent    int     `json:"absent"`
	Pending   int     `json:"pending"`
	Published int     `json:"published"`
	PassRate  float64 `json:"pass_rate"`
}

// InstitutionCount is one row of a per-institution result breakdown.
type InstitutionCount struct {
	InstitutionID   uuid.UUID `json:"institution_id"`
	InstitutionName string    `json:"institution"`
	Count           int       `json:"count"`
	Passed          int       `json:"passed"`
}

// ExamStatistics is the registration and result picture of one exam.
type ExamStatistics struct {
	Exam                 *Exam              `json:"exam"`
	RegistrationsCount   int                `json:"registrations_count"`
	Results              ResultSummary      `json:"results_statistics"`
	InstitutionBreakdown []InstitutionCount `json:"institution_breakdown"`
}

// ResultStatisticsQuery narrows GET /results/statistics.
type ResultStatisticsQuery struct {
	ExamID        string `form:"exam_id" binding:"omitempty,uuid"`
	InstitutionID string `form:"institution_id" binding:"omitempty,uuid"`
}

// SystemAnalytics are the ministry-wide counters.
type SystemAnalytics struct {
	TotalUsers   map[Role]int        `json:"total_users"`
	Institutions InstitutionCounters `json:"institutions"`
	Activity     ActivityCounters    `json:"activity"`
	Results      ResultSummary       `json:"results"`
}

// InstitutionCounters splits institutions by verification state.
type InstitutionCounters struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
}

// ActivityCounters splits students by account state.
type ActivityCounters struct {
	ActiveStudents   int `json:"active_students"`
	InactiveStudents int `json:"inactive_students"`
}

// BulkResultRequest is the payload of POST /results/bulk-upload.
type BulkResultRequest struct {
	Results []ResultRequest `json:"results" binding:"required,min=1,max=500,dive"`
}

// BulkRowError reports why one row of a bulk upload was skipped.
type BulkRowError struct {
	Index     int       `json:"index"`
	StudentID uuid.UUID `json:"student_id"`
	Error     string    `json:"error"`
}

// BulkUploadReport summarises a bulk upload. Rows are independent: a failed
// row never rolls back the others.
type BulkUploadReport struct {
	Uploaded int            `json:"uploaded"`
	Failed   int            `json:"failed"`
	Errors   []BulkRowError `json:"errors"`
}
