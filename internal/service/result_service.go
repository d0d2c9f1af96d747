package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ResultStore is the result persistence the service needs.
type ResultStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	ListPaginated(ctx context.Context, f model.ResultFilter, limit, offset int) ([]model.Result, int, error)
	Create(ctx context.Context, res *model.Result) error
	Update(ctx context.Context, res *model.Result) error
	PublishOne(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	PublishExam(ctx context.Context, examID, by uuid.UUID, notes string, at time.Time) (*model.Publication, []uuid.UUID, error)
	ListPublications(ctx context.Context, examID uuid.UUID) ([]model.Publication, error)
}

// RegistrationReader looks up a student's registration for an exam.
type RegistrationReader interface {
	GetByStudentExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Registration, error)
}

// ResultService handles result upload and the unpublished → published step.
type ResultService struct {
	results  ResultStore
	regs     RegistrationReader
	exams    ExamReader
	students StudentReader
	notifier Notifier
	authz    Authorizer
	now      func() time.Time
	log      zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, regs RegistrationReader, exams ExamReader, students StudentReader, notifier Notifier, authz Authorizer, log zerolog.Logger) *ResultService {
	return &ResultService{
		results:  results,
		regs:     regs,
		exams:    exams,
		students: students,
		notifier: notifier,
		authz:    authz,
		now:      time.Now,
		log:      log.With().Str("component", "result_service").Logger(),
	}
}

// Upload records an unpublished result for a student holding an approved
// registration.
func (s *ResultService) Upload(ctx context.Context, p *model.Principal, req model.ResultRequest) (*model.Result, error) {
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	ref := rbac.StudentRef{ID: student.ID, InstitutionID: student.InstitutionID}
	if err := s.authz.Authorize(p, p.Role != model.RoleStudent && rbac.CanAccessStudent(p, ref), "upload_result"); err != nil {
		return nil, err
	}

	reg, err := s.regs.GetByStudentExam(ctx, student.ID, req.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRegistrationNotApproved
	}
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationApproved {
		return nil, ErrRegistrationNotApproved
	}

	res := &model.Result{
		StudentID:     student.ID,
		ExamID:        req.ExamID,
		InstitutionID: student.InstitutionID,
		Scores:        req.Scores,
		Grade:         req.Grade,
		Status:        req.Status,
		Remarks:       req.Remarks,
		UploadedBy:    p.ID,
	}
	if err := s.results.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			return nil, ErrResultExists
		}
		return nil, err
	}
	return res, nil
}

// bulkRowErrors are the row failures reported to the caller verbatim. Any
// other error is logged and reported as an internal error.
var bulkRowErrors = []error{
	ErrRegistrationNotApproved,
	ErrResultExists,
	rbac.ErrForbidden,
	repository.ErrNotFound,
}

// BulkUpload uploads each row independently through Upload and reports the
// rows that were skipped. It fails as a whole only when the caller may not
// upload at all or ctx ends.
func (s *ResultService) BulkUpload(ctx context.Context, p *model.Principal, reqs []model.ResultRequest) (*model.BulkUploadReport, error) {
	if err := s.authz.Authorize(p, p != nil && p.Role != model.RoleStudent, "bulk_upload_results"); err != nil {
		return nil, err
	}

	report := &model.BulkUploadReport{Errors: []model.BulkRowError{}}
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.Upload(ctx, p, req); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, model.BulkRowError{
				Index:     i,
				StudentID: req.StudentID,
				Error:     s.rowError(err, i),
			})
			bulkUploadRows.WithLabelValues("failed").Inc()
			continue
		}
		report.Uploaded++
		bulkUploadRows.WithLabelValues("uploaded").Inc()
	}

	s.log.Info().
		Int("uploaded", report.Uploaded).
		Int("failed", report.Failed).
		Str("uploaded_by", p.ID.String()).
		Msg("Bulk result upload finished")
	return report, nil
}

func (s *ResultService) rowError(err error, index int) string {
	for _, known := range bulkRowErrors {
		if errors.Is(err, known) {
			if errors.Is(err, repository.ErrNotFound) {
				return "student not found"
			}
			return known.Error()
		}
	}
	s.log.Error().Err(err).Int("row", index).Msg("Bulk upload row failed")
	return "internal error"
}

// Update amends a result. Once published only the ministry may amend it.
func (s *ResultService) Update(ctx context.Context, p *model.Principal, id uuid.UUID, req model.ResultRequest) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, p.Role != model.RoleStudent && rbac.CanAccessResult(p, res), "update_result"); err != nil {
		return nil, err
	}
	if res.IsPublished && p.Role != model.RoleMinistryAdmin {
		return nil, ErrResultLocked
	}

	res.Scores = req.Scores
	res.Grade = req.Grade
	res.Status = req.Status
	res.Remarks = req.Remarks
	res.UploadedBy = p.ID
	if err := s.results.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns a result the caller may see. Students never see unpublished
// results; those look missing.
func (s *ResultService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, rbac.CanAccessResult(p, res), "view_result"); err != nil {
		return nil, err
	}
	if p.Role == model.RoleStudent && !res.IsPublished {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

// List returns the results visible to the caller.
func (s *ResultService) List(ctx context.Context, p *model.Principal, f model.ResultFilter, page Page) ([]model.Result, int, error) {
	switch {
	case p.Role == model.RoleStudent:
		f.StudentID = &p.ID
		f.PublishedOnly = true
	case p.HasPermission(model.PermissionReadAllData):
	case p.InstitutionID != nil && p.HasPermission(model.PermissionViewInstitutionResults):
		f.InstitutionID = p.InstitutionID
	default:
		return nil, 0, rbac.ErrForbidden
	}

	items, total, err := s.results.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Result{}
	}
	return items, total, err
}

// Publish publishes one result. changed is false when it was already
// published.
func (s *ResultService) Publish(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Result, bool, error) {
	if err := s.authz.Authorize(p, rbac.CanPublishResults(p), "publish_result"); err != nil {
		return nil, false, err
	}
	changed, err := s.results.PublishOne(ctx, id, s.now().UTC())
	if err != nil {
		return nil, false, err
	}
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if changed {
		resultsPublished.Inc()
		s.notify(ctx, res.StudentID)
	}
	return res, changed, nil
}

// PublishExam publishes every unpublished result of an exam and records the
// publication. Calling it again publishes nothing.
func (s *ResultService) PublishExam(ctx context.Context, p *model.Principal, examID uuid.UUID, notes string) (*model.Publication, error) {
	if err := s.authz.Authorize(p, rbac.CanPublishResults(p), "publish_exam_results"); err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	pub, students, err := s.results.PublishExam(ctx, exam.ID, p.ID, notes, s.now().UTC())
	if err != nil {
		return nil, err
	}
	resultsPublished.Add(float64(pub.TotalResults))
	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("published", pub.TotalResults).
		Str("published_by", p.ID.String()).
		Msg("Exam results published")

	s.notify(ctx, students...)
	return pub, nil
}

// Publications lists the publication history of an exam.
func (s *ResultService) Publications(ctx context.Context, examID uuid.UUID) ([]model.Publication, error) {
	pubs, err := s.results.ListPublications(ctx, examID)
	if pubs == nil {
		pubs = []model.Publication{}
	}
	return pubs, err
}

func (s *ResultService) notify(ctx context.Context, studentIDs ...uuid.UUID) {
	if s.notifier == nil || len(studentIDs) == 0 {
		return
	}
	batch := make([]model.Notification, 0, len(studentIDs))
	for _, id := range studentIDs {
		batch = append(batch, studentNotice(id, model.NotificationResult,
			"Exam result published", "A new exam result is available in your account."))
	}
	if err := s.notifier.Notify(ctx, batch...); err != nil {
		s.log.Warn().Err(err).Int("count", len(batch)).Msg("Failed to queue result notifications")
	}
}
