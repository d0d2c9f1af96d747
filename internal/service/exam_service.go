package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ExamService handles exam business logic.
type ExamService struct {
	repo  *repository.ExamRepository
	authz Authorizer
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(repo *repository.ExamRepository, authz Authorizer, log zerolog.Logger) *ExamService {
	return &ExamService{repo: repo, authz: authz, log: log.With().Str("component", "exam_service").Logger()}
}

// Create schedules a new exam. Status defaults to active.
func (s *ExamService) Create(ctx context.Context, p *model.Principal, req model.ExamRequest) (*model.Exam, error) {
	exam := &model.Exam{CreatedBy: p.ID}
	applyExamRequest(exam, req)
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, err
	}
	s.log.Info().Str("exam_id", exam.ID.String()).Str("code", exam.Code).Msg("Exam created")
	return exam, nil
}

// Update modifies an exam. Examination officers may only amend exams they
// scheduled themselves.
func (s *ExamService) Update(ctx context.Context, p *model.Principal, id uuid.UUID, req model.ExamRequest) (*model.Exam, error) {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, rbac.CanManageExam(p, exam) || exam.CreatedBy == p.ID, "update_exam"); err != nil {
		return nil, err
	}
	applyExamRequest(exam, req)
	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func applyExamRequest(exam *model.Exam, req model.ExamRequest) {
	exam.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	exam.Title = req.Title
	exam.Type = strings.TrimSpace(req.Type)
	exam.Description = req.Description
	exam.ExamDate = req.ExamDate.UTC()
	exam.RegistrationDeadline = req.RegistrationDeadline
	exam.Status = req.Status
	if exam.Status == "" {
		exam.Status = model.ExamStatusActive
	}
}

// Delete removes an exam with its registrations and results.
func (s *ExamService) Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(p, rbac.CanManageExam(p, exam), "delete_exam"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("exam_id", id.String()).Str("by", p.ID.String()).Msg("Exam deleted")
	return nil
}

// Get returns one exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns exams matching f.
func (s *ExamService) List(ctx context.Context, f model.ExamFilter, page Page) ([]model.Exam, int, error) {
	items, total, err := s.repo.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Exam{}
	}
	return items, total, err
}
