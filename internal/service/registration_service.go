package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrStudentRequired is returned when staff register without naming a student.
var ErrStudentRequired = errors.New("student_id is required")

const maxCandidateSuffix = 999

// Authorizer audits ownership decisions.
type Authorizer interface {
	Authorize(p *model.Principal, allowed bool, action string) error
}

// RegistrationStore is the registration persistence the service needs.
type RegistrationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Registration, error)
	GetByStudentExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Registration, error)
	ListPaginated(ctx context.Context, f model.RegistrationFilter, limit, offset int) ([]model.Registration, int, error)
	Create(ctx context.Context, reg *model.Registration) error
	CandidateNumberTaken(ctx context.Context, number string) (bool, error)
	Approve(ctx context.Context, id uuid.UUID, candidateNumber string, by uuid.UUID, at time.Time) (*model.Registration, error)
	Reject(ctx context.Context, id uuid.UUID, reason string, by uuid.UUID, at time.Time) (*model.Registration, error)
}

// ExamReader loads exams.
type ExamReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// StudentReader loads students.
type StudentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
}

// RegistrationService runs the pending → approved | rejected workflow.
type RegistrationService struct {
	regs     RegistrationStore
	exams    ExamReader
	students StudentReader
	notifier Notifier
	authz    Authorizer
	now      func() time.Time
	log      zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(regs RegistrationStore, exams ExamReader, students StudentReader, notifier Notifier, authz Authorizer, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		regs:     regs,
		exams:    exams,
		students: students,
		notifier: notifier,
		authz:    authz,
		now:      time.Now,
		log:      log.With().Str("component", "registration_service").Logger(),
	}
}

// Register files a pending registration. Students register themselves;
// staff name the student.
func (s *RegistrationService) Register(ctx context.Context, p *model.Principal, req model.RegisterRequest) (*model.Registration, error) {
	studentID, err := registrant(p, req)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ref := rbac.StudentRef{ID: student.ID, InstitutionID: student.InstitutionID}
	if err := s.authz.Authorize(p, rbac.CanAccessStudent(p, ref), "register_student"); err != nil {
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentInactive
	}

	exam, err := s.exams.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if !exam.RegistrationOpen(s.now()) {
		return nil, ErrExamNotOpen
	}

	if _, err := s.regs.GetByStudentExam(ctx, student.ID, exam.ID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	reg := &model.Registration{StudentID: student.ID, ExamID: exam.ID, InstitutionID: student.InstitutionID}
	if err := s.regs.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	if p.Role != model.RoleStudent {
		s.notify(ctx, studentNotice(student.ID, model.NotificationRegistration,
			"Exam registration submitted", fmt.Sprintf("You have been registered for %s.", exam.Title)))
	}
	return reg, nil
}

func registrant(p *model.Principal, req model.RegisterRequest) (uuid.UUID, error) {
	if p.Role == model.RoleStudent {
		if req.StudentID != nil && *req.StudentID != p.ID {
			return uuid.Nil, rbac.ErrForbidden
		}
		return p.ID, nil
	}
	if req.StudentID == nil {
		return uuid.Nil, ErrStudentRequired
	}
	return *req.StudentID, nil
}

// Get returns a registration the caller may see.
func (s *RegistrationService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, rbac.CanAccessRegistration(p, reg), "view_registration"); err != nil {
		return nil, err
	}
	return reg, nil
}

// List returns the registrations visible to the caller.
func (s *RegistrationService) List(ctx context.Context, p *model.Principal, f model.RegistrationFilter, page Page) ([]model.Registration, int, error) {
	switch {
	case p.Role == model.RoleStudent:
		f.StudentID = &p.ID
	case p.HasPermission(model.PermissionVerifyRegistrations), p.HasPermission(model.PermissionReadAllData):
	case p.InstitutionID != nil:
		f.InstitutionID = p.InstitutionID
	default:
		return nil, 0, rbac.ErrForbidden
	}

	items, total, err := s.regs.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Registration{}
	}
	return items, total, err
}

// Approve moves a pending registration to approved and issues its
// candidate number.
func (s *RegistrationService) Approve(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Registration, error) {
	reg, err := s.reviewable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, reg.ExamID)
	if err != nil {
		return nil, err
	}

	base := CandidateNumber(exam.Type, exam.ExamDate.Year(), reg.StudentID)
	for suffix := 1; suffix <= maxCandidateSuffix; suffix++ {
		number := withSuffix(base, suffix)
		taken, err := s.regs.CandidateNumberTaken(ctx, number)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		approved, err := s.regs.Approve(ctx, id, number, p.ID, s.now().UTC())
		switch {
		case errors.Is(err, repository.ErrDuplicateCandidateNumber):
			continue
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrInvalidTransition
		case err != nil:
			return nil, err
		}

		s.log.Info().
			Str("registration_id", id.String()).
			Str("candidate_number", number).
			Str("approved_by", p.ID.String()).
			Msg("Registration approved")
		s.notify(ctx, studentNotice(reg.StudentID, model.NotificationRegistration,
			"Exam registration approved",
			fmt.Sprintf("Your registration for %s was approved. Candidate number: %s.", exam.Title, number)))
		return approved, nil
	}
	return nil, fmt.Errorf("no free candidate number for %s", base)
}

// Reject moves a pending registration to rejected.
func (s *RegistrationService) Reject(ctx context.Context, p *model.Principal, id uuid.UUID, reason string) (*model.Registration, error) {
	reg, err := s.reviewable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	rejected, err := s.regs.Reject(ctx, id, reason, p.ID, s.now().UTC())
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	msg := "Your exam registration was rejected."
	if reason != "" {
		msg += " Reason: " + reason
	}
	s.notify(ctx, studentNotice(reg.StudentID, model.NotificationRegistration, "Exam registration rejected", msg))
	return rejected, nil
}

func (s *RegistrationService) reviewable(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, rbac.CanReviewRegistration(p, reg), "review_registration"); err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationPending {
		return nil, ErrInvalidTransition
	}
	return reg, nil
}

func (s *RegistrationService) notify(ctx context.Context, n ...model.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n...); err != nil {
		s.log.Warn().Err(err).Msg("Failed to queue notification")
	}
}

// CandidateNumber derives the base candidate number: the first three
// alphanumerics of the exam type, the exam year and the first six hex digits
// of the student id, upper-cased. GCE, 2026, a1b2c3… gives GCE2026A1B2C3.
func CandidateNumber(examType string, year int, studentID uuid.UUID) string {
	var prefix strings.Builder
	for _, r := range strings.ToUpper(examType) {
		if prefix.Len() == 3 {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			prefix.WriteRune(r)
		}
	}
	for prefix.Len() < 3 {
		prefix.WriteByte('X')
	}
	return fmt.Sprintf("%s%04d%s", prefix.String(), year, strings.ToUpper(studentID.String()[:6]))
}

func withSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
