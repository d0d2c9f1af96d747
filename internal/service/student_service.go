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

// StudentService handles student business logic.
type StudentService struct {
	students     *repository.StudentRepository
	accounts     *repository.AccountRepository
	institutions *repository.InstitutionRepository
	auth         *AuthService
	notifier     Notifier
	log          zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository, accounts *repository.AccountRepository, institutions *repository.InstitutionRepository, auth *AuthService, notifier Notifier, log zerolog.Logger) *StudentService {
	return &StudentService{
		students:     students,
		accounts:     accounts,
		institutions: institutions,
		auth:         auth,
		notifier:     notifier,
		log:          log.With().Str("component", "student_service").Logger(),
	}
}

// Enroll creates a student. Institutional admins enroll into their own
// institution; the ministry names one.
func (s *StudentService) Enroll(ctx context.Context, p *model.Principal, req model.EnrollStudentRequest) (*model.Student, error) {
	instID, err := enrollmentInstitution(p, req.InstitutionID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(p, rbac.CanAccessInstitution(p, instID), "enroll_student"); err != nil {
		return nil, err
	}
	if _, err := s.institutions.GetByID(ctx, instID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.accounts.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	st := &model.Student{
		InstitutionID: instID,
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         email,
		Phone:         req.Phone,
		DateOfBirth:   req.DateOfBirth,
		PasswordHash:  hash,
		IsActive:      true,
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		welcome := studentNotice(st.ID, model.NotificationAccount, "Welcome", "Your student account has been created.")
		if err := s.notifier.Notify(ctx, welcome); err != nil {
			s.log.Warn().Err(err).Msg("Failed to queue welcome notification")
		}
	}
	return st, nil
}

func enrollmentInstitution(p *model.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if p.InstitutionID != nil {
		if requested != nil && *requested != *p.InstitutionID {
			return uuid.Nil, rbac.ErrForbidden
		}
		return *p.InstitutionID, nil
	}
	if requested == nil {
		return uuid.Nil, ErrInstitutionRequired
	}
	return *requested, nil
}

// List returns the students visible to the caller.
func (s *StudentService) List(ctx context.Context, p *model.Principal, f model.StudentFilter, page Page) ([]model.Student, int, error) {
	if p.Role == model.RoleInstitutionalAdmin {
		f.InstitutionID = p.InstitutionID
	}
	items, total, err := s.students.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Student{}
	}
	return items, total, err
}

// Get returns a student the caller may access.
func (s *StudentService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(p, rbac.CanAccessStudent(p, ref(st)), "view_student"); err != nil {
		return nil, err
	}
	return st, nil
}

// Update modifies a student's profile.
func (s *StudentService) Update(ctx context.Context, p *model.Principal, id uuid.UUID, req model.UpdateStudentRequest) (*model.Student, error) {
	st, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	st.FirstName = req.FirstName
	st.LastName = req.LastName
	st.Phone = req.Phone
	st.DateOfBirth = req.DateOfBirth
	if err := s.students.Update(ctx, st); err != nil {
		return nil, err
	}
	s.auth.InvalidateAccount(st.ID)
	return st, nil
}

// SetActive activates or deactivates a student. Students cannot change
// their own status.
func (s *StudentService) SetActive(ctx context.Context, p *model.Principal, id uuid.UUID, active bool) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := p.Role != model.RoleStudent && rbac.CanAccessStudent(p, ref(st))
	if err := s.auth.Authorize(p, allowed, "set_student_status"); err != nil {
		return nil, err
	}
	if err := s.accounts.SetActive(ctx, model.RoleStudent, st.ID, active); err != nil {
		return nil, err
	}
	s.auth.InvalidateAccount(st.ID)
	st.IsActive = active
	s.log.Info().Str("student_id", id.String()).Bool("active", active).Str("by", p.ID.String()).Msg("Student status changed")
	return st, nil
}

func ref(st *model.Student) rbac.StudentRef {
	return rbac.StudentRef{ID: st.ID, InstitutionID: st.InstitutionID}
}
