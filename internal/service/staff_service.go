package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/rs/zerolog"
)

// StaffService manages ministry, institutional and examination office accounts.
type StaffService struct {
	staff        *repository.StaffRepository
	accounts     *repository.AccountRepository
	institutions *repository.InstitutionRepository
	auth         *AuthService
	log          zerolog.Logger
}

// NewStaffService creates a new StaffService.
func NewStaffService(staff *repository.StaffRepository, accounts *repository.AccountRepository, institutions *repository.InstitutionRepository, auth *AuthService, log zerolog.Logger) *StaffService {
	return &StaffService{
		staff:        staff,
		accounts:     accounts,
		institutions: institutions,
		auth:         auth,
		log:          log.With().Str("component", "staff_service").Logger(),
	}
}

// Create adds a staff account. Institutional admins must belong to an
// existing institution; other roles are unscoped.
func (s *StaffService) Create(ctx context.Context, req model.CreateStaffRequest) (*model.Staff, error) {
	if !req.Role.IsStaff() {
		return nil, ErrInvalidRole
	}
	inst := req.InstitutionID
	if req.Role == model.RoleInstitutionalAdmin {
		if inst == nil {
			return nil, ErrInstitutionRequired
		}
		if _, err := s.institutions.GetByID(ctx, *inst); err != nil {
			return nil, err
		}
	} else {
		inst = nil
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

	st := &model.Staff{
		Role:          req.Role,
		InstitutionID: inst,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         email,
		Phone:         req.Phone,
		PasswordHash:  hash,
		IsActive:      true,
	}
	if err := s.staff.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info().Str("staff_id", st.ID.String()).Str("role", string(st.Role)).Msg("Staff account created")
	return st, nil
}

// List returns staff accounts.
func (s *StaffService) List(ctx context.Context, f model.StaffFilter, page Page) ([]model.Staff, int, error) {
	items, total, err := s.staff.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Staff{}
	}
	return items, total, err
}

// Get returns one staff account.
func (s *StaffService) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	return s.staff.GetByID(ctx, id)
}

// SetActive activates or deactivates a staff account and drops its cached
// principals.
func (s *StaffService) SetActive(ctx context.Context, p *model.Principal, id uuid.UUID, active bool) (*model.Staff, error) {
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.ID == p.ID && !active {
		return nil, ErrSelfDeactivation
	}
	if err := s.accounts.SetActive(ctx, st.Role, st.ID, active); err != nil {
		return nil, err
	}
	s.auth.InvalidateAccount(st.ID)
	st.IsActive = active
	s.log.Info().Str("staff_id", id.String()).Bool("active", active).Str("by", p.ID.String()).Msg("Staff account status changed")
	return st, nil
}
