package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// InstitutionService handles institution business logic.
type InstitutionService struct {
	repo     *repository.InstitutionRepository
	rdb      *redis.Client
	authz    Authorizer
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewInstitutionService creates a new InstitutionService.
func NewInstitutionService(repo *repository.InstitutionRepository, rdb *redis.Client, authz Authorizer, cacheTTL time.Duration, log zerolog.Logger) *InstitutionService {
	return &InstitutionService{
		repo:     repo,
		rdb:      rdb,
		authz:    authz,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "institution_service").Logger(),
	}
}

// Create registers a new, unverified institution.
func (s *InstitutionService) Create(ctx context.Context, req model.InstitutionRequest) (*model.Institution, error) {
	inst := &model.Institution{
		Name:    req.Name,
		Type:    req.Type,
		Region:  req.Region,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// List returns institutions visible to the caller. Institutional admins see
// their own, students see verified ones, everyone else sees all.
func (s *InstitutionService) List(ctx context.Context, p *model.Principal, f model.InstitutionFilter, page Page) ([]model.Institution, int, error) {
	switch {
	case p.Role == model.RoleInstitutionalAdmin:
		f.ID = p.InstitutionID
	case p.Role == model.RoleStudent:
		f.VerifiedOnly = true
	}
	items, total, err := s.repo.ListPaginated(ctx, f, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Institution{}
	}
	return items, total, err
}

// Get returns one institution the caller may view.
func (s *InstitutionService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Institution, error) {
	allowed := rbac.CanViewInstitution(p, id) || p.HasPermission(model.PermissionReadAllData)
	if err := s.authz.Authorize(p, allowed, "view_institution"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Update modifies an institution's details.
func (s *InstitutionService) Update(ctx context.Context, id uuid.UUID, req model.InstitutionRequest) (*model.Institution, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inst.Name = req.Name
	inst.Type = req.Type
	inst.Region = req.Region
	inst.Address = req.Address
	inst.Email = req.Email
	inst.Phone = req.Phone
	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Verify marks an institution verified.
func (s *InstitutionService) Verify(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Institution, error) {
	if err := s.authz.Authorize(p, rbac.CanVerifyInstitution(p), "verify_institution"); err != nil {
		return nil, err
	}
	if err := s.repo.Verify(ctx, id, p.ID, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.log.Info().Str("institution_id", id.String()).Str("verified_by", p.ID.String()).Msg("Institution verified")
	return s.repo.GetByID(ctx, id)
}

// Delete removes an institution with no remaining students or staff.
func (s *InstitutionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Report aggregates an institution's activity. Reports are cached briefly.
func (s *InstitutionService) Report(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.InstitutionReport, error) {
	if err := s.authz.Authorize(p, rbac.CanAccessInstitution(p, id), "institution_report"); err != nil {
		return nil, err
	}

	key := config.CacheKey.InstitutionReportKey(id)
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var rep model.InstitutionReport
		if json.Unmarshal(raw, &rep) == nil {
			return &rep, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Report cache read failed")
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rep, err := s.repo.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(rep); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Report cache write failed")
		}
	}
	return rep, nil
}
