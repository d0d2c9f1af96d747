package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const publicSearchLimit = 50

// ErrSearchKeyRequired is returned when a public search names no key.
var ErrSearchKeyRequired = errors.New("at least one of candidate_number, student_number or exam_id is required")

// PublicService serves anonymous lookups.
type PublicService struct {
	results      *repository.ResultRepository
	exams        *repository.ExamRepository
	institutions *repository.InstitutionRepository
	students     *repository.StudentRepository
	rdb          *redis.Client
	statsTTL     time.Duration
	log          zerolog.Logger
}

// NewPublicService creates a new PublicService.
func NewPublicService(
	results *repository.ResultRepository,
	exams *repository.ExamRepository,
	institutions *repository.InstitutionRepository,
	students *repository.StudentRepository,
	rdb *redis.Client,
	statsTTL time.Duration,
	log zerolog.Logger,
) *PublicService {
	return &PublicService{
		results:      results,
		exams:        exams,
		institutions: institutions,
		students:     students,
		rdb:          rdb,
		statsTTL:     statsTTL,
		log:          log.With().Str("component", "public_service").Logger(),
	}
}

// SearchResults returns published results matching q.
func (s *PublicService) SearchResults(ctx context.Context, q model.PublicSearchQuery) ([]model.PublicResult, error) {
	if q.Empty() {
		return nil, ErrSearchKeyRequired
	}
	items, err := s.results.SearchPublished(ctx, q, publicSearchLimit)
	if items == nil {
		items = []model.PublicResult{}
	}
	return items, err
}

// ActiveExams lists exams currently in the active status.
func (s *PublicService) ActiveExams(ctx context.Context, page Page) ([]model.Exam, int, error) {
	items, total, err := s.exams.ListPaginated(ctx, model.ExamFilter{Status: model.ExamStatusActive}, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Exam{}
	}
	return items, total, err
}

// VerifiedInstitutions lists verified institutions.
func (s *PublicService) VerifiedInstitutions(ctx context.Context, search string, page Page) ([]model.Institution, int, error) {
	items, total, err := s.institutions.ListPaginated(ctx, model.InstitutionFilter{VerifiedOnly: true, Search: search}, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Institution{}
	}
	return items, total, err
}

// Stats returns the landing page counters, computed concurrently and cached
// in Redis.
func (s *PublicService) Stats(ctx context.Context) (*model.PublicStats, error) {
	key := config.CacheKey.PublicStatsKey()
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached model.PublicStats
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Stats cache read failed")
	}

	var stats model.PublicStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.VerifiedInstitutions, err = s.institutions.CountVerified(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveStudents, err = s.students.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveExams, err = s.exams.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PublishedResults, err = s.results.CountPublished(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.statsTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Stats cache write failed")
		}
	}
	return &stats, nil
}
