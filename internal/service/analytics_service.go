package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ResultAggregator computes result counters.
type ResultAggregator interface {
	Summary(ctx context.Context, f model.ResultFilter) (*model.ResultSummary, error)
	InstitutionBreakdown(ctx context.Context, examID uuid.UUID) ([]model.InstitutionCount, error)
}

// RegistrationCounter counts an exam's registrations.
type RegistrationCounter interface {
	CountByExam(ctx context.Context, examID uuid.UUID) (int, error)
}

// StaffCounter counts staff accounts per role.
type StaffCounter interface {
	CountPerRole(ctx context.Context) (map[model.Role]int, error)
}

// StudentCounter counts students by account state.
type StudentCounter interface {
	CountByActivity(ctx context.Context) (active, inactive int, err error)
}

// InstitutionCounter counts institutions by verification state.
type InstitutionCounter interface {
	CountByVerification(ctx context.Context) (total, verified int, err error)
}

// AnalyticsService serves the exam, result and system counters.
type AnalyticsService struct {
	results      ResultAggregator
	regs         RegistrationCounter
	exams        ExamReader
	staff        StaffCounter
	students     StudentCounter
	institutions InstitutionCounter
	authz        Authorizer
	log          zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	results ResultAggregator,
	regs RegistrationCounter,
	exams ExamReader,
	staff StaffCounter,
	students StudentCounter,
	institutions InstitutionCounter,
	authz Authorizer,
	log zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		results:      results,
		regs:         regs,
		exams:        exams,
		staff:        staff,
		students:     students,
		institutions: institutions,
		authz:        authz,
		log:          log.With().Str("component", "analytics_service").Logger(),
	}
}

// ExamStatistics returns registration and result counters for one exam.
func (s *AnalyticsService) ExamStatistics(ctx context.Context, p *model.Principal, examID uuid.UUID) (*model.ExamStatistics, error) {
	allowed := p != nil && (p.HasPermission(model.PermissionViewSystemAnalytics) ||
		p.HasPermission(model.PermissionManageExams) ||
		p.HasPermission(model.PermissionScheduleExams))
	if err := s.authz.Authorize(p, allowed, "view_exam_statistics"); err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	stats := &model.ExamStatistics{Exam: exam}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.RegistrationsCount, err = s.regs.CountByExam(gctx, exam.ID)
		return err
	})
	g.Go(func() error {
		sum, err := s.results.Summary(gctx, model.ResultFilter{ExamID: &exam.ID})
		if err != nil {
			return err
		}
		stats.Results = withPassRate(*sum)
		return nil
	})
	g.Go(func() (err error) {
		stats.InstitutionBreakdown, err = s.results.InstitutionBreakdown(gctx, exam.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.InstitutionBreakdown == nil {
		stats.InstitutionBreakdown = []model.InstitutionCount{}
	}
	return stats, nil
}

// ResultStatistics summarises results matching f. Institution-scoped callers
// only ever see their own institution.
func (s *AnalyticsService) ResultStatistics(ctx context.Context, p *model.Principal, f model.ResultFilter) (*model.ResultSummary, error) {
	f.StudentID = nil
	f.PublishedOnly = false

	switch {
	case p == nil:
		return nil, s.authz.Authorize(p, false, "view_result_statistics")
	case p.HasPermission(model.PermissionReadAllData):
	case p.InstitutionID != nil && p.HasPermission(model.PermissionViewInstitutionResults):
		if f.InstitutionID != nil && *f.InstitutionID != *p.InstitutionID {
			return nil, s.authz.Authorize(p, false, "view_result_statistics")
		}
		f.InstitutionID = p.InstitutionID
	default:
		return nil, s.authz.Authorize(p, false, "view_result_statistics")
	}

	sum, err := s.results.Summary(ctx, f)
	if err != nil {
		return nil, err
	}
	out := withPassRate(*sum)
	return &out, nil
}

// SystemAnalytics returns the ministry-wide counters.
func (s *AnalyticsService) SystemAnalytics(ctx context.Context, p *model.Principal) (*model.SystemAnalytics, error) {
	if err := s.authz.Authorize(p, p != nil && p.HasPermission(model.PermissionViewSystemAnalytics), "view_system_analytics"); err != nil {
		return nil, err
	}

	var (
		out      model.SystemAnalytics
		staff    map[model.Role]int
		inactive int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		staff, err = s.staff.CountPerRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Activity.ActiveStudents, inactive, err = s.students.CountByActivity(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Institutions.Total, out.Institutions.Verified, err = s.institutions.CountByVerification(gctx)
		return err
	})
	g.Go(func() error {
		sum, err := s.results.Summary(gctx, model.ResultFilter{})
		if err != nil {
			return err
		}
		out.Results = withPassRate(*sum)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Activity.InactiveStudents = inactive
	out.Institutions.Pending = out.Institutions.Total - out.Institutions.Verified
	out.TotalUsers = make(map[model.Role]int, len(model.AllRoles))
	for _, role := range model.StaffRoles {
		out.TotalUsers[role] = staff[role]
	}
	out.TotalUsers[model.RoleStudent] = out.Activity.ActiveStudents + inactive

	s.log.Debug().Int("results", out.Results.Total).Msg("System analytics computed")
	return &out, nil
}

// withPassRate fills PassRate as a percentage rounded to two decimals.
func withPassRate(sum model.ResultSummary) model.ResultSummary {
	sum.PassRate = 0
	if sum.Total > 0 {
		sum.PassRate = math.Round(float64(sum.Passed)*10000/float64(sum.Total)) / 100
	}
	return sum
}
