package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────────────────────────────────

type auditStub struct {
	denied []string
}

func (a *auditStub) Authorize(p *model.Principal, allowed bool, action string) error {
	if allowed {
		return nil
	}
	if p == nil {
		return rbac.ErrUnauthenticated
	}
	a.denied = append(a.denied, action)
	return rbac.ErrForbidden
}

type notifierStub struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *notifierStub) Notify(_ context.Context, ns ...model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ns...)
	return nil
}

type examMap map[uuid.UUID]*model.Exam

func (m examMap) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if e, ok := m[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

type studentMap map[uuid.UUID]*model.Student

func (m studentMap) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	if s, ok := m[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

type registrationMemory struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*model.Registration
	taken map[string]bool
}

func newRegistrationMemory() *registrationMemory {
	return &registrationMemory{rows: map[uuid.UUID]*model.Registration{}, taken: map[string]bool{}}
}

func (m *registrationMemory) GetByID(_ context.Context, id uuid.UUID) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *registrationMemory) GetByStudentExam(_ context.Context, studentID, examID uuid.UUID) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.StudentID == studentID && r.ExamID == examID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *registrationMemory) ListPaginated(_ context.Context, f model.RegistrationFilter, _, _ int) ([]model.Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, r := range m.rows {
		if f.StudentID != nil && r.StudentID != *f.StudentID {
			continue
		}
		if f.InstitutionID != nil && r.InstitutionID != *f.InstitutionID {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *registrationMemory) Create(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg.ID = uuid.New()
	reg.Status = model.RegistrationPending
	reg.RegisteredAt = baseTime
	cp := *reg
	m.rows[reg.ID] = &cp
	return nil
}

func (m *registrationMemory) CandidateNumberTaken(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taken[number], nil
}

func (m *registrationMemory) transition(id uuid.UUID, apply func(r *model.Registration)) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.Status != model.RegistrationPending {
		return nil, repository.ErrStaleStatus
	}
	apply(r)
	cp := *r
	return &cp, nil
}

func (m *registrationMemory) Approve(_ context.Context, id uuid.UUID, number string, by uuid.UUID, at time.Time) (*model.Registration, error) {
	return m.transition(id, func(r *model.Registration) {
		r.Status = model.RegistrationApproved
		r.CandidateNumber = &number
		r.VerifiedBy = &by
		r.VerifiedAt = &at
		m.taken[number] = true
	})
}

func (m *registrationMemory) Reject(_ context.Context, id uuid.UUID, reason string, by uuid.UUID, at time.Time) (*model.Registration, error) {
	return m.transition(id, func(r *model.Registration) {
		r.Status = model.RegistrationRejected
		r.RejectReason = reason
		r.VerifiedBy = &by
		r.VerifiedAt = &at
	})
}

// ────────────────────────────────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────────────────────────────────

type domainFixture struct {
	regs     *registrationMemory
	exams    examMap
	students studentMap
	notifier *notifierStub
	audit    *auditStub
	svc      *RegistrationService

	instA, instB uuid.UUID
	exam         *model.Exam
	student      *model.Student
}

func principalWith(role model.Role, id uuid.UUID, inst *uuid.UUID) *model.Principal {
	grants, _ := rbac.NewRegistry().GrantsFor(role)
	return &model.Principal{ID: id, Role: role, Permissions: grants, IsActive: true, InstitutionID: inst}
}

func newDomainFixture(t *testing.T) *domainFixture {
	t.Helper()
	f := &domainFixture{
		regs:     newRegistrationMemory(),
		exams:    examMap{},
		students: studentMap{},
		notifier: &notifierStub{},
		audit:    &auditStub{},
		instA:    uuid.New(),
		instB:    uuid.New(),
	}

	deadline := baseTime.Add(30 * 24 * time.Hour)
	f.exam = &model.Exam{
		ID:                   uuid.New(),
		Code:                 "GCE-OL-2026",
		Title:                "GCE Ordinary Level",
		Type:                 "gce",
		ExamDate:             time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		RegistrationDeadline: &deadline,
		Status:               model.ExamStatusActive,
	}
	f.exams[f.exam.ID] = f.exam

	f.student = &model.Student{
		ID:            uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000001"),
		InstitutionID: f.instA,
		StudentNumber: "STU-001",
		IsActive:      true,
	}
	f.students[f.student.ID] = f.student

	f.svc = NewRegistrationService(f.regs, f.exams, f.students, f.notifier, f.audit, zerolog.Nop())
	f.svc.now = func() time.Time { return baseTime }
	return f
}

func (f *domainFixture) studentPrincipal() *model.Principal {
	return principalWith(model.RoleStudent, f.student.ID, &f.instA)
}

func (f *domainFixture) adminOf(inst uuid.UUID) *model.Principal {
	return principalWith(model.RoleInstitutionalAdmin, uuid.New(), &inst)
}

// ────────────────────────────────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────────────────────────────────

func TestCandidateNumber(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000001")
	assert.Equal(t, "GCE2026A1B2C3", CandidateNumber("gce", 2026, id))
	assert.Equal(t, "BEP2025A1B2C3", CandidateNumber("B.E.P.C", 2025, id))
	assert.Equal(t, "ABX2024A1B2C3", CandidateNumber("a-b", 2024, id))
	assert.Equal(t, "GCE2026A1B2C3-2", withSuffix(CandidateNumber("GCE", 2026, id), 2))
	assert.Equal(t, "GCE2026A1B2C3", withSuffix(CandidateNumber("GCE", 2026, id), 1))
}

func TestStudentRegistersThemself(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationPending, reg.Status)
	assert.Equal(t, f.instA, reg.InstitutionID)
	assert.Nil(t, reg.CandidateNumber)

	_, err = f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestStudentCannotRegisterSomeoneElse(t *testing.T) {
	f := newDomainFixture(t)
	other := uuid.New()
	_, err := f.svc.Register(context.Background(), f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID, StudentID: &other})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestAdminRegistersOnlyOwnStudents(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()
	sid := f.student.ID

	_, err := f.svc.Register(ctx, f.adminOf(f.instB), model.RegisterRequest{ExamID: f.exam.ID, StudentID: &sid})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
	assert.Equal(t, []string{"register_student"}, f.audit.denied)

	_, err = f.svc.Register(ctx, f.adminOf(f.instA), model.RegisterRequest{ExamID: f.exam.ID})
	assert.ErrorIs(t, err, ErrStudentRequired)

	reg, err := f.svc.Register(ctx, f.adminOf(f.instA), model.RegisterRequest{ExamID: f.exam.ID, StudentID: &sid})
	require.NoError(t, err)
	assert.Equal(t, sid, reg.StudentID)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, sid, f.notifier.sent[0].RecipientID)
}

func TestRegisterRejectsClosedExamsAndInactiveStudents(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()

	f.svc.now = func() time.Time { return f.exam.RegistrationDeadline.Add(time.Second) }
	_, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	assert.ErrorIs(t, err, ErrExamNotOpen)

	f.svc.now = func() time.Time { return baseTime }
	f.exam.Status = model.ExamStatusCancelled
	_, err = f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	assert.ErrorIs(t, err, ErrExamNotOpen)

	f.exam.Status = model.ExamStatusActive
	f.students[f.student.ID].IsActive = false
	_, err = f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	assert.ErrorIs(t, err, ErrStudentInactive)

	_, err = f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: uuid.New()})
	assert.ErrorIs(t, err, ErrStudentInactive)
}

func TestApproveIssuesCandidateNumber(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	require.NoError(t, err)

	officer := principalWith(model.RoleExaminationOfficer, uuid.New(), nil)
	approved, err := f.svc.Approve(ctx, officer, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationApproved, approved.Status)
	require.NotNil(t, approved.CandidateNumber)
	assert.Equal(t, "GCE2026A1B2C3", *approved.CandidateNumber)
	assert.Equal(t, officer.ID, *approved.VerifiedBy)

	_, err = f.svc.Approve(ctx, officer, reg.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Reject(ctx, officer, reg.ID, "late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].Message, "GCE2026A1B2C3")
}

func TestApproveAppendsSuffixOnCollision(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()
	f.regs.taken["GCE2026A1B2C3"] = true
	f.regs.taken["GCE2026A1B2C3-2"] = true

	reg, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.adminOf(f.instA), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "GCE2026A1B2C3-3", *approved.CandidateNumber)
}

func TestReviewScoping(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	require.NoError(t, err)

	ministry := principalWith(model.RoleMinistryAdmin, uuid.New(), nil)
	for _, p := range []*model.Principal{f.adminOf(f.instB), f.studentPrincipal(), ministry} {
		_, err := f.svc.Approve(ctx, p, reg.ID)
		assert.ErrorIs(t, err, rbac.ErrForbidden, string(p.Role))
	}

	rejected, err := f.svc.Reject(ctx, f.adminOf(f.instA), reg.ID, "missing documents")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationRejected, rejected.Status)
	assert.Equal(t, "missing documents", rejected.RejectReason)
	assert.Nil(t, rejected.CandidateNumber)

	_, err = f.svc.Approve(ctx, f.adminOf(f.instA), reg.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListAndGetScoping(t *testing.T) {
	f := newDomainFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, f.studentPrincipal(), model.RegisterRequest{ExamID: f.exam.ID})
	require.NoError(t, err)

	items, total, err := f.svc.List(ctx, f.adminOf(f.instB), model.RegistrationFilter{}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)

	_, total, err = f.svc.List(ctx, f.studentPrincipal(), model.RegistrationFilter{}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, err = f.svc.Get(ctx, f.adminOf(f.instB), reg.ID)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	got, err := f.svc.Get(ctx, principalWith(model.RoleExaminationOfficer, uuid.New(), nil), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
}

func TestNewPage(t *testing.T) {
	p := NewPage(0, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 10, p.PerPage)
	assert.Equal(t, 100, NewPage(3, 500).PerPage)
	assert.Equal(t, 40, NewPage(3, 20).Offset())
	assert.Equal(t, 3, NewPage(1, 20).Pagination(41).TotalPages)
}
