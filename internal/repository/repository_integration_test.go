//go:build integration

package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a Postgres container, applies the migrations and
// returns a pool connected to it.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("oerms_test"),
		postgres.WithUsername("oerms"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", strings.Replace(dsn, "postgres://", "pgx5://", 1))
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	_, _ = m.Close()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type seeded struct {
	institution *model.Institution
	ministry    *model.Staff
	student     *model.Student
	exam        *model.Exam
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()

	inst := &model.Institution{Name: "Lakeside High", Type: model.InstitutionSchool, Region: "North"}
	require.NoError(t, NewInstitutionRepository(pool).Create(ctx, inst))

	ministry := &model.Staff{
		Role: model.RoleMinistryAdmin, FirstName: "Mina", LastName: "Stry",
		Email: "ministry@oerms.test", PasswordHash: "x", IsActive: true,
	}
	require.NoError(t, NewStaffRepository(pool).Create(ctx, ministry))

	student := &model.Student{
		InstitutionID: inst.ID, StudentNumber: "LH-0001", FirstName: "Ada", LastName: "Obi",
		Email: "ada@lakeside.test", PasswordHash: "x", IsActive: true,
	}
	require.NoError(t, NewStudentRepository(pool).Create(ctx, student))

	deadline := time.Now().Add(24 * time.Hour)
	exam := &model.Exam{
		Code: "GCE-2026", Title: "General Certificate", Type: "GCE",
		ExamDate: time.Now().Add(30 * 24 * time.Hour), RegistrationDeadline: &deadline,
		Status: model.ExamStatusActive, CreatedBy: ministry.ID,
	}
	require.NoError(t, NewExamRepository(pool).Create(ctx, exam))

	return seeded{institution: inst, ministry: ministry, student: student, exam: exam}
}

func TestAccountLookupAcrossTables(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewAccountRepository(pool)

	acct, err := repo.FindAccountByEmail(ctx, "ADA@lakeside.test")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, acct.Role)
	assert.Equal(t, s.student.ID, acct.ID)
	require.NotNil(t, acct.InstitutionID)
	assert.Equal(t, s.institution.ID, *acct.InstitutionID)

	acct, err = repo.FindAccount(ctx, model.RoleMinistryAdmin, s.ministry.ID)
	require.NoError(t, err)
	assert.Nil(t, acct.InstitutionID)

	_, err = repo.FindAccount(ctx, model.RoleExaminationOfficer, s.ministry.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	taken, err := repo.EmailTaken(ctx, "Ministry@OERMS.test")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, repo.SetActive(ctx, model.RoleStudent, s.student.ID, false))
	acct, err = repo.FindAccount(ctx, model.RoleStudent, s.student.ID)
	require.NoError(t, err)
	assert.False(t, acct.IsActive)

	dup := &model.Staff{Role: model.RoleExaminationOfficer, FirstName: "A", LastName: "B", Email: "ministry@oerms.test", PasswordHash: "x"}
	assert.ErrorIs(t, NewStaffRepository(pool).Create(ctx, dup), ErrDuplicateEmail)
}

func TestEmailUniqueAcrossAccountTables(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	students := NewStudentRepository(pool)

	clash := &model.Student{
		InstitutionID: s.institution.ID, StudentNumber: "LH-0002", FirstName: "Min", LastName: "Istry",
		Email: "MINISTRY@oerms.test", PasswordHash: "x", IsActive: true,
	}
	assert.ErrorIs(t, students.Create(ctx, clash), ErrDuplicateEmail)

	batch := []model.Student{{
		InstitutionID: s.institution.ID, StudentNumber: "LH-0003", FirstName: "Bo", LastName: "Ade",
		Email: "Ada@Lakeside.test", PasswordHash: "x", IsActive: true,
	}}
	_, err := students.CreateBatch(ctx, batch)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = pool.Exec(ctx, `UPDATE students SET email = 'ada.obi@lakeside.test' WHERE id = $1`, s.student.ID)
	require.NoError(t, err)
	officer := &model.Staff{Role: model.RoleExaminationOfficer, FirstName: "A", LastName: "B", Email: "ada@lakeside.test", PasswordHash: "x"}
	require.NoError(t, NewStaffRepository(pool).Create(ctx, officer), "renamed address is released")

	acct, err := NewAccountRepository(pool).FindAccountByEmail(ctx, "ADA.OBI@lakeside.test")
	require.NoError(t, err)
	assert.Equal(t, s.student.ID, acct.ID)
}

func TestRegistrationTransitions(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool)

	reg := &model.Registration{StudentID: s.student.ID, ExamID: s.exam.ID, InstitutionID: s.institution.ID}
	require.NoError(t, repo.Create(ctx, reg))
	assert.Equal(t, model.RegistrationPending, reg.Status)

	dup := &model.Registration{StudentID: s.student.ID, ExamID: s.exam.ID, InstitutionID: s.institution.ID}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateRegistration)

	approved, err := repo.Approve(ctx, reg.ID, "GCE2026ABCDEF", s.ministry.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationApproved, approved.Status)
	require.NotNil(t, approved.CandidateNumber)
	assert.Equal(t, "GCE2026ABCDEF", *approved.CandidateNumber)

	taken, err := repo.CandidateNumberTaken(ctx, "GCE2026ABCDEF")
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = repo.Reject(ctx, reg.ID, "late", s.ministry.ID, time.Now())
	assert.ErrorIs(t, err, ErrStaleStatus)

	_, err = repo.Approve(ctx, uuid.New(), "GCE2026XXXXXX", s.ministry.ID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := repo.ListPaginated(ctx, model.RegistrationFilter{InstitutionID: &s.institution.ID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestResultPublication(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	regs := NewRegistrationRepository(pool)
	repo := NewResultRepository(pool)

	reg := &model.Registration{StudentID: s.student.ID, ExamID: s.exam.ID, InstitutionID: s.institution.ID}
	require.NoError(t, regs.Create(ctx, reg))
	_, err := regs.Approve(ctx, reg.ID, "GCE2026ABCDEF", s.ministry.ID, time.Now())
	require.NoError(t, err)

	res := &model.Result{
		StudentID: s.student.ID, ExamID: s.exam.ID, InstitutionID: s.institution.ID,
		Scores: map[string]float64{"math": 81.5}, Grade: "A", Status: model.ResultPass, UploadedBy: s.ministry.ID,
	}
	require.NoError(t, repo.Create(ctx, res))
	assert.False(t, res.IsPublished)

	hits, err := repo.SearchPublished(ctx, model.PublicSearchQuery{CandidateNumber: "GCE2026ABCDEF"}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "unpublished results are not searchable")

	pub, students, err := repo.PublishExam(ctx, s.exam.ID, s.ministry.ID, "first batch", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.TotalResults)
	assert.Equal(t, []uuid.UUID{s.student.ID}, students)

	changed, err := repo.PublishOne(ctx, res.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	hits, err = repo.SearchPublished(ctx, model.PublicSearchQuery{CandidateNumber: "GCE2026ABCDEF"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ada Obi", hits[0].StudentName)
	assert.Equal(t, "Lakeside High", hits[0].InstitutionName)

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.InDelta(t, 81.5, got.Scores["math"], 0.001)

	pubs, err := repo.ListPublications(ctx, s.exam.ID)
	require.NoError(t, err)
	assert.Len(t, pubs, 1)

	n, err := repo.CountPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInstitutionDeleteBlockedByStudents(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewInstitutionRepository(pool)

	assert.ErrorIs(t, repo.Delete(ctx, s.institution.ID), ErrInUse)

	report, err := repo.Report(ctx, s.institution.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ActiveStudents)
}

func TestNotificationInbox(t *testing.T) {
	pool := setupTestDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewNotificationRepository(pool)

	batch := []model.Notification{
		{ID: uuid.New(), RecipientRole: model.RoleStudent, RecipientID: s.student.ID, Type: model.NotificationResult, Title: "a", Message: "a", CreatedAt: time.Now()},
		{ID: uuid.New(), RecipientRole: model.RoleStudent, RecipientID: s.student.ID, Type: model.NotificationResult, Title: "b", Message: "b", CreatedAt: time.Now()},
	}
	require.NoError(t, repo.InsertBatch(ctx, batch))
	require.NoError(t, repo.Insert(ctx, batch[0]), "re-insert is ignored")

	require.NoError(t, repo.MarkRead(ctx, model.RoleStudent, s.student.ID, batch[0].ID))
	assert.ErrorIs(t, repo.MarkRead(ctx, model.RoleMinistryAdmin, s.student.ID, batch[1].ID), ErrNotFound)

	unread, total, err := repo.ListForRecipient(ctx, model.RoleStudent, s.student.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, batch[1].ID, unread[0].ID)

	n, err := repo.MarkAllRead(ctx, model.RoleStudent, s.student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
