package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const registrationColumns = `id, student_id, exam_id, institution_id, status, candidate_number, verified_by, verified_at,
	reject_reason, registered_at`

// RegistrationRepository handles exam registration data access.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

func scanRegistration(row pgx.Row, r *model.Registration) error {
	return row.Scan(&r.ID, &r.StudentID, &r.ExamID, &r.InstitutionID, &r.Status, &r.CandidateNumber,
		&r.VerifiedBy, &r.VerifiedAt, &r.RejectReason, &r.RegisteredAt)
}

// GetByID retrieves a registration by ID.
func (r *RegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Registration, error) {
	reg := &model.Registration{}
	if err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id), reg); err != nil {
		return nil, mapError(err)
	}
	return reg, nil
}

// GetByStudentExam retrieves the registration of a student for an exam.
func (r *RegistrationRepository) GetByStudentExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Registration, error) {
	reg := &model.Registration{}
	if err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE student_id = $1 AND exam_id = $2`,
		studentID, examID), reg); err != nil {
		return nil, mapError(err)
	}
	return reg, nil
}

// ListPaginated retrieves registrations matching f, newest first.
func (r *RegistrationRepository) ListPaginated(ctx context.Context, f model.RegistrationFilter, limit, offset int) ([]model.Registration, int, error) {
	var w where
	if f.StudentID != nil {
		w.add("student_id = ?", *f.StudentID)
	}
	if f.ExamID != nil {
		w.add("exam_id = ?", *f.ExamID)
	}
	if f.InstitutionID != nil {
		w.add("institution_id = ?", *f.InstitutionID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations`+w.String()+` ORDER BY registered_at DESC`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, 0, err
		}
		out = append(out, reg)
	}
	return out, total, rows.Err()
}

// Create inserts a pending registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO registrations (student_id, exam_id, institution_id, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id, status, registered_at`,
		reg.StudentID, reg.ExamID, reg.InstitutionID,
	).Scan(&reg.ID, &reg.Status, &reg.RegisteredAt)
	return mapError(err)
}

// CountByExam counts registrations for an exam, whatever their status.
func (r *RegistrationRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE exam_id = $1`, examID).Scan(&n)
	return n, err
}

// CandidateNumberTaken reports whether number has already been issued.
func (r *RegistrationRepository) CandidateNumberTaken(ctx context.Context, number string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE candidate_number = $1)`, number).Scan(&taken)
	return taken, err
}

// Approve moves a pending registration to approved and stores its candidate
// number. ErrStaleStatus means the registration was not pending.
func (r *RegistrationRepository) Approve(ctx context.Context, id uuid.UUID, candidateNumber string, by uuid.UUID, at time.Time) (*model.Registration, error) {
	reg := &model.Registration{}
	err := scanRegistration(r.pool.QueryRow(ctx,
		`UPDATE registrations SET status = 'approved', candidate_number = $1, verified_by = $2, verified_at = $3
		 WHERE id = $4 AND status = 'pending'
		 RETURNING `+registrationColumns,
		candidateNumber, by, at, id), reg)
	return r.transitionResult(ctx, id, reg, err)
}

// Reject moves a pending registration to rejected.
func (r *RegistrationRepository) Reject(ctx context.Context, id uuid.UUID, reason string, by uuid.UUID, at time.Time) (*model.Registration, error) {
	reg := &model.Registration{}
	err := scanRegistration(r.pool.QueryRow(ctx,
		`UPDATE registrations SET status = 'rejected', reject_reason = $1, verified_by = $2, verified_at = $3
		 WHERE id = $4 AND status = 'pending'
		 RETURNING `+registrationColumns,
		reason, by, at, id), reg)
	return r.transitionResult(ctx, id, reg, err)
}

func (r *RegistrationRepository) transitionResult(ctx context.Context, id uuid.UUID, reg *model.Registration, err error) (*model.Registration, error) {
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError(err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleStatus
}
