package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const examColumns = `id, code, title, type, description, exam_date, registration_deadline, status, created_by, created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Code, &e.Title, &e.Type, &e.Description, &e.ExamDate,
		&e.RegistrationDeadline, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id), e); err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// ListPaginated retrieves exams matching f, most recent first.
func (r *ExamRepository) ListPaginated(ctx context.Context, f model.ExamFilter, limit, offset int) ([]model.Exam, int, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.Year > 0 {
		w.add("EXTRACT(YEAR FROM exam_date) = ?", f.Year)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+examColumns+` FROM exams`+w.String()+` ORDER BY exam_date DESC`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (code, title, type, description, exam_date, registration_deadline, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Code, e.Title, e.Type, e.Description, e.ExamDate, e.RegistrationDeadline, string(e.Status), e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err)
}

// Update modifies an exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE exams SET code = $1, title = $2, type = $3, description = $4, exam_date = $5,
		 registration_deadline = $6, status = $7, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8`,
		e.Code, e.Title, e.Type, e.Description, e.ExamDate, e.RegistrationDeadline, string(e.Status), e.ID,
	))
}

// Delete removes an exam with its registrations and results.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id))
}

// CountActive counts exams in the active status.
func (r *ExamRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams WHERE status = 'active'`).Scan(&n)
	return n, err
}
