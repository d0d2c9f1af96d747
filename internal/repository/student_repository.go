package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const studentColumns = `id, institution_id, student_number, first_name, last_name, email, phone, date_of_birth,
	password_hash, is_active, created_at, updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row, s *model.Student) error {
	return row.Scan(&s.ID, &s.InstitutionID, &s.StudentNumber, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.DateOfBirth, &s.PasswordHash, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id), s); err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// GetByStudentNumber retrieves a student by their unique student number.
func (r *StudentRepository) GetByStudentNumber(ctx context.Context, number string) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE student_number = $1`, number), s); err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// ListPaginated retrieves students with pagination and optional filters.
func (r *StudentRepository) ListPaginated(ctx context.Context, f model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	var w where
	if f.InstitutionID != nil {
		w.add("institution_id = ?", *f.InstitutionID)
	}
	if f.Search != "" {
		w.add("(first_name ILIKE ? OR last_name ILIKE ? OR student_number ILIKE ?)", "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students`+w.String()+` ORDER BY last_name, first_name`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student. PasswordHash must already be hashed.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (institution_id, student_number, first_name, last_name, email, phone, date_of_birth, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		s.InstitutionID, s.StudentNumber, s.FirstName, s.LastName, s.Email, s.Phone, s.DateOfBirth, s.PasswordHash, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

// CreateBatch inserts many students in one COPY. Used by the seeder.
func (r *StudentRepository) CreateBatch(ctx context.Context, students []model.Student) (int64, error) {
	n, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"students"},
		[]string{"institution_id", "student_number", "first_name", "last_name", "email", "password_hash", "is_active"},
		pgx.CopyFromSlice(len(students), func(i int) ([]interface{}, error) {
			s := students[i]
			return []interface{}{s.InstitutionID, s.StudentNumber, s.FirstName, s.LastName, s.Email, s.PasswordHash, s.IsActive}, nil
		}),
	)
	return n, mapError(err)
}

// Update modifies a student's profile fields (excluding password).
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE students SET first_name = $1, last_name = $2, phone = $3, date_of_birth = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		s.FirstName, s.LastName, s.Phone, s.DateOfBirth, s.ID,
	))
}

// CountActive counts active students.
func (r *StudentRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE is_active`).Scan(&n)
	return n, err
}

// CountByActivity counts active and inactive students.
func (r *StudentRepository) CountByActivity(ctx context.Context) (active, inactive int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_active), COUNT(*) FILTER (WHERE NOT is_active) FROM students`,
	).Scan(&active, &inactive)
	return active, inactive, err
}
