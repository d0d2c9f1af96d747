package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const staffColumns = `id, role, institution_id, first_name, last_name, email, phone, password_hash, is_active, created_at, updated_at`

// StaffRepository handles staff account data access.
type StaffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func scanStaff(row pgx.Row, s *model.Staff) error {
	return row.Scan(&s.ID, &s.Role, &s.InstitutionID, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.PasswordHash, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a staff account by ID.
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	s := &model.Staff{}
	if err := scanStaff(r.pool.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff_accounts WHERE id = $1`, id), s); err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// ListPaginated retrieves staff accounts matching f.
func (r *StaffRepository) ListPaginated(ctx context.Context, f model.StaffFilter, limit, offset int) ([]model.Staff, int, error) {
	var w where
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	if f.InstitutionID != nil {
		w.add("institution_id = ?", *f.InstitutionID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_accounts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+staffColumns+` FROM staff_accounts`+w.String()+` ORDER BY last_name, first_name`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := scanStaff(rows, &s); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Create inserts a new staff account. PasswordHash must already be hashed.
func (r *StaffRepository) Create(ctx context.Context, s *model.Staff) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO staff_accounts (role, institution_id, first_name, last_name, email, phone, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		string(s.Role), s.InstitutionID, s.FirstName, s.LastName, s.Email, s.Phone, s.PasswordHash, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

// CountPerRole counts staff accounts, active or not, per role.
func (r *StaffRepository) CountPerRole(ctx context.Context) (map[model.Role]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM staff_accounts GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Role]int, len(model.StaffRoles))
	for _, role := range model.StaffRoles {
		out[role] = 0
	}
	for rows.Next() {
		var role model.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}
