package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const institutionColumns = `id, name, type, region, address, email, phone, is_verified, verified_by, verified_at, created_at, updated_at`

// InstitutionRepository handles institution data access.
type InstitutionRepository struct {
	pool *pgxpool.Pool
}

// NewInstitutionRepository creates a new InstitutionRepository.
func NewInstitutionRepository(pool *pgxpool.Pool) *InstitutionRepository {
	return &InstitutionRepository{pool: pool}
}

func scanInstitution(row pgx.Row, i *model.Institution) error {
	return row.Scan(&i.ID, &i.Name, &i.Type, &i.Region, &i.Address, &i.Email, &i.Phone,
		&i.IsVerified, &i.VerifiedBy, &i.VerifiedAt, &i.CreatedAt, &i.UpdatedAt)
}

// GetByID retrieves an institution by ID.
func (r *InstitutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Institution, error) {
	i := &model.Institution{}
	if err := scanInstitution(r.pool.QueryRow(ctx,
		`SELECT `+institutionColumns+` FROM institutions WHERE id = $1`, id), i); err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

// ListPaginated retrieves institutions matching f.
func (r *InstitutionRepository) ListPaginated(ctx context.Context, f model.InstitutionFilter, limit, offset int) ([]model.Institution, int, error) {
	var w where
	if f.ID != nil {
		w.add("id = ?", *f.ID)
	}
	if f.Region != "" {
		w.add("region = ?", f.Region)
	}
	if f.VerifiedOnly {
		w.raw("is_verified")
	}
	if f.Search != "" {
		w.add("name ILIKE ?", "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM institutions`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+institutionColumns+` FROM institutions`+w.String()+` ORDER BY name`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Institution
	for rows.Next() {
		var i model.Institution
		if err := scanInstitution(rows, &i); err != nil {
			return nil, 0, err
		}
		out = append(out, i)
	}
	return out, total, rows.Err()
}

// Create inserts a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, i *model.Institution) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO institutions (name, type, region, address, email, phone)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_verified, created_at, updated_at`,
		i.Name, i.Type, i.Region, i.Address, i.Email, i.Phone,
	).Scan(&i.ID, &i.IsVerified, &i.CreatedAt, &i.UpdatedAt)
	return mapError(err)
}

// Update modifies an institution's descriptive fields.
func (r *InstitutionRepository) Update(ctx context.Context, i *model.Institution) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE institutions SET name = $1, type = $2, region = $3, address = $4, email = $5, phone = $6,
		 updated_at = CURRENT_TIMESTAMP WHERE id = $7`,
		i.Name, i.Type, i.Region, i.Address, i.Email, i.Phone, i.ID,
	))
}

// Verify marks an institution verified by the given account.
func (r *InstitutionRepository) Verify(ctx context.Context, id, by uuid.UUID, at time.Time) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE institutions SET is_verified = TRUE, verified_by = $1, verified_at = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		by, at, id,
	))
}

// Delete removes an institution. Referencing students block the delete.
func (r *InstitutionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx, `DELETE FROM institutions WHERE id = $1`, id))
}

// CountVerified counts verified institutions.
func (r *InstitutionRepository) CountVerified(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM institutions WHERE is_verified`).Scan(&n)
	return n, err
}

// CountByVerification counts all institutions and the verified ones.
func (r *InstitutionRepository) CountByVerification(ctx context.Context) (total, verified int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_verified) FROM institutions`).Scan(&total, &verified)
	return total, verified, err
}

// Report aggregates students, registrations and results for one institution.
func (r *InstitutionRepository) Report(ctx context.Context, id uuid.UUID) (*model.InstitutionReport, error) {
	rep := &model.InstitutionReport{
		InstitutionID:   id,
		Registrations:   map[string]int{},
		ResultsByStatus: map[string]int{},
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM students WHERE institution_id = $1 AND is_active),
		   (SELECT COUNT(*) FROM results WHERE institution_id = $1 AND is_published)`, id,
	).Scan(&rep.ActiveStudents, &rep.PublishedResults); err != nil {
		return nil, err
	}

	if err := r.countInto(ctx, rep.Registrations,
		`SELECT status, COUNT(*) FROM registrations WHERE institution_id = $1 GROUP BY status`, id); err != nil {
		return nil, err
	}
	if err := r.countInto(ctx, rep.ResultsByStatus,
		`SELECT status, COUNT(*) FROM results WHERE institution_id = $1 GROUP BY status`, id); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *InstitutionRepository) countInto(ctx context.Context, dst map[string]int, query string, id uuid.UUID) error {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}
