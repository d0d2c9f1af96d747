package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

// AccountRepository reads credentials across the students and staff tables.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindAccount loads the account with the given role and id.
func (r *AccountRepository) FindAccount(ctx context.Context, role model.Role, id uuid.UUID) (*model.Account, error) {
	a := &model.Account{}
	var err error
	if role == model.RoleStudent {
		a.Role = model.RoleStudent
		var inst uuid.UUID
		err = r.pool.QueryRow(ctx,
			`SELECT id, email, password_hash, first_name, last_name, institution_id, is_active
			 FROM students WHERE id = $1`, id,
		).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &inst, &a.IsActive)
		a.InstitutionID = &inst
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT id, role, email, password_hash, first_name, last_name, institution_id, is_active
			 FROM staff_accounts WHERE id = $1 AND role = $2`, id, string(role),
		).Scan(&a.ID, &a.Role, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.InstitutionID, &a.IsActive)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// FindAccountByEmail resolves the email through account_emails, which holds
// at most one account per lower-cased address.
func (r *AccountRepository) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	a := &model.Account{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, 'student'::varchar AS role, s.email, s.password_hash, s.first_name, s.last_name, s.institution_id, s.is_active
		 FROM account_emails ae JOIN students s ON s.id = ae.account_id
		 WHERE ae.email = lower($1) AND ae.account_kind = 'student'
		 UNION ALL
		 SELECT st.id, st.role, st.email, st.password_hash, st.first_name, st.last_name, st.institution_id, st.is_active
		 FROM account_emails ae JOIN staff_accounts st ON st.id = ae.account_id
		 WHERE ae.email = lower($1) AND ae.account_kind = 'staff'`, email,
	).Scan(&a.ID, &a.Role, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.InstitutionID, &a.IsActive)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// EmailTaken reports whether any account already uses email. Inserts are
// still guarded by the account_emails key; this only gives an early answer.
func (r *AccountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM account_emails WHERE email = lower($1))`, email,
	).Scan(&taken)
	return taken, err
}

// UpdatePassword stores a new password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, role model.Role, id uuid.UUID, hash string) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE `+accountTable(role)+` SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		hash, id,
	))
}

// SetActive toggles the is_active flag.
func (r *AccountRepository) SetActive(ctx context.Context, role model.Role, id uuid.UUID, active bool) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE `+accountTable(role)+` SET is_active = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		active, id,
	))
}

func accountTable(role model.Role) string {
	if role == model.RoleStudent {
		return "students"
	}
	return "staff_accounts"
}
