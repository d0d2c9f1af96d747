package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

// NotificationRepository handles in-app notification data access.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// InsertBatch writes many notifications in one COPY.
func (r *NotificationRepository) InsertBatch(ctx context.Context, batch []model.Notification) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"notifications"},
		[]string{"id", "recipient_role", "recipient_id", "type", "title", "message", "is_read", "created_at"},
		pgx.CopyFromSlice(len(batch), func(i int) ([]interface{}, error) {
			n := batch[i]
			return []interface{}{n.ID, string(n.RecipientRole), n.RecipientID, string(n.Type), n.Title, n.Message, n.IsRead, n.CreatedAt}, nil
		}),
	)
	return err
}

// Insert writes one notification. Used when a batch insert fails.
func (r *NotificationRepository) Insert(ctx context.Context, n model.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, recipient_role, recipient_id, type, title, message, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		n.ID, string(n.RecipientRole), n.RecipientID, string(n.Type), n.Title, n.Message, n.IsRead, n.CreatedAt,
	)
	return err
}

// ListForRecipient lists a recipient's notifications, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, role model.Role, id uuid.UUID, unreadOnly bool, limit, offset int) ([]model.Notification, int, error) {
	var w where
	w.add("recipient_role = ?", string(role))
	w.add("recipient_id = ?", id)
	if unreadOnly {
		w.raw("NOT is_read")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT id, recipient_role, recipient_id, type, title, message, is_read, created_at
		 FROM notifications`+w.String()+` ORDER BY created_at DESC`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Notification, error) {
		var n model.Notification
		err := row.Scan(&n.ID, &n.RecipientRole, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
		return n, err
	})
	return out, total, err
}

// MarkRead marks one of the recipient's notifications read.
func (r *NotificationRepository) MarkRead(ctx context.Context, role model.Role, recipientID, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_role = $2 AND recipient_id = $3`,
		id, string(role), recipientID,
	))
}

// MarkAllRead marks every notification of the recipient read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, role model.Role, recipientID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_role = $1 AND recipient_id = $2 AND NOT is_read`,
		string(role), recipientID,
	)
	return tag.RowsAffected(), err
}
