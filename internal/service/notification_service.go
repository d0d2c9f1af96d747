package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Notifier queues notifications for delivery.
type Notifier interface {
	Notify(ctx context.Context, notifications ...model.Notification) error
}

// NotificationService queues notifications on Redis and reads the persisted
// inbox. The notification worker drains the queue.
type NotificationService struct {
	repo *repository.NotificationRepository
	rdb  *redis.Client
	now  func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client) *NotificationService {
	return &NotificationService{repo: repo, rdb: rdb, now: time.Now}
}

// Notify pushes notifications onto the persistence queue in one pipeline.
func (s *NotificationService) Notify(ctx context.Context, notifications ...model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now().UTC()
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.NotificationQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue notifications: %w", err)
	}
	return nil
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, p *model.Principal, unreadOnly bool, page Page) ([]model.Notification, int, error) {
	items, total, err := s.repo.ListForRecipient(ctx, p.Role, p.ID, unreadOnly, page.Limit(), page.Offset())
	if items == nil {
		items = []model.Notification{}
	}
	return items, total, err
}

// MarkRead marks one of the caller's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, p.Role, p.ID, id)
}

// MarkAllRead marks all of the caller's notifications read.
func (s *NotificationService) MarkAllRead(ctx context.Context, p *model.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, p.Role, p.ID)
}

// Subscribe opens the caller's live notification channel.
func (s *NotificationService) Subscribe(ctx context.Context, p *model.Principal) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.NotificationChannel(string(p.Role), p.ID))
}

func studentNotice(studentID uuid.UUID, kind model.NotificationType, title, message string) model.Notification {
	return model.Notification{
		RecipientRole: model.RoleStudent,
		RecipientID:   studentID,
		Type:          kind,
		Title:         title,
		Message:       message,
	}
}
