package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	NotificationBatchTimeout = 2 * time.Second
	NotificationPollTimeout  = 1 * time.Second
)

// NotificationWriter persists notifications.
type NotificationWriter interface {
	InsertBatch(ctx context.Context, batch []model.Notification) error
	Insert(ctx context.Context, n model.Notification) error
}

// NotificationWorker drains the notification queue into Postgres and fans
// each stored notification out to its recipient's live channel.
type NotificationWorker struct {
	store     NotificationWriter
	rdb       *redis.Client
	batchSize int
	log       zerolog.Logger
}

func NewNotificationWorker(store NotificationWriter, rdb *redis.Client, batchSize int, log zerolog.Logger) *NotificationWorker {
	if batchSize < 1 {
		batchSize = 100
	}
	return &NotificationWorker{
		store:     store,
		rdb:       rdb,
		batchSize: batchSize,
		log:       log.With().Str("component", "notification_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes whatever is buffered.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("NotificationWorker started")

	batch := make([]model.Notification, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= NotificationBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, NotificationPollTimeout, config.WorkerKey.NotificationQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var n model.Notification
			if err := json.Unmarshal([]byte(item[1]), &n); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				notificationsFlushed.WithLabelValues("dropped").Inc()
				continue
			}

			batch = append(batch, n)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-item fallback
// ----------------------------------------------------------------

func (w *NotificationWorker) flushSafe(ctx context.Context, batch []model.Notification) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk notification insert failed, using fallback")

		for _, n := range batch {
			if err := w.store.Insert(ctx, n); err != nil {
				w.log.Error().Err(err).Str("notification_id", n.ID.String()).Msg("Insert failed, requeueing")
				raw, _ := json.Marshal(n)
				w.rdb.RPush(ctx, config.WorkerKey.NotificationQueue, raw)
				notificationsFlushed.WithLabelValues("requeued").Inc()
				continue
			}
			notificationsFlushed.WithLabelValues("stored").Inc()
			w.publish(ctx, n)
		}
		return
	}
	notificationsFlushed.WithLabelValues("stored").Add(float64(len(batch)))

	pipe := w.rdb.Pipeline()
	for _, n := range batch {
		raw, _ := json.Marshal(n)
		pipe.Publish(ctx, config.CacheKey.NotificationChannel(string(n.RecipientRole), n.RecipientID), raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Notification fan-out failed")
	}
}

func (w *NotificationWorker) publish(ctx context.Context, n model.Notification) {
	raw, _ := json.Marshal(n)
	channel := config.CacheKey.NotificationChannel(string(n.RecipientRole), n.RecipientID)
	if err := w.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		w.log.Warn().Err(err).Str("channel", channel).Msg("Notification fan-out failed")
	}
}
