package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockmanagement/internal/stockevent"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueStockEvents carries stock events to the processing pipeline.
	QueueStockEvents = "stock_events"
	// TaskStockEventProcess processes one derived stock event.
	TaskStockEventProcess = "stock:event.process"
	// TaskIdempotencyCleanup prunes old submission keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// NewStockEventTask constructs the task for one event. The source key doubles as task id.
func NewStockEventTask(env stockevent.Envelope) (*asynq.Task, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockEventProcess, body,
		asynq.Queue(QueueStockEvents),
		asynq.TaskID(env.SourceKey),
		asynq.MaxRetry(10),
	), nil
}

// EventStore persists processed stock events.
type EventStore interface {
	Insert(ctx context.Context, env stockevent.Envelope) (bool, error)
}

// EventObserver counts events reaching a pipeline stage.
type EventObserver interface {
	ObserveStockEvents(stage string, n int)
}

// StockEventJob stores stock events taken off the queue.
type StockEventJob struct {
	store   EventStore
	logger  *slog.Logger
	metrics EventObserver
}

// NewStockEventJob constructs the job.
func NewStockEventJob(store EventStore, logger *slog.Logger, metrics EventObserver) *StockEventJob {
	return &StockEventJob{store: store, logger: logger, metrics: metrics}
}

// Handle processes TaskStockEventProcess tasks.
func (j *StockEventJob) Handle(ctx context.Context, t *asynq.Task) error {
	var env stockevent.Envelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return fmt.Errorf("jobs: decode stock event: %v: %w", err, asynq.SkipRetry)
	}
	if env.SourceKey == "" {
		return fmt.Errorf("jobs: stock event without source key: %w", asynq.SkipRetry)
	}
	inserted, err := j.store.Insert(ctx, env)
	if err != nil {
		return err
	}
	if inserted && j.metrics != nil {
		j.metrics.ObserveStockEvents("processed", 1)
	}
	if j.logger != nil {
		j.logger.Info("stock event processed",
			slog.String("source_key", env.SourceKey),
			slog.String("orderable_id", env.Event.OrderableID.String()),
			slog.Int("quantity", env.Event.Quantity),
			slog.Bool("duplicate", !inserted))
	}
	return nil
}

// IdempotencyPruner removes stale submission keys.
type IdempotencyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the scheduled cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupJob prunes the idempotency store.
type IdempotencyCleanupJob struct {
	store  IdempotencyPruner
	logger *slog.Logger
}

// NewIdempotencyCleanupJob constructs the job.
func NewIdempotencyCleanupJob(store IdempotencyPruner, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		return errors.Join(errors.New("jobs: retention must be positive"), asynq.SkipRetry)
	}
	removed, err := j.store.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("idempotency keys pruned", slog.Int64("removed", removed))
	}
	return nil
}
