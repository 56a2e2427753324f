package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/curastock/curastock/internal/jobs"
	"github.com/curastock/curastock/internal/shared"
)

const (
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// IdempotencyCleanupPayload sets the retention window for the sweep.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for the key sweep.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	payload := IdempotencyCleanupPayload{Retention: retention}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupJob deletes idempotency keys past the retention window.
type IdempotencyCleanupJob struct {
	Store    *shared.IdempotencyStore
	Logger   *slog.Logger
	Tracking *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger, tracking *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Tracking: tracking}
}

// Handle processes idempotency cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 7 * 24 * time.Hour
	}
	tracker := j.Tracking.Track("idempotency_cleanup")
	return tracker.End(j.run(ctx, payload.Retention))
}

func (j *IdempotencyCleanupJob) run(ctx context.Context, retention time.Duration) error {
	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		j.logger().Error("idempotency cleanup failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("idempotency cleanup done", slog.Int64("removed", removed))
	return nil
}

func (j *IdempotencyCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
