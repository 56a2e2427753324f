package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/curastock/curastock/internal/jobs"
	"github.com/curastock/curastock/internal/observability"
	"github.com/curastock/curastock/internal/reports"
)

const (
	// TaskLowStockScan triggers the periodic low-stock sweep.
	TaskLowStockScan = "stock:lowstock_scan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock sweep.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	payload := LowStockScanPayload{ScheduledFor: at}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanJob scans the registry for depleted items and raises alerts.
type LowStockScanJob struct {
	Reports   *reports.Service
	Client    *asynq.Client
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Tracking  *jobmetrics.Metrics
	Recipient string
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(reportsSvc *reports.Service, client *asynq.Client, logger *slog.Logger, metrics *observability.Metrics, tracking *jobmetrics.Metrics, recipient string) *LowStockScanJob {
	return &LowStockScanJob{
		Reports:   reportsSvc,
		Client:    client,
		Logger:    logger,
		Metrics:   metrics,
		Tracking:  tracking,
		Recipient: recipient,
	}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("lowstock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Tracking.Track("lowstock_scan")
	return tracker.End(j.run(ctx))
}

func (j *LowStockScanJob) run(ctx context.Context) error {
	items, err := j.Reports.LowStockItems(ctx)
	if err != nil {
		j.logger().Error("low-stock scan failed", slog.Any("error", err))
		return err
	}
	j.Metrics.SetLowStockItems(len(items))
	if len(items) == 0 {
		j.logger().Info("low-stock scan clean")
		return nil
	}

	j.logger().Warn("low-stock items detected", slog.Int("count", len(items)))
	if j.Client == nil || j.Recipient == "" {
		return nil
	}

	body := &strings.Builder{}
	fmt.Fprintf(body, "%d supply item(s) need restocking:\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(body, "- %s (%s): %d on hand, threshold %d\n", item.Name, item.Code, item.OnHand, item.Threshold)
	}
	task, err := NewSendAlertTask(SendAlertPayload{
		To:      j.Recipient,
		Subject: fmt.Sprintf("Low stock alert: %d item(s)", len(items)),
		Body:    body.String(),
	})
	if err != nil {
		return err
	}
	if _, err := j.Client.EnqueueContext(ctx, task); err != nil {
		j.logger().Error("enqueue low-stock alert", slog.Any("error", err))
		return err
	}
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
