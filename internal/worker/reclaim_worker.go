package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/learnhub/api/internal/service"
)

const reclaimBatchSize = 100

// Reclaimer retries cleanup failures.
type Reclaimer interface {
	Reclaim(ctx context.Context, maxAttempts, limit int) (int, error)
}

// ReclaimWorker retries artifact deletes that failed when their records
// were removed
type ReclaimWorker struct {
	cleanup     Reclaimer
	maxAttempts int
	logger      *slog.Logger
}

func NewReclaimWorker(cleanup Reclaimer, maxAttempts int, logger *slog.Logger) *ReclaimWorker {
	return &ReclaimWorker{
		cleanup:     cleanup,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// ProcessTask handles one reclaim sweep
func (w *ReclaimWorker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	resolved, err := w.cleanup.Reclaim(ctx, w.maxAttempts, reclaimBatchSize)
	if err != nil {
		return fmt.Errorf("reclaim sweep: %w", err)
	}
	if resolved > 0 {
		w.logger.Info("reclaimed transcoded artifacts", "resolved", resolved)
	}
	return nil
}

// Schedule registers the periodic reclaim sweep. Overlapping sweeps are
// suppressed with a uniqueness window equal to the interval.
func Schedule(scheduler *asynq.Scheduler, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return scheduler.Register(
		fmt.Sprintf("@every %s", interval),
		asynq.NewTask(service.TaskTypeCleanupReclaim, nil),
		asynq.Queue(service.QueueCleanup),
		asynq.MaxRetry(0),
		asynq.Unique(interval),
	)
}
