package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/learnhub/api/internal/service"
)

// CommandExecutor runs a queued operator command by id.
type CommandExecutor interface {
	Execute(ctx context.Context, commandID string) error
}

// CommandWorker processes transcode command tasks
type CommandWorker struct {
	commands CommandExecutor
	logger   *slog.Logger
}

// NewCommandWorker creates a new command worker
func NewCommandWorker(commands CommandExecutor, logger *slog.Logger) *CommandWorker {
	return &CommandWorker{
		commands: commands,
		logger:   logger,
	}
}

// ProcessTask handles transcode command processing
func (w *CommandWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.CommandPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.CommandID == "" {
		return fmt.Errorf("invalid command payload %q: %w", t.Payload(), asynq.SkipRetry)
	}

	w.logger.Info("executing transcode command", "command_id", payload.CommandID)
	if err := w.commands.Execute(ctx, payload.CommandID); err != nil {
		return fmt.Errorf("execute command %s: %v: %w", payload.CommandID, err, asynq.SkipRetry)
	}
	return nil
}
