package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/learnhub/api/internal/model"
)

const (
	TaskTypeTranscodeCommand = "transcode:command"
	TaskTypeCleanupReclaim   = "cleanup:reclaim"

	QueueTranscode = "transcode"
	QueueCleanup   = "cleanup"
)

// TaskEnqueuer is the part of *asynq.Client the command service needs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CommandPayload is the asynq payload of a transcode command task.
type CommandPayload struct {
	CommandID string `json:"commandId"`
}

// CommandService queues operator commands and executes them from the worker.
type CommandService struct {
	contents ContentStore
	commands CommandStore
	queue    TaskEnqueuer
	trigger  *ManualTrigger
	logger   *slog.Logger
}

func NewCommandService(contents ContentStore, commands CommandStore, queue TaskEnqueuer, trigger *ManualTrigger, logger *slog.Logger) *CommandService {
	return &CommandService{
		contents: contents,
		commands: commands,
		queue:    queue,
		trigger:  trigger,
		logger:   loggerOrDefault(logger),
	}
}

// Request stores a pending command and enqueues it. The task id is the
// command id and the task is never retried, so a command runs at most once.
func (s *CommandService) Request(ctx context.Context, contentID string, kind model.CommandKind, requestedBy string) (*model.CommandResponse, error) {
	content, err := s.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !content.IsVideo() {
		return nil, model.ErrNotVideo
	}

	cmd := &model.TranscodeCommand{
		ID:          uuid.New().String(),
		ContentID:   content.ID,
		Kind:        kind,
		Status:      model.CommandStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now(),
	}
	if err := s.commands.Create(ctx, cmd); err != nil {
		return nil, fmt.Errorf("failed to save command: %w", err)
	}

	task, err := NewTranscodeCommandTask(cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	_, err = s.queue.Enqueue(task,
		asynq.Queue(QueueTranscode),
		asynq.TaskID(cmd.ID),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		if ferr := s.commands.Fail(ctx, cmd.ID, err.Error()); ferr != nil {
			s.logger.Error("failed to mark command failed", "command_id", cmd.ID, "error", ferr)
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Info("transcode command queued",
		"command_id", cmd.ID, "content_id", content.ID, "kind", kind, "requested_by", requestedBy)
	return &model.CommandResponse{
		CommandID: cmd.ID,
		ContentID: cmd.ContentID,
		Kind:      cmd.Kind,
		Status:    cmd.Status,
		CreatedAt: cmd.CreatedAt,
	}, nil
}

func (s *CommandService) List(ctx context.Context, contentID string) ([]model.TranscodeCommand, error) {
	if _, err := s.contents.Get(ctx, contentID); err != nil {
		return nil, err
	}
	return s.commands.ListByContent(ctx, contentID, 50)
}

// Execute claims a pending command and runs it. A command that was already
// claimed is skipped. Errors from the command itself are recorded on the
// command and not returned, so the queue never redelivers it.
func (s *CommandService) Execute(ctx context.Context, commandID string) error {
	cmd, err := s.commands.Get(ctx, commandID)
	if err != nil {
		return err
	}
	claimed, err := s.commands.Claim(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Info("command already consumed, skipping", "command_id", cmd.ID, "status", cmd.Status)
		return nil
	}

	runErr := s.run(ctx, cmd)
	if runErr == nil {
		return nil
	}
	s.logger.Error("transcode command failed",
		"command_id", cmd.ID, "content_id", cmd.ContentID, "kind", cmd.Kind, "error", runErr)
	if err := s.commands.Fail(ctx, cmd.ID, runErr.Error()); err != nil {
		s.logger.Error("failed to mark command failed", "command_id", cmd.ID, "error", err)
	}
	return nil
}

func (s *CommandService) run(ctx context.Context, cmd *model.TranscodeCommand) error {
	content, err := s.contents.Get(ctx, cmd.ContentID)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case model.CommandKindManual:
		return s.trigger.Retranscode(ctx, content)
	case model.CommandKindCancel:
		return s.trigger.Cancel(ctx, content)
	}
	return errors.New("unknown command kind " + string(cmd.Kind))
}

func NewTranscodeCommandTask(commandID string) (*asynq.Task, error) {
	data, err := json.Marshal(CommandPayload{CommandID: commandID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTranscodeCommand, data), nil
}
