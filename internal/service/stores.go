package service

import (
	"context"
	"log/slog"

	"github.com/learnhub/api/internal/model"
)

// ContentStore is the record store every handler reads and writes.
type ContentStore interface {
	Create(ctx context.Context, content *model.Content) error
	Get(ctx context.Context, id string) (*model.Content, error)
	FindByPath(ctx context.Context, path string) (*model.Content, error)
	Update(ctx context.Context, id string, upd model.ContentUpdate) error
	UpdateIfJobName(ctx context.Context, id, jobName string, upd model.ContentUpdate) (bool, error)
	Delete(ctx context.Context, id string) (*model.Content, error)
}

// CommandStore persists operator commands.
type CommandStore interface {
	Create(ctx context.Context, cmd *model.TranscodeCommand) error
	Get(ctx context.Context, id string) (*model.TranscodeCommand, error)
	ListByContent(ctx context.Context, contentID string, limit int) ([]model.TranscodeCommand, error)
	Claim(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id, errMsg string) error
}

// CleanupFailureStore is the dead-letter list for failed artifact deletes.
type CleanupFailureStore interface {
	Record(ctx context.Context, contentID, prefix, errMsg string) error
	ListUnresolved(ctx context.Context, maxAttempts, limit int) ([]model.CleanupFailure, error)
	MarkResolved(ctx context.Context, id string) error
	MarkAttempt(ctx context.Context, id, errMsg string) error
}

// NotificationDeduper remembers notifications that were already handled.
// First reports true only for the first delivery of key. Forget releases a
// key whose handling did not complete.
type NotificationDeduper interface {
	First(ctx context.Context, key string) bool
	Forget(ctx context.Context, key string)
}

// StatusNotifier is told about every record the pipeline mutates.
type StatusNotifier interface {
	ContentChanged(ctx context.Context, content *model.Content)
}

// Notifiers fans a change out to several notifiers.
type Notifiers []StatusNotifier

func (n Notifiers) ContentChanged(ctx context.Context, content *model.Content) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.ContentChanged(ctx, content)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) ContentChanged(context.Context, *model.Content) {}

type nopDeduper struct{}

func (nopDeduper) First(context.Context, string) bool { return true }
func (nopDeduper) Forget(context.Context, string)     {}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
