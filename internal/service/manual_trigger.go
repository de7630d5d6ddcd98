package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

// ManualTrigger re-runs or cancels transcoding for an existing record.
type ManualTrigger struct {
	submitter *submitter
	jobs      client.JobService
	logger    *slog.Logger
}

func NewManualTrigger(store ContentStore, jobs client.JobService, paths Paths, notifier StatusNotifier, logger *slog.Logger) *ManualTrigger {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	logger = loggerOrDefault(logger)
	return &ManualTrigger{
		submitter: &submitter{
			recordWriter: recordWriter{store: store, notifier: notifier},
			jobs:         jobs,
			paths:        paths,
			logger:       logger,
		},
		jobs:   jobs,
		logger: logger,
	}
}

// HandleUpdate reacts to a record change only when transcodeTrigger moved to
// a command value in this change. Rewrites of the same value, including the
// handler's own clearing write, never act.
func (t *ManualTrigger) HandleUpdate(ctx context.Context, before, after *model.Content) {
	if after == nil {
		return
	}
	prev := model.TranscodeTriggerNone
	if before != nil {
		prev = before.TranscodeTrigger
	}
	if after.TranscodeTrigger == prev {
		return
	}

	var err error
	switch after.TranscodeTrigger {
	case model.TranscodeTriggerManual:
		err = t.Retranscode(ctx, after)
	case model.TranscodeTriggerCancel:
		err = t.Cancel(ctx, after)
	default:
		return
	}
	if err != nil {
		t.logger.Error("manual transcode command failed",
			"content_id", after.ID, "trigger", after.TranscodeTrigger, "error", err)
	}
}

// Retranscode submits a fresh job for the record's stored path. The trigger
// field is cleared on both the success and the failure write.
func (t *ManualTrigger) Retranscode(ctx context.Context, content *model.Content) error {
	clearTrigger := model.ContentUpdate{}.Clear(model.FieldTranscodeTrigger)
	if _, err := t.submitter.start(ctx, content, clearTrigger); err != nil {
		return fmt.Errorf("retranscode %s: %w", content.ID, err)
	}
	return nil
}

// Cancel deletes the outstanding job on a best-effort basis and always lands
// the record in the cancelled state. It returns model.ErrNoActiveJob when
// the record holds no job.
func (t *ManualTrigger) Cancel(ctx context.Context, content *model.Content) error {
	if content.TranscodeJobName == "" {
		t.logger.Warn("cancel requested without a transcode job", "content_id", content.ID)
		if err := t.submitter.update(ctx, content, model.ContentUpdate{}.Clear(model.FieldTranscodeTrigger)); err != nil {
			return fmt.Errorf("clear trigger: %w", err)
		}
		return model.ErrNoActiveJob
	}

	if err := t.jobs.DeleteJob(ctx, content.TranscodeJobName); err != nil {
		t.logger.Warn("failed to delete transcode job",
			"content_id", content.ID, "job", content.TranscodeJobName, "error", err)
	}

	cancelled := model.ContentUpdate{}.
		Set(model.FieldTranscodeStatus, model.TranscodeStatusCancelled).
		Set(model.FieldCancelRequested, true).
		Clear(model.FieldTranscodeTrigger).
		Clear(model.FieldErrorMessage)
	if err := t.submitter.update(ctx, content, cancelled); err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	t.logger.Info("transcode cancelled", "content_id", content.ID, "job", content.TranscodeJobName)
	return nil
}
