package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/learnhub/api/internal/model"
)

// DefaultFailureMessage is stored when a failed job carries no error detail.
const DefaultFailureMessage = "Transcoding failed"

// CompletionListener applies job lifecycle notifications to content records.
type CompletionListener struct {
	recordWriter
	paths  Paths
	dedup  NotificationDeduper
	logger *slog.Logger
}

func NewCompletionListener(store ContentStore, paths Paths, dedup NotificationDeduper, notifier StatusNotifier, logger *slog.Logger) *CompletionListener {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if dedup == nil {
		dedup = nopDeduper{}
	}
	return &CompletionListener{
		recordWriter: recordWriter{store: store, notifier: notifier},
		paths:        paths,
		dedup:        dedup,
		logger:       loggerOrDefault(logger),
	}
}

// Handle decodes a raw notification payload, either the bare notification or
// a push envelope carrying it base64 encoded. Malformed payloads are logged
// and dropped.
func (l *CompletionListener) Handle(ctx context.Context, payload []byte) {
	notification, err := DecodeNotification(payload)
	if err != nil {
		l.logger.Error("dropping malformed job notification", "error", err)
		return
	}
	l.HandleNotification(ctx, notification)
}

// HandleNotification moves the matching record to succeeded or failed.
// Notifications for a job the record no longer references, or for a job
// whose cancellation was requested, are discarded.
func (l *CompletionListener) HandleNotification(ctx context.Context, n *model.JobNotification) {
	job := n.Job
	var upd model.ContentUpdate
	switch job.State {
	case model.JobStateSucceeded:
		if job.OutputURI == "" {
			l.logger.Warn("succeeded notification without output uri", "job", job.Name, "input_uri", job.InputURI)
			return
		}
		upd = model.ContentUpdate{}.
			Set(model.FieldTranscodeStatus, model.TranscodeStatusSucceeded).
			Set(model.FieldHLSURL, ManifestURL(job.OutputURI)).
			Clear(model.FieldErrorMessage)
	case model.JobStateFailed:
		detail := job.ErrorDetail()
		if detail == "" {
			detail = DefaultFailureMessage
		}
		upd = model.ContentUpdate{}.
			Set(model.FieldTranscodeStatus, model.TranscodeStatusFailed).
			Set(model.FieldErrorMessage, detail)
	case model.JobStateRunning, model.JobStatePending:
		l.logger.Debug("ignoring non-terminal job notification", "job", job.Name, "state", job.State)
		return
	default:
		l.logger.Warn("ignoring job notification with unknown state", "job", job.Name, "state", job.State)
		return
	}

	// Jobs without a name cannot be told apart across attempts, so only
	// named notifications are deduplicated.
	dedupKey := ""
	if job.Name != "" {
		dedupKey = "transcode:notification:" + job.Name + ":" + job.State
		if !l.dedup.First(ctx, dedupKey) {
			l.logger.Info("dropping duplicate job notification", "job", job.Name, "state", job.State)
			return
		}
	}

	if err := l.apply(ctx, job, upd); err != nil {
		l.logger.Error("failed to apply job notification",
			"job", job.Name, "state", job.State, "error", err)
		if dedupKey != "" {
			l.dedup.Forget(ctx, dedupKey)
		}
	}
}

func (l *CompletionListener) apply(ctx context.Context, job model.JobDescription, upd model.ContentUpdate) error {
	path := l.paths.ObjectPath(job.InputURI)
	content, err := l.store.FindByPath(ctx, path)
	if err != nil {
		if errors.Is(err, model.ErrContentNotFound) {
			l.logger.Error("no content record for job notification",
				"job", job.Name, "state", job.State, "path", path)
			return nil
		}
		return err
	}

	if job.Name != "" && content.TranscodeJobName != "" && content.TranscodeJobName != job.Name {
		l.logger.Info("discarding stale job notification",
			"content_id", content.ID, "job", job.Name, "current_job", content.TranscodeJobName)
		return nil
	}
	if job.Name != "" && job.Name == content.SupersededJobName {
		l.logger.Info("discarding notification for superseded job",
			"content_id", content.ID, "job", job.Name)
		return nil
	}
	if content.CancelRequested {
		l.logger.Info("discarding notification for cancelled transcode",
			"content_id", content.ID, "job", job.Name, "state", job.State)
		return nil
	}

	ok, err := l.updateIfJobName(ctx, content, content.TranscodeJobName, upd)
	if err != nil {
		return err
	}
	if !ok {
		l.logger.Info("record changed while applying notification, discarding",
			"content_id", content.ID, "job", job.Name)
		return nil
	}
	l.logger.Info("transcode finished",
		"content_id", content.ID, "job", job.Name, "status", content.TranscodeStatus)
	return nil
}

// DecodeNotification accepts a bare notification or a push envelope.
func DecodeNotification(payload []byte) (*model.JobNotification, error) {
	var envelope model.PushEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Message.Data != "" {
		data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			return nil, fmt.Errorf("decode envelope data: %w", err)
		}
		payload = data
	}

	var n model.JobNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	if n.Job.State == "" {
		return nil, errors.New("notification has no job state")
	}
	return &n, nil
}
