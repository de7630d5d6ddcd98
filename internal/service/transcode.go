package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

// recordWriter applies partial updates and reports every successful write.
type recordWriter struct {
	store    ContentStore
	notifier StatusNotifier
}

func (w recordWriter) update(ctx context.Context, content *model.Content, upd model.ContentUpdate) error {
	if err := w.store.Update(ctx, content.ID, upd); err != nil {
		return err
	}
	content.Apply(upd)
	w.notifier.ContentChanged(ctx, content)
	return nil
}

// updateIfJobName writes only while the record still holds jobName.
func (w recordWriter) updateIfJobName(ctx context.Context, content *model.Content, jobName string, upd model.ContentUpdate) (bool, error) {
	ok, err := w.store.UpdateIfJobName(ctx, content.ID, jobName, upd)
	if err != nil || !ok {
		return ok, err
	}
	content.Apply(upd)
	w.notifier.ContentChanged(ctx, content)
	return true, nil
}

// submitter starts transcode attempts. It is shared by the upload path and
// the manual re-transcode path.
type submitter struct {
	recordWriter
	jobs   client.JobService
	paths  Paths
	logger *slog.Logger
}

// start marks the record processing, submits the job and stores the job
// name. extra is merged into the processing write and the failure write.
// A submission error is reflected on the record and returned.
func (s *submitter) start(ctx context.Context, content *model.Content, extra model.ContentUpdate) (string, error) {
	processing := model.ContentUpdate{}.
		Set(model.FieldTranscodeStatus, model.TranscodeStatusProcessing).
		Set(model.FieldTranscodeAttempt, content.TranscodeAttempt+1).
		Set(model.FieldCancelRequested, false).
		Clear(model.FieldErrorMessage).
		Clear(model.FieldTranscodeJobName)
	if content.TranscodeJobName != "" {
		processing.Set(model.FieldSupersededJobName, content.TranscodeJobName)
	}
	merge(processing, extra)
	if err := s.update(ctx, content, processing); err != nil {
		return "", fmt.Errorf("mark processing: %w", err)
	}

	job := BuildJobConfig(s.paths.InputURI(content.Path), s.paths.OutputURI(content.Path))
	name, err := s.jobs.CreateJob(ctx, job)
	if err != nil {
		failed := model.ContentUpdate{}.
			Set(model.FieldTranscodeStatus, model.TranscodeStatusFailed).
			Set(model.FieldErrorMessage, err.Error())
		merge(failed, extra)
		if werr := s.update(ctx, content, failed); werr != nil {
			s.logger.Error("failed to record job submission failure",
				"content_id", content.ID, "error", werr)
		}
		return "", fmt.Errorf("create job: %w", err)
	}

	stored, err := s.updateIfJobName(ctx, content, "", model.ContentUpdate{}.Set(model.FieldTranscodeJobName, name))
	if err != nil {
		return name, fmt.Errorf("store job name: %w", err)
	}
	if !stored {
		// A newer attempt already owns the record.
		s.logger.Warn("transcode attempt superseded, deleting orphaned job",
			"content_id", content.ID, "job", name)
		if derr := s.jobs.DeleteJob(ctx, name); derr != nil {
			s.logger.Warn("failed to delete orphaned job", "job", name, "error", derr)
		}
		return name, nil
	}
	s.logger.Info("transcode job submitted",
		"content_id", content.ID, "job", name, "attempt", content.TranscodeAttempt)
	return name, nil
}

func merge(dst, src model.ContentUpdate) {
	for field, value := range src {
		dst[field] = value
	}
}
