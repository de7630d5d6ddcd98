package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

// MetadataTranscode is the upload metadata key that opts a video into transcoding.
const MetadataTranscode = "transcode"

// UploadTrigger turns finalized uploads under the intake prefix into
// transcode jobs.
type UploadTrigger struct {
	submitter *submitter
	store     ContentStore
	paths     Paths
	logger    *slog.Logger
}

func NewUploadTrigger(store ContentStore, jobs client.JobService, paths Paths, notifier StatusNotifier, logger *slog.Logger) *UploadTrigger {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	logger = loggerOrDefault(logger)
	return &UploadTrigger{
		submitter: &submitter{
			recordWriter: recordWriter{store: store, notifier: notifier},
			jobs:         jobs,
			paths:        paths,
			logger:       logger,
		},
		store:  store,
		paths:  paths,
		logger: logger,
	}
}

// HandleObjectFinalized never fails: every outcome is logged or written to
// the record.
func (t *UploadTrigger) HandleObjectFinalized(ctx context.Context, evt *model.StorageObjectEvent) {
	if evt == nil || !t.paths.IsIntake(evt.Name) {
		return
	}
	if !transcodeRequested(evt.Metadata) {
		return
	}

	content, err := t.store.FindByPath(ctx, evt.Name)
	if err != nil {
		if errors.Is(err, model.ErrContentNotFound) {
			t.logger.Error("no content record for uploaded video", "path", evt.Name)
		} else {
			t.logger.Error("failed to look up content record", "path", evt.Name, "error", err)
		}
		return
	}

	if _, err := t.submitter.start(ctx, content, nil); err != nil {
		t.logger.Error("transcode submission failed",
			"content_id", content.ID, "path", evt.Name, "error", err)
	}
}

func transcodeRequested(metadata map[string]string) bool {
	raw, ok := metadata[MetadataTranscode]
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
