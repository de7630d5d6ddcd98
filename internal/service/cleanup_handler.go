package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

// CleanupHandler removes transcoded artifacts of deleted video records.
// Failed deletes go to the failure store and are retried by Reclaim.
type CleanupHandler struct {
	storage  client.StorageClient
	failures CleanupFailureStore
	paths    Paths
	logger   *slog.Logger
}

func NewCleanupHandler(storage client.StorageClient, failures CleanupFailureStore, paths Paths, logger *slog.Logger) *CleanupHandler {
	return &CleanupHandler{
		storage:  storage,
		failures: failures,
		paths:    paths,
		logger:   loggerOrDefault(logger),
	}
}

// HandleDelete receives the final snapshot of a deleted record. Errors are
// logged and recorded, never returned.
func (h *CleanupHandler) HandleDelete(ctx context.Context, content *model.Content) {
	if content == nil || !content.IsVideo() || content.Path == "" {
		return
	}
	prefix := h.paths.OutputPrefix(content.Path)
	if h.storage == nil {
		h.logger.Warn("object storage not configured, skipping artifact cleanup",
			"content_id", content.ID, "prefix", prefix)
		return
	}

	deleted, err := h.storage.DeletePrefix(ctx, prefix)
	if err != nil {
		h.logger.Error("failed to delete transcoded artifacts",
			"content_id", content.ID, "prefix", prefix, "error", err)
		if h.failures == nil {
			return
		}
		if rerr := h.failures.Record(ctx, content.ID, prefix, err.Error()); rerr != nil {
			h.logger.Error("failed to record cleanup failure",
				"content_id", content.ID, "prefix", prefix, "error", rerr)
		}
		return
	}
	h.logger.Info("transcoded artifacts deleted",
		"content_id", content.ID, "prefix", prefix, "objects", deleted)
}

// Reclaim retries recorded cleanup failures that have attempts left and
// returns how many were resolved.
func (h *CleanupHandler) Reclaim(ctx context.Context, maxAttempts, limit int) (int, error) {
	if h.storage == nil || h.failures == nil {
		return 0, nil
	}
	pending, err := h.failures.ListUnresolved(ctx, maxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("list cleanup failures: %w", err)
	}

	resolved := 0
	for _, failure := range pending {
		if _, err := h.storage.DeletePrefix(ctx, failure.Prefix); err != nil {
			h.logger.Warn("cleanup retry failed",
				"content_id", failure.ContentID, "prefix", failure.Prefix, "attempt", failure.Attempts+1, "error", err)
			if merr := h.failures.MarkAttempt(ctx, failure.ID, err.Error()); merr != nil {
				return resolved, merr
			}
			continue
		}
		if err := h.failures.MarkResolved(ctx, failure.ID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
