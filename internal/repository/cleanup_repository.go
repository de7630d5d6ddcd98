package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/learnhub/api/internal/model"
	"gorm.io/gorm"
)

// CleanupRepository is the dead-letter list of artifact prefixes that could
// not be deleted.
type CleanupRepository struct {
	db *gorm.DB
}

func NewCleanupRepository(db *gorm.DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

func (r *CleanupRepository) Record(ctx context.Context, contentID, prefix, errMsg string) error {
	failure := &model.CleanupFailure{
		ID:        uuid.New().String(),
		ContentID: contentID,
		Prefix:    prefix,
		Error:     errMsg,
		Attempts:  1,
	}
	if err := r.db.WithContext(ctx).Create(failure).Error; err != nil {
		return fmt.Errorf("insert cleanup failure: %w", err)
	}
	return nil
}

// ListUnresolved returns failures that still have attempts left, oldest first.
func (r *CleanupRepository) ListUnresolved(ctx context.Context, maxAttempts, limit int) ([]model.CleanupFailure, error) {
	var failures []model.CleanupFailure
	q := r.db.WithContext(ctx).Where("resolved = ?", false)
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	if err := q.Order("created_at").Limit(limit).Find(&failures).Error; err != nil {
		return nil, fmt.Errorf("list cleanup failures: %w", err)
	}
	return failures, nil
}

func (r *CleanupRepository) MarkResolved(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&model.CleanupFailure{}).
		Where("id = ?", id).
		Update("resolved", true).Error
	if err != nil {
		return fmt.Errorf("resolve cleanup failure %s: %w", id, err)
	}
	return nil
}

func (r *CleanupRepository) MarkAttempt(ctx context.Context, id, errMsg string) error {
	err := r.db.WithContext(ctx).Model(&model.CleanupFailure{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts": gorm.Expr("attempts + 1"),
			"error":    errMsg,
		}).Error
	if err != nil {
		return fmt.Errorf("update cleanup failure %s: %w", id, err)
	}
	return nil
}
