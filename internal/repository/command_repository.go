package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/api/internal/model"
	"gorm.io/gorm"
)

// CommandRepository stores operator transcode commands.
type CommandRepository struct {
	db *gorm.DB
}

func NewCommandRepository(db *gorm.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Create(ctx context.Context, cmd *model.TranscodeCommand) error {
	if err := r.db.WithContext(ctx).Create(cmd).Error; err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return nil
}

func (r *CommandRepository) Get(ctx context.Context, id string) (*model.TranscodeCommand, error) {
	var cmd model.TranscodeCommand
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&cmd).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrCommandNotFound
		}
		return nil, fmt.Errorf("get command %s: %w", id, err)
	}
	return &cmd, nil
}

// ListByContent returns the most recent commands for a content record.
func (r *CommandRepository) ListByContent(ctx context.Context, contentID string, limit int) ([]model.TranscodeCommand, error) {
	if limit <= 0 {
		limit = 20
	}
	var cmds []model.TranscodeCommand
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&cmds).Error
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return cmds, nil
}

// Claim moves a pending command to consumed. It reports false when another
// delivery already claimed it.
func (r *CommandRepository) Claim(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TranscodeCommand{}).
		Where("id = ? AND status = ?", id, string(model.CommandStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(model.CommandStatusConsumed),
			"consumed_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim command %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *CommandRepository) Fail(ctx context.Context, id, errMsg string) error {
	err := r.db.WithContext(ctx).Model(&model.TranscodeCommand{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(model.CommandStatusFailed),
			"error":       errMsg,
			"consumed_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("fail command %s: %w", id, err)
	}
	return nil
}
