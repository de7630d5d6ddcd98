package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/learnhub/api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository stores content records in postgres.
type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a new record. A path that is already registered yields
// model.ErrDuplicatePath.
func (r *ContentRepository) Create(ctx context.Context, content *model.Content) error {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicatePath
		}
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

func (r *ContentRepository) Get(ctx context.Context, id string) (*model.Content, error) {
	var content model.Content
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrContentNotFound
		}
		return nil, fmt.Errorf("get content %s: %w", id, err)
	}
	return &content, nil
}

// FindByPath returns the first record whose path equals path.
func (r *ContentRepository) FindByPath(ctx context.Context, path string) (*model.Content, error) {
	var rows []model.Content
	err := r.db.WithContext(ctx).Where("path = ?", path).Order("created_at").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find content by path: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.ErrContentNotFound
	}
	return &rows[0], nil
}

// Update applies a partial update. Fields not present in upd are untouched.
func (r *ContentRepository) Update(ctx context.Context, id string, upd model.ContentUpdate) error {
	res := r.db.WithContext(ctx).Model(&model.Content{}).Where("id = ?", id).Updates(columns(upd))
	if res.Error != nil {
		return fmt.Errorf("update content %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrContentNotFound
	}
	return nil
}

// UpdateIfJobName applies upd only while the record still references jobName.
// It reports false when another attempt has replaced the job in the meantime.
func (r *ContentRepository) UpdateIfJobName(ctx context.Context, id, jobName string, upd model.ContentUpdate) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Content{}).
		Where("id = ? AND transcode_job_name = ?", id, jobName).
		Updates(columns(upd))
	if res.Error != nil {
		return false, fmt.Errorf("conditional update content %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a record and returns its final snapshot.
func (r *ContentRepository) Delete(ctx context.Context, id string) (*model.Content, error) {
	var rows []model.Content
	res := r.db.WithContext(ctx).Clauses(clause.Returning{}).Where("id = ?", id).Delete(&rows)
	if res.Error != nil {
		return nil, fmt.Errorf("delete content %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return nil, model.ErrContentNotFound
	}
	return &rows[0], nil
}

// columns converts an update into values the postgres driver accepts directly.
func columns(upd model.ContentUpdate) map[string]interface{} {
	out := make(map[string]interface{}, len(upd))
	for field, value := range upd {
		switch v := value.(type) {
		case model.TranscodeStatus:
			out[field] = string(v)
		case model.TranscodeTrigger:
			out[field] = string(v)
		default:
			out[field] = value
		}
	}
	return out
}
