package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	"github.com/quillhq/quill/internal/metering/lifetime"
	"github.com/quillhq/quill/internal/metering/metric"
	"gorm.io/gorm"
)

// counter answers lifetime usage questions from the owning tables. Soft
// deleted rows are excluded by gorm, so a delete frees quota immediately.
type counter struct {
	db *gorm.DB
}

func NewCounter(db *gorm.DB) lifetime.Counter {
	return &counter{db: db}
}

func (c *counter) CountForUser(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error) {
	model, err := modelFor(m)
	if err != nil {
		return 0, err
	}
	var count int64
	err = c.db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func modelFor(m metric.Metric) (any, error) {
	switch m {
	case metric.PromptCreation:
		return &contentdomain.Prompt{}, nil
	case metric.NoteCreation:
		return &contentdomain.Note{}, nil
	case metric.BookmarkCreation:
		return &contentdomain.Bookmark{}, nil
	case metric.DocumentCreation:
		return &contentdomain.Document{}, nil
	case metric.VideoCreation:
		return &contentdomain.Video{}, nil
	case metric.CategoryCreation:
		return &contentdomain.Category{}, nil
	default:
		return nil, metric.ErrUnknownMetric
	}
}
