// Package seed bootstraps the default tier catalog so a fresh install is
// usable without any admin action.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type defaultTier struct {
	Code         string
	Name         string
	Quotas       map[string]any
	Features     []string
	DisplayOrder int
}

func defaultTiers() []defaultTier {
	return []defaultTier{
		{
			Code: "free",
			Name: "Free",
			Quotas: map[string]any{
				metric.PromptCreation.String():   int64(50),
				metric.AIGeneration.String():     int64(20),
				metric.NoteCreation.String():     int64(100),
				metric.DocumentCreation.String(): int64(10),
				metric.VideoCreation.String():    int64(5),
				metric.BookmarkCreation.String(): int64(100),
				metric.CategoryCreation.String(): int64(10),
			},
			Features:     []string{"basic"},
			DisplayOrder: 0,
		},
		{
			Code: "pro",
			Name: "Pro",
			Quotas: map[string]any{
				metric.PromptCreation.String():   int64(1000),
				metric.AIGeneration.String():     int64(500),
				metric.NoteCreation.String():     int64(5000),
				metric.DocumentCreation.String(): int64(500),
				metric.VideoCreation.String():    int64(100),
				metric.BookmarkCreation.String(): int64(5000),
				metric.CategoryCreation.String(): int64(100),
			},
			Features:     []string{"basic", "export", "api_access"},
			DisplayOrder: 1,
		},
		{
			Code:         "unlimited",
			Name:         "Unlimited",
			Quotas:       map[string]any{},
			Features:     []string{"all"},
			DisplayOrder: 2,
		},
	}
}

// EnsureDefaultTiers creates the free, pro, and unlimited tiers when they
// do not exist yet. Existing tiers are left untouched so operator edits
// survive restarts.
func EnsureDefaultTiers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range defaultTiers() {
			var existing tierdomain.Tier
			err := tx.WithContext(ctx).
				Where("code = ?", def.Code).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			tier := tierdomain.Tier{
				ID:           node.Generate(),
				Code:         def.Code,
				Name:         def.Name,
				Quotas:       datatypes.JSONMap(def.Quotas),
				Features:     datatypes.NewJSONSlice(def.Features),
				Active:       true,
				DisplayOrder: def.DisplayOrder,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&tier).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
