// Package domain contains persistence models for cycle-scoped usage counters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord accumulates one user's consumption of one metric within one
// billing cycle. The (user_id, metric, cycle_start) uniqueness is the
// concurrency-safety anchor for the increment upsert: a new cycle creates
// a new row, old rows are never rewritten.
type UsageRecord struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID `json:"user_id" gorm:"not null;uniqueIndex:ux_usage_user_metric_cycle,priority:1"`
	Metric     string       `json:"metric" gorm:"type:text;not null;uniqueIndex:ux_usage_user_metric_cycle,priority:2"`
	CycleStart time.Time    `json:"cycle_start" gorm:"not null;uniqueIndex:ux_usage_user_metric_cycle,priority:3"`
	Count      int64        `json:"count" gorm:"not null;default:0"`
	ResetAt    time.Time    `json:"reset_at" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
