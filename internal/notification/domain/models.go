// Package domain contains the threshold notification state machine types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// NotificationRecord marks one threshold level as already announced for a
// (user, metric, cycle). Rows are created once per crossing, never
// updated, and queried only for existence; the unique index is what makes
// "at most once per cycle" hold.
type NotificationRecord struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID `json:"user_id" gorm:"not null;uniqueIndex:ux_notify_user_metric_cycle_level,priority:1"`
	Metric     string       `json:"metric" gorm:"type:text;not null;uniqueIndex:ux_notify_user_metric_cycle_level,priority:2"`
	CycleStart time.Time    `json:"cycle_start" gorm:"not null;uniqueIndex:ux_notify_user_metric_cycle_level,priority:3"`
	Level      int          `json:"level" gorm:"not null;uniqueIndex:ux_notify_user_metric_cycle_level,priority:4"`
	NotifiedAt time.Time    `json:"notified_at" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (NotificationRecord) TableName() string { return "notification_records" }
