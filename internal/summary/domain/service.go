// Package domain defines the usage summary report shapes.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
)

// UnlimitedRemaining is the sentinel for "remaining" on unlimited metrics.
const UnlimitedRemaining int64 = -1

// MetricReport is one metric's line in the dashboard summary.
type MetricReport struct {
	Metric      metric.Metric `json:"metric"`
	Used        int64         `json:"used"`
	Limit       int64         `json:"limit"`
	Remaining   int64         `json:"remaining"`
	Percent     int           `json:"percent"`
	IsUnlimited bool          `json:"is_unlimited"`
	IsAtLimit   bool          `json:"is_at_limit"`
	IsNearLimit bool          `json:"is_near_limit"`
	IsLifetime  bool          `json:"is_lifetime"`
}

// Report aggregates every metric for one user.
type Report struct {
	UserID     snowflake.ID   `json:"user_id"`
	TierID     snowflake.ID   `json:"tier_id"`
	TierCode   string         `json:"tier_code"`
	TierName   string         `json:"tier_name"`
	CycleStart time.Time      `json:"cycle_start"`
	NextReset  time.Time      `json:"next_reset"`
	Metrics    []MetricReport `json:"metrics"`
}

// Service produces read-only summaries; no side effects. Read failures on
// individual metrics degrade to zero values rather than failing the whole
// report (fail soft for display paths).
type Service interface {
	Summarize(ctx context.Context, userID snowflake.ID) (*Report, error)
}
