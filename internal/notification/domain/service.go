package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
)

// Crossing describes a freshly crossed threshold, the payload handed to
// the external dispatcher.
type Crossing struct {
	UserID     snowflake.ID  `json:"user_id"`
	Metric     metric.Metric `json:"metric"`
	CycleStart time.Time     `json:"cycle_start"`
	Level      int           `json:"level"`
	Used       int64         `json:"used"`
	Limit      int64         `json:"limit"`
	Percent    int           `json:"percent"`
}

// Dispatcher delivers a crossing through an external channel. Delivery is
// fire-and-forget: failures are logged, never retried automatically.
type Dispatcher interface {
	Dispatch(ctx context.Context, crossing Crossing) error
}

type Service interface {
	// Evaluate returns the highest threshold level newly crossed by the
	// user's current usage that has not yet been recorded for this cycle,
	// or nil when there is nothing new to announce. Unlimited metrics
	// never cross thresholds.
	Evaluate(ctx context.Context, userID snowflake.ID, m metric.Metric) (*Crossing, error)
	// MarkNotified persists the crossing. It must run before dispatch so a
	// delivery failure cannot cause a re-notification storm.
	MarkNotified(ctx context.Context, crossing Crossing) error
	// Notify evaluates, records, and dispatches in order. Best effort:
	// errors are logged and swallowed so metering never blocks the
	// triggering user action.
	Notify(ctx context.Context, userID snowflake.ID, m metric.Metric)
}

var ErrAlreadyNotified = errors.New("threshold_already_notified")
