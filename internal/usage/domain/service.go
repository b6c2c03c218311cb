package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
)

type Service interface {
	// Increment adds n to the user's counter for the current cycle as a
	// single upsert statement. Lifetime metrics are rejected; their usage
	// derives from the owning collection's row count.
	Increment(ctx context.Context, userID snowflake.ID, m metric.Metric, n int64) error
	// CurrentUsage reads the counter for the current cycle; a missing row
	// means zero.
	CurrentUsage(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error)
	// SweepBefore deletes counters from cycles that started before cutoff.
	// Out-of-band retention only; decision logic never depends on it.
	SweepBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

var (
	ErrInvalidCount    = errors.New("invalid_count")
	ErrLifetimeMetered = errors.New("lifetime_metric_not_accumulated")
)
