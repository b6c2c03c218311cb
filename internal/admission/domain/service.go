// Package domain defines the quota admission contract.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
)

// Deny reasons carried on a Decision.
const (
	ReasonWithinLimit  = "within_limit"
	ReasonUnlimited    = "unlimited"
	ReasonLimitReached = "limit_reached"
	ReasonLookupFailed = "lookup_failed"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool          `json:"allowed"`
	Metric    metric.Metric `json:"metric"`
	Reason    string        `json:"reason"`
	Limit     int64         `json:"limit"`
	Used      int64         `json:"used"`
	Requested int64         `json:"requested"`
	Unlimited bool          `json:"unlimited"`
	Lifetime  bool          `json:"lifetime"`
}

// Service answers "would performing n more actions of this metric exceed
// the user's quota". It never returns an error: every internal failure is
// logged and surfaces as a deny (fail closed). This is deliberately
// stricter than the fail-open error handling elsewhere in the
// application; unifying them would silently drop quota enforcement
// during outages.
type Service interface {
	CanPerform(ctx context.Context, userID snowflake.ID, m metric.Metric, n int64) Decision
}
