// Package lifetime defines the counting contract for metrics whose quota
// applies to the total live count of owned rows.
package lifetime

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
)

// Counter answers "how many live entities of this kind does the user own
// right now". It keeps no state of its own; the owning collection's row
// count is authoritative, so deleting an entity frees quota immediately.
type Counter interface {
	CountForUser(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error)
}
