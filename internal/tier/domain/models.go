// Package domain contains the membership tier catalog models.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/metering/metric"
	"gorm.io/datatypes"
)

// Tier is an immutable-per-version membership tier. Quotas maps metric
// codes to integer limits; 0 means unlimited. Edited only through admin
// action, read on every admission check.
type Tier struct {
	ID           snowflake.ID               `json:"id" gorm:"primaryKey"`
	Code         string                     `json:"code" gorm:"type:text;not null;uniqueIndex:ux_tiers_code"`
	Name         string                     `json:"name" gorm:"type:text;not null"`
	Quotas       datatypes.JSONMap          `json:"quotas" gorm:"type:jsonb;not null;default:'{}'"`
	Features     datatypes.JSONSlice[string] `json:"features" gorm:"type:jsonb;not null;default:'[]'"`
	Active       bool                       `json:"active" gorm:"not null;default:true"`
	DisplayOrder int                        `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time                  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time                  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tier) TableName() string { return "tiers" }

// Limit resolves the quota for a metric. Absent entries mean unlimited,
// matching the 0 sentinel.
func (t *Tier) Limit(m metric.Metric) int64 {
	if t == nil || t.Quotas == nil {
		return metric.Unlimited
	}
	raw, ok := t.Quotas[m.String()]
	if !ok {
		return metric.Unlimited
	}
	return coerceInt64(raw)
}

// Unlimited reports whether the tier has no cap on the metric.
func (t *Tier) Unlimited(m metric.Metric) bool {
	return metric.IsUnlimited(t.Limit(m))
}

// HasFeature reports whether the tier carries a feature flag.
func (t *Tier) HasFeature(name string) bool {
	if t == nil {
		return false
	}
	for _, f := range t.Features {
		if f == name || f == "all" {
			return true
		}
	}
	return false
}

// coerceInt64 normalizes jsonb scalar decodings (float64 from the driver,
// json.Number from raw decoding, int64 from in-process writes).
func coerceInt64(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return metric.Unlimited
		}
		return n
	default:
		return metric.Unlimited
	}
}
