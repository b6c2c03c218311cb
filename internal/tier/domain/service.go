package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateTierRequest struct {
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Quotas       map[string]int64 `json:"quotas"`
	Features     []string         `json:"features"`
	Active       *bool            `json:"active"`
	DisplayOrder int              `json:"display_order"`
}

type UpdateTierRequest struct {
	ID           string            `json:"-"`
	Name         *string           `json:"name"`
	Quotas       *map[string]int64 `json:"quotas"`
	Features     *[]string         `json:"features"`
	Active       *bool             `json:"active"`
	DisplayOrder *int              `json:"display_order"`
}

type Service interface {
	// GetByID returns the tier or nil when it does not exist.
	GetByID(ctx context.Context, id snowflake.ID) (*Tier, error)
	// Resolve returns the tier for id, falling back to the lowest active
	// tier when the id is unset, unknown, or inactive. It only errors when
	// no fallback can be established either.
	Resolve(ctx context.Context, id snowflake.ID) (*Tier, error)
	// Fallback returns the lowest active tier (first by display order).
	Fallback(ctx context.Context) (*Tier, error)
	ListActive(ctx context.Context) ([]*Tier, error)
	Create(ctx context.Context, req CreateTierRequest) (*Tier, error)
	Update(ctx context.Context, req UpdateTierRequest) (*Tier, error)
}

var (
	ErrInvalidTierCode = errors.New("invalid_tier_code")
	ErrInvalidTierName = errors.New("invalid_tier_name")
	ErrInvalidQuota    = errors.New("invalid_quota")
	ErrTierNotFound    = errors.New("tier_not_found")
	ErrNoActiveTier    = errors.New("no_active_tier")
	ErrDuplicateTier   = errors.New("duplicate_tier_code")
)
