package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	TierID      string `json:"tier_id"`
}

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	// EnsureTier persists tierID for the user when no tier is assigned.
	// Used by admission to self-heal missing tier configuration.
	EnsureTier(ctx context.Context, userID, tierID snowflake.ID) error
}

var (
	ErrUserNotFound   = errors.New("user_not_found")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrDuplicateEmail = errors.New("duplicate_email")
)
