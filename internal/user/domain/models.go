// Package domain contains the user records consumed by the metering core.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is the slice of the account record the metering core needs:
// identity, registration instant (billing cycle anchor), and tier.
// TierID may legitimately be unset; admission self-heals it.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	DisplayName  string       `json:"display_name" gorm:"type:text;not null"`
	TierID       snowflake.ID `json:"tier_id" gorm:"not null;default:0;index"`
	RegisteredAt time.Time    `json:"registered_at" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
