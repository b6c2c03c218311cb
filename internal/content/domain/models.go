// Package domain contains the content collections owned by users. These
// are the owning tables for lifetime metrics; their live row counts are
// the usage numbers for quota enforcement.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Prompt struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID   `json:"user_id" gorm:"not null;index"`
	CategoryID snowflake.ID   `json:"category_id" gorm:"not null;default:0;index"`
	Title      string         `json:"title" gorm:"type:text;not null"`
	Slug       string         `json:"slug" gorm:"type:text;not null;index"`
	Body       string         `json:"body" gorm:"type:text;not null"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Prompt) TableName() string { return "prompts" }

type Note struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID   `json:"user_id" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"type:text;not null"`
	Slug      string         `json:"slug" gorm:"type:text;not null;index"`
	Body      string         `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Note) TableName() string { return "notes" }

type Bookmark struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID   `json:"user_id" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"type:text;not null"`
	URL       string         `json:"url" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Bookmark) TableName() string { return "bookmarks" }

type Document struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID   `json:"user_id" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"type:text;not null"`
	Slug      string         `json:"slug" gorm:"type:text;not null;index"`
	FileKey   string         `json:"file_key" gorm:"type:text;not null"`
	SizeBytes int64          `json:"size_bytes" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Document) TableName() string { return "documents" }

type Video struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID   `json:"user_id" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"type:text;not null"`
	URL       string         `json:"url" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Video) TableName() string { return "videos" }

type Category struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID   `json:"user_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"type:text;not null"`
	Slug      string         `json:"slug" gorm:"type:text;not null;index"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string { return "categories" }
