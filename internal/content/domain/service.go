package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/pkg/db/pagination"
)

type CreatePromptRequest struct {
	UserID     snowflake.ID `json:"-"`
	CategoryID string       `json:"category_id"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
}

type CreateNoteRequest struct {
	UserID snowflake.ID `json:"-"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`
}

type CreateBookmarkRequest struct {
	UserID snowflake.ID `json:"-"`
	Title  string       `json:"title"`
	URL    string       `json:"url"`
}

type CreateDocumentRequest struct {
	UserID    snowflake.ID `json:"-"`
	Title     string       `json:"title"`
	FileKey   string       `json:"file_key"`
	SizeBytes int64        `json:"size_bytes"`
}

type CreateVideoRequest struct {
	UserID snowflake.ID `json:"-"`
	Title  string       `json:"title"`
	URL    string       `json:"url"`
}

type CreateCategoryRequest struct {
	UserID snowflake.ID `json:"-"`
	Name   string       `json:"name"`
}

type ListPromptsRequest struct {
	UserID snowflake.ID
	pagination.Pagination
}

type ListPromptsResponse struct {
	pagination.PageInfo
	Prompts []*Prompt `json:"prompts"`
}

// Collection names accepted by Delete; they mirror the URL path segment.
const (
	CollectionPrompts    = "prompts"
	CollectionNotes      = "notes"
	CollectionBookmarks  = "bookmarks"
	CollectionDocuments  = "documents"
	CollectionVideos     = "videos"
	CollectionCategories = "categories"
)

type Service interface {
	CreatePrompt(ctx context.Context, req CreatePromptRequest) (*Prompt, error)
	CreateNote(ctx context.Context, req CreateNoteRequest) (*Note, error)
	CreateBookmark(ctx context.Context, req CreateBookmarkRequest) (*Bookmark, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error)
	CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	ListPrompts(ctx context.Context, req ListPromptsRequest) (ListPromptsResponse, error)
	// Delete soft-deletes an entity the user owns. For lifetime metrics
	// this immediately frees quota.
	Delete(ctx context.Context, userID snowflake.ID, collection string, entityID snowflake.ID) error
}

var (
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidURL        = errors.New("invalid_url")
	ErrInvalidCollection = errors.New("invalid_collection")
	ErrEntityNotFound    = errors.New("entity_not_found")
	ErrPlanLimitReached  = errors.New("plan_limit_reached")
)
