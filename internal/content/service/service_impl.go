package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	admissiondomain "github.com/quillhq/quill/internal/admission/domain"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	"github.com/quillhq/quill/internal/metering/metric"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	"github.com/quillhq/quill/pkg/db/option"
	"github.com/quillhq/quill/pkg/db/pagination"
	"github.com/quillhq/quill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	AdmissionSvc admissiondomain.Service
	UsageSvc     usagedomain.Service
	NotifySvc    notificationdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	admissionsvc admissiondomain.Service
	usagesvc     usagedomain.Service
	notifysvc    notificationdomain.Service

	prompts    repository.Repository[contentdomain.Prompt]
	notes      repository.Repository[contentdomain.Note]
	bookmarks  repository.Repository[contentdomain.Bookmark]
	documents  repository.Repository[contentdomain.Document]
	videos     repository.Repository[contentdomain.Video]
	categories repository.Repository[contentdomain.Category]
}

func NewService(p ServiceParam) contentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("content.service"),

		genID:        p.GenID,
		admissionsvc: p.AdmissionSvc,
		usagesvc:     p.UsageSvc,
		notifysvc:    p.NotifySvc,

		prompts:    repository.ProvideStore[contentdomain.Prompt](p.DB),
		notes:      repository.ProvideStore[contentdomain.Note](p.DB),
		bookmarks:  repository.ProvideStore[contentdomain.Bookmark](p.DB),
		documents:  repository.ProvideStore[contentdomain.Document](p.DB),
		videos:     repository.ProvideStore[contentdomain.Video](p.DB),
		categories: repository.ProvideStore[contentdomain.Category](p.DB),
	}
}

// guard runs the admission pre-check. It must run before the entity is
// persisted; a deny maps to ErrPlanLimitReached at the API boundary.
func (s *Service) guard(ctx context.Context, userID snowflake.ID, m metric.Metric) error {
	decision := s.admissionsvc.CanPerform(ctx, userID, m, 1)
	if !decision.Allowed {
		return contentdomain.ErrPlanLimitReached
	}
	return nil
}

// afterCreate is the post-success metering hook: accumulate (cycle
// metrics only; lifetime metrics derive from row counts) and evaluate
// thresholds. Both are best effort and never fail the primary action.
func (s *Service) afterCreate(ctx context.Context, userID snowflake.ID, m metric.Metric) {
	if !m.IsLifetime() {
		if err := s.usagesvc.Increment(ctx, userID, m, 1); err != nil {
			s.log.Warn("usage increment failed",
				zap.String("user_id", userID.String()),
				zap.String("metric", m.String()),
				zap.Error(err),
			)
		}
	}
	s.notifysvc.Notify(ctx, userID, m)
}

func (s *Service) CreatePrompt(ctx context.Context, req contentdomain.CreatePromptRequest) (*contentdomain.Prompt, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, contentdomain.ErrInvalidTitle
	}
	if err := s.guard(ctx, req.UserID, metric.PromptCreation); err != nil {
		return nil, err
	}

	var categoryID snowflake.ID
	if trimmed := strings.TrimSpace(req.CategoryID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err == nil {
			categoryID = parsed
		}
	}

	prompt := &contentdomain.Prompt{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		CategoryID: categoryID,
		Title:      title,
		Slug:       slug.Make(title),
		Body:       req.Body,
	}
	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.PromptCreation)
	return prompt, nil
}

func (s *Service) CreateNote(ctx context.Context, req contentdomain.CreateNoteRequest) (*contentdomain.Note, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, contentdomain.ErrInvalidTitle
	}
	if err := s.guard(ctx, req.UserID, metric.NoteCreation); err != nil {
		return nil, err
	}

	note := &contentdomain.Note{
		ID:     s.genID.Generate(),
		UserID: req.UserID,
		Title:  title,
		Slug:   slug.Make(title),
		Body:   req.Body,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.NoteCreation)
	return note, nil
}

func (s *Service) CreateBookmark(ctx context.Context, req contentdomain.CreateBookmarkRequest) (*contentdomain.Bookmark, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, contentdomain.ErrInvalidURL
	}
	if err := s.guard(ctx, req.UserID, metric.BookmarkCreation); err != nil {
		return nil, err
	}

	bookmark := &contentdomain.Bookmark{
		ID:     s.genID.Generate(),
		UserID: req.UserID,
		Title:  strings.TrimSpace(req.Title),
		URL:    url,
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.BookmarkCreation)
	return bookmark, nil
}

func (s *Service) CreateDocument(ctx context.Context, req contentdomain.CreateDocumentRequest) (*contentdomain.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, contentdomain.ErrInvalidTitle
	}
	if err := s.guard(ctx, req.UserID, metric.DocumentCreation); err != nil {
		return nil, err
	}

	document := &contentdomain.Document{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Title:     title,
		Slug:      slug.Make(title),
		FileKey:   strings.TrimSpace(req.FileKey),
		SizeBytes: req.SizeBytes,
	}
	if err := s.documents.Create(ctx, document); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.DocumentCreation)
	return document, nil
}

func (s *Service) CreateVideo(ctx context.Context, req contentdomain.CreateVideoRequest) (*contentdomain.Video, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, contentdomain.ErrInvalidURL
	}
	if err := s.guard(ctx, req.UserID, metric.VideoCreation); err != nil {
		return nil, err
	}

	video := &contentdomain.Video{
		ID:     s.genID.Generate(),
		UserID: req.UserID,
		Title:  strings.TrimSpace(req.Title),
		URL:    url,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.VideoCreation)
	return video, nil
}

func (s *Service) CreateCategory(ctx context.Context, req contentdomain.CreateCategoryRequest) (*contentdomain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, contentdomain.ErrInvalidTitle
	}
	if err := s.guard(ctx, req.UserID, metric.CategoryCreation); err != nil {
		return nil, err
	}

	category := &contentdomain.Category{
		ID:     s.genID.Generate(),
		UserID: req.UserID,
		Name:   name,
		Slug:   slug.Make(name),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.afterCreate(ctx, req.UserID, metric.CategoryCreation)
	return category, nil
}

func (s *Service) ListPrompts(ctx context.Context, req contentdomain.ListPromptsRequest) (contentdomain.ListPromptsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	opts := []option.QueryOption{
		option.WithOrderBy("id DESC"),
		option.WithLimit(pageSize + 1),
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err == nil && cursor.ID != "" {
			if lastID, err := snowflake.ParseString(cursor.ID); err == nil {
				opts = append(opts, option.WithWhere("id < ?", lastID))
			}
		}
	}

	prompts, err := s.prompts.Find(ctx, &contentdomain.Prompt{UserID: req.UserID}, opts...)
	if err != nil {
		return contentdomain.ListPromptsResponse{}, err
	}

	prompts, pageInfo := pagination.BuildCursorPageInfo(prompts, pageSize, func(p *contentdomain.Prompt) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: p.ID.String()})
		return token
	})

	return contentdomain.ListPromptsResponse{
		PageInfo: *pageInfo,
		Prompts:  prompts,
	}, nil
}

func (s *Service) Delete(ctx context.Context, userID snowflake.ID, collection string, entityID snowflake.ID) error {
	model, err := modelForCollection(collection)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entityID, userID).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contentdomain.ErrEntityNotFound
	}
	return nil
}

func modelForCollection(collection string) (any, error) {
	switch collection {
	case contentdomain.CollectionPrompts:
		return &contentdomain.Prompt{}, nil
	case contentdomain.CollectionNotes:
		return &contentdomain.Note{}, nil
	case contentdomain.CollectionBookmarks:
		return &contentdomain.Bookmark{}, nil
	case contentdomain.CollectionDocuments:
		return &contentdomain.Document{}, nil
	case contentdomain.CollectionVideos:
		return &contentdomain.Video{}, nil
	case contentdomain.CollectionCategories:
		return &contentdomain.Category{}, nil
	default:
		return nil, contentdomain.ErrInvalidCollection
	}
}
