package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/clock"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"github.com/quillhq/quill/pkg/db"
	"github.com/quillhq/quill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	userrepo repository.Repository[userdomain.User]
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("user.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		userrepo: repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	user, err := s.userrepo.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) Register(ctx context.Context, req userdomain.RegisterRequest) (*userdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, userdomain.ErrInvalidEmail
	}

	var tierID snowflake.ID
	if trimmed := strings.TrimSpace(req.TierID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err == nil {
			tierID = parsed
		}
	}

	user := &userdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		TierID:       tierID,
		RegisteredAt: s.clock.Now(),
	}
	if err := s.userrepo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) EnsureTier(ctx context.Context, userID, tierID snowflake.ID) error {
	if tierID == 0 {
		return nil
	}
	// Guarded update: only fills the gap, never overwrites an assignment
	// made concurrently.
	return s.db.WithContext(ctx).Exec(
		`UPDATE users SET tier_id = ?, updated_at = ? WHERE id = ? AND tier_id = 0`,
		tierID,
		s.clock.Now(),
		userID,
	).Error
}
