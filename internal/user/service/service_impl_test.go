package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/quillhq/quill/internal/clock"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) (userdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(&userdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})
	return svc, db, fake
}

func TestRegisterAnchorsBillingCycle(t *testing.T) {
	svc, _, fake := setupUserService(t)

	user, err := svc.Register(context.Background(), userdomain.RegisterRequest{
		Email:       "  Ada@Example.COM ",
		DisplayName: " Ada ",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.DisplayName)
	// The registration instant anchors every future billing cycle.
	assert.True(t, user.RegisteredAt.Equal(fake.Now()))
	assert.Equal(t, snowflake.ID(0), user.TierID)
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Register(ctx, userdomain.RegisterRequest{Email: email})
		assert.ErrorIs(t, err, userdomain.ErrInvalidEmail, "email %q", email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, userdomain.RegisterRequest{Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, userdomain.RegisterRequest{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, userdomain.ErrDuplicateEmail)
}

func TestGetByIDUnknownUser(t *testing.T) {
	svc, _, _ := setupUserService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), node.Generate())
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

func TestEnsureTierFillsOnlyUnsetTier(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, userdomain.RegisterRequest{Email: "ada@example.com"})
	require.NoError(t, err)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	first := node.Generate()
	second := node.Generate()

	require.NoError(t, svc.EnsureTier(ctx, user.ID, first))
	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got.TierID)

	// A second ensure must not overwrite the existing assignment.
	require.NoError(t, svc.EnsureTier(ctx, user.ID, second))
	got, err = svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got.TierID)
}

func TestEnsureTierIgnoresZeroTier(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, userdomain.RegisterRequest{Email: "ada@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureTier(ctx, user.ID, 0))
	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(0), got.TierID)
}
