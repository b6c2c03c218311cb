package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/metering/metric"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userStub struct {
	user *userdomain.User
	err  error
}

func (s *userStub) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *userStub) Register(ctx context.Context, req userdomain.RegisterRequest) (*userdomain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *userStub) EnsureTier(ctx context.Context, userID, tierID snowflake.ID) error {
	return nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupUsageService(t *testing.T, node *snowflake.Node, fake *clock.FakeClock, user *userdomain.User) (usagedomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	if err := db.AutoMigrate(&usagedomain.UsageRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	service := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		UserSvc: &userStub{user: user},
	})
	return service, db
}

func testUser(node *snowflake.Node, registeredAt time.Time) *userdomain.User {
	return &userdomain.User{
		ID:           node.Generate(),
		Email:        "user@example.com",
		RegisteredAt: registeredAt,
	}
}

func countUsageRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&usagedomain.UsageRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	return count
}

func TestIncrementAccumulatesWithinCycle(t *testing.T) {
	node := mustNode(t)
	registered := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC))
	user := testUser(node, registered)
	service, db := setupUsageService(t, node, fake, user)
	ctx := context.Background()

	for _, n := range []int64{1, 2, 3} {
		if err := service.Increment(ctx, user.ID, metric.PromptCreation, n); err != nil {
			t.Fatalf("increment %d: %v", n, err)
		}
	}

	used, err := service.CurrentUsage(ctx, user.ID, metric.PromptCreation)
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if used != 6 {
		t.Fatalf("used = %d, want 6", used)
	}
	if count := countUsageRecords(t, db); count != 1 {
		t.Fatalf("expected a single accumulating row, got %d", count)
	}
}

func TestIncrementRejectsNonPositiveCount(t *testing.T) {
	node := mustNode(t)
	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	user := testUser(node, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	service, _ := setupUsageService(t, node, fake, user)

	for _, n := range []int64{0, -1} {
		if err := service.Increment(context.Background(), user.ID, metric.PromptCreation, n); !errors.Is(err, usagedomain.ErrInvalidCount) {
			t.Fatalf("increment %d: expected ErrInvalidCount, got %v", n, err)
		}
	}
}

func TestIncrementRejectsLifetimeMetric(t *testing.T) {
	node := mustNode(t)
	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	user := testUser(node, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	service, _ := setupUsageService(t, node, fake, user)

	err := service.Increment(context.Background(), user.ID, metric.DocumentCreation, 1)
	if !errors.Is(err, usagedomain.ErrLifetimeMetered) {
		t.Fatalf("expected ErrLifetimeMetered, got %v", err)
	}
}

func TestNewCycleStartsFreshRow(t *testing.T) {
	node := mustNode(t)
	registered := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	user := testUser(node, registered)
	service, db := setupUsageService(t, node, fake, user)
	ctx := context.Background()

	if err := service.Increment(ctx, user.ID, metric.AIGeneration, 5); err != nil {
		t.Fatalf("increment: %v", err)
	}

	// Cross the April 15 reset boundary.
	fake.Set(time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC))

	used, err := service.CurrentUsage(ctx, user.ID, metric.AIGeneration)
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if used != 0 {
		t.Fatalf("new cycle usage = %d, want 0", used)
	}

	if err := service.Increment(ctx, user.ID, metric.AIGeneration, 2); err != nil {
		t.Fatalf("increment new cycle: %v", err)
	}
	used, err = service.CurrentUsage(ctx, user.ID, metric.AIGeneration)
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if used != 2 {
		t.Fatalf("new cycle usage = %d, want 2", used)
	}

	// The old cycle's row stays untouched for reporting.
	if count := countUsageRecords(t, db); count != 2 {
		t.Fatalf("expected two rows across cycles, got %d", count)
	}
}

func TestConcurrentIncrementsLoseNoUpdates(t *testing.T) {
	node := mustNode(t)
	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	user := testUser(node, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	service, _ := setupUsageService(t, node, fake, user)
	ctx := context.Background()

	const workers = 10
	const perWorker = 5

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := service.Increment(ctx, user.ID, metric.PromptCreation, 1); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent increment: %v", err)
	}

	used, err := service.CurrentUsage(ctx, user.ID, metric.PromptCreation)
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if used != workers*perWorker {
		t.Fatalf("used = %d, want %d", used, workers*perWorker)
	}
}

func TestSweepBeforeDeletesOnlyOldCycles(t *testing.T) {
	node := mustNode(t)
	registered := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(time.Date(2023, time.February, 20, 0, 0, 0, 0, time.UTC))
	user := testUser(node, registered)
	service, db := setupUsageService(t, node, fake, user)
	ctx := context.Background()

	// Old cycle row.
	if err := service.Increment(ctx, user.ID, metric.PromptCreation, 3); err != nil {
		t.Fatalf("increment old cycle: %v", err)
	}

	// Current cycle row, a year later.
	fake.Set(time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC))
	if err := service.Increment(ctx, user.ID, metric.PromptCreation, 7); err != nil {
		t.Fatalf("increment current cycle: %v", err)
	}

	cutoff := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	deleted, err := service.SweepBefore(ctx, cutoff, 1)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	used, err := service.CurrentUsage(ctx, user.ID, metric.PromptCreation)
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if used != 7 {
		t.Fatalf("current cycle usage = %d, want 7", used)
	}
	if count := countUsageRecords(t, db); count != 1 {
		t.Fatalf("expected 1 surviving row, got %d", count)
	}
}
