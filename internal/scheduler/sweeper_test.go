package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/metering/metric"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	usageservice "github.com/quillhq/quill/internal/usage/service"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userStub struct {
	user *userdomain.User
}

func (s *userStub) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
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

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestRunOnceDeletesOnlyExpiredCycles(t *testing.T) {
	node := mustNode(t)

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
	if err := db.AutoMigrate(&usagedomain.UsageRecord{}, &notificationdomain.NotificationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &userdomain.User{
		ID:           node.Generate(),
		RegisteredAt: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	fake := clock.NewFakeClock(time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC))

	usageSvc := usageservice.NewService(usageservice.ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		UserSvc: &userStub{user: user},
	})
	ctx := context.Background()

	// One usage row in the February cycle, one in the May cycle.
	if err := usageSvc.Increment(ctx, user.ID, metric.PromptCreation, 3); err != nil {
		t.Fatalf("increment old cycle: %v", err)
	}
	fake.Set(time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC))
	if err := usageSvc.Increment(ctx, user.ID, metric.PromptCreation, 7); err != nil {
		t.Fatalf("increment current cycle: %v", err)
	}

	// Matching notification records, one per cycle.
	records := []notificationdomain.NotificationRecord{
		{
			ID:         node.Generate(),
			UserID:     user.ID,
			Metric:     metric.PromptCreation.String(),
			CycleStart: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
			Level:      90,
			NotifiedAt: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:         node.Generate(),
			UserID:     user.ID,
			Metric:     metric.PromptCreation.String(),
			CycleStart: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
			Level:      90,
			NotifiedAt: time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC),
		},
	}
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("seed notification record: %v", err)
		}
	}

	holder := config.NewStaticMeteringConfigHolder(config.MeteringConfig{
		Thresholds:      []int{100, 90, 75},
		NearLimitRatio:  0.9,
		RetentionMonths: 3,
		SweepInterval:   time.Minute,
		SweepBatchSize:  1,
	})

	// Cutoff is 2024-03-01; the February cycle falls behind it.
	fake.Set(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	sweeper, err := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    fake,
		Metering: holder,
		UsageSvc: usageSvc,
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if count := countRows(t, db, &usagedomain.UsageRecord{}); count != 1 {
		t.Fatalf("usage rows = %d, want 1 surviving", count)
	}
	if count := countRows(t, db, &notificationdomain.NotificationRecord{}); count != 1 {
		t.Fatalf("notification rows = %d, want 1 surviving", count)
	}

	var surviving notificationdomain.NotificationRecord
	if err := db.First(&surviving).Error; err != nil {
		t.Fatalf("load surviving record: %v", err)
	}
	if !surviving.CycleStart.Equal(records[1].CycleStart) {
		t.Fatalf("surviving cycle = %v, want %v", surviving.CycleStart, records[1].CycleStart)
	}
}

func TestRunOnceIdempotentWhenNothingExpired(t *testing.T) {
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
	if err := db.AutoMigrate(&usagedomain.UsageRecord{}, &notificationdomain.NotificationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node := mustNode(t)
	user := &userdomain.User{
		ID:           node.Generate(),
		RegisteredAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	fake := clock.NewFakeClock(time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC))
	usageSvc := usageservice.NewService(usageservice.ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		UserSvc: &userStub{user: user},
	})
	ctx := context.Background()

	if err := usageSvc.Increment(ctx, user.ID, metric.AIGeneration, 2); err != nil {
		t.Fatalf("increment: %v", err)
	}

	holder := config.NewStaticMeteringConfigHolder(config.MeteringConfig{
		Thresholds:      []int{100},
		NearLimitRatio:  0.9,
		RetentionMonths: 12,
		SweepInterval:   time.Minute,
		SweepBatchSize:  100,
	})
	sweeper, err := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    fake,
		Metering: holder,
		UsageSvc: usageSvc,
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := sweeper.RunOnce(ctx); err != nil {
			t.Fatalf("run once %d: %v", i, err)
		}
	}
	if count := countRows(t, db, &usagedomain.UsageRecord{}); count != 1 {
		t.Fatalf("usage rows = %d, want 1", count)
	}
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
