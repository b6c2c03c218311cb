package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/metering/metric"
	summarydomain "github.com/quillhq/quill/internal/summary/domain"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type userStub struct {
	user *userdomain.User
	err  error
}

func (s *userStub) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	return s.user, s.err
}

func (s *userStub) Register(ctx context.Context, req userdomain.RegisterRequest) (*userdomain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *userStub) EnsureTier(ctx context.Context, userID, tierID snowflake.ID) error {
	return nil
}

type tierStub struct {
	tier *tierdomain.Tier
}

func (s *tierStub) GetByID(ctx context.Context, id snowflake.ID) (*tierdomain.Tier, error) {
	return s.tier, nil
}

func (s *tierStub) Resolve(ctx context.Context, id snowflake.ID) (*tierdomain.Tier, error) {
	return s.tier, nil
}

func (s *tierStub) Fallback(ctx context.Context) (*tierdomain.Tier, error) {
	return s.tier, nil
}

func (s *tierStub) ListActive(ctx context.Context) ([]*tierdomain.Tier, error) {
	return nil, errors.New("not implemented")
}

func (s *tierStub) Create(ctx context.Context, req tierdomain.CreateTierRequest) (*tierdomain.Tier, error) {
	return nil, errors.New("not implemented")
}

func (s *tierStub) Update(ctx context.Context, req tierdomain.UpdateTierRequest) (*tierdomain.Tier, error) {
	return nil, errors.New("not implemented")
}

type usageStub struct {
	used map[metric.Metric]int64
}

func (s *usageStub) Increment(ctx context.Context, userID snowflake.ID, m metric.Metric, n int64) error {
	return errors.New("not implemented")
}

func (s *usageStub) CurrentUsage(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error) {
	return s.used[m], nil
}

func (s *usageStub) SweepBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return 0, errors.New("not implemented")
}

type counterStub struct {
	counts map[metric.Metric]int64
	err    error
}

func (s *counterStub) CountForUser(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[m], nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func newSummary(user *userdomain.User, tier *tierdomain.Tier, usage *usageStub, counter *counterStub, now time.Time) summarydomain.Service {
	holder := config.NewStaticMeteringConfigHolder(config.MeteringConfig{
		Thresholds:      []int{100, 90, 75},
		NearLimitRatio:  0.9,
		RetentionMonths: 12,
		SweepInterval:   time.Hour,
		SweepBatchSize:  100,
	})
	return NewService(ServiceParam{
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(now),
		Metering: holder,
		UserSvc:  &userStub{user: user},
		TierSvc:  &tierStub{tier: tier},
		UsageSvc: usage,
		Counter:  counter,
	})
}

func findReport(t *testing.T, report *summarydomain.Report, m metric.Metric) summarydomain.MetricReport {
	t.Helper()
	for _, entry := range report.Metrics {
		if entry.Metric == m {
			return entry
		}
	}
	t.Fatalf("metric %s missing from report", m)
	return summarydomain.MetricReport{}
}

func TestSummarizeReportsEveryMetric(t *testing.T) {
	node := mustNode(t)
	user := &userdomain.User{
		ID:           node.Generate(),
		TierID:       node.Generate(),
		RegisteredAt: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	tier := &tierdomain.Tier{
		ID:   user.TierID,
		Code: "free",
		Name: "Free",
		Quotas: datatypes.JSONMap{
			metric.PromptCreation.String(): int64(50),
			metric.NoteCreation.String():   int64(100),
		},
		Active: true,
	}
	usage := &usageStub{used: map[metric.Metric]int64{metric.PromptCreation: 20}}
	counter := &counterStub{counts: map[metric.Metric]int64{metric.NoteCreation: 90}}

	svc := newSummary(user, tier, usage, counter, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	report, err := svc.Summarize(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if len(report.Metrics) != len(metric.All()) {
		t.Fatalf("report has %d metrics, want %d", len(report.Metrics), len(metric.All()))
	}
	if report.TierCode != "free" {
		t.Fatalf("tier code = %q, want free", report.TierCode)
	}

	wantStart := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	wantReset := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !report.CycleStart.Equal(wantStart) || !report.NextReset.Equal(wantReset) {
		t.Fatalf("cycle window = %v..%v, want %v..%v", report.CycleStart, report.NextReset, wantStart, wantReset)
	}

	prompts := findReport(t, report, metric.PromptCreation)
	if prompts.Used != 20 || prompts.Limit != 50 || prompts.Remaining != 30 || prompts.Percent != 40 {
		t.Fatalf("prompt report = %+v, want 20/50 remaining 30 at 40%%", prompts)
	}
	if prompts.IsAtLimit || prompts.IsNearLimit || prompts.IsUnlimited || prompts.IsLifetime {
		t.Fatalf("prompt flags = %+v, want all clear", prompts)
	}

	notes := findReport(t, report, metric.NoteCreation)
	if notes.Used != 90 || notes.Limit != 100 || notes.Remaining != 10 {
		t.Fatalf("note report = %+v, want 90/100 remaining 10", notes)
	}
	if !notes.IsNearLimit || notes.IsAtLimit || !notes.IsLifetime {
		t.Fatalf("note flags = %+v, want near limit, lifetime", notes)
	}
}

func TestSummarizeUnlimitedMetric(t *testing.T) {
	node := mustNode(t)
	user := &userdomain.User{ID: node.Generate(), TierID: node.Generate()}
	tier := &tierdomain.Tier{
		ID:     user.TierID,
		Code:   "unlimited",
		Quotas: datatypes.JSONMap{},
		Active: true,
	}
	usage := &usageStub{used: map[metric.Metric]int64{metric.PromptCreation: 5_000}}

	svc := newSummary(user, tier, usage, &counterStub{}, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	report, err := svc.Summarize(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	prompts := findReport(t, report, metric.PromptCreation)
	if !prompts.IsUnlimited {
		t.Fatalf("prompt report = %+v, want unlimited", prompts)
	}
	if prompts.Remaining != summarydomain.UnlimitedRemaining {
		t.Fatalf("remaining = %d, want %d sentinel", prompts.Remaining, summarydomain.UnlimitedRemaining)
	}
	if prompts.Used != 5_000 {
		t.Fatalf("used = %d, usage still reported for unlimited metrics", prompts.Used)
	}
	if prompts.IsAtLimit || prompts.IsNearLimit {
		t.Fatalf("prompt flags = %+v, want no limit flags", prompts)
	}
}

func TestSummarizeAtAndOverLimit(t *testing.T) {
	node := mustNode(t)
	user := &userdomain.User{ID: node.Generate(), TierID: node.Generate()}
	tier := &tierdomain.Tier{
		ID:   user.TierID,
		Code: "free",
		Quotas: datatypes.JSONMap{
			metric.PromptCreation.String(): int64(50),
			metric.NoteCreation.String():   int64(100),
		},
		Active: true,
	}
	usage := &usageStub{used: map[metric.Metric]int64{metric.PromptCreation: 50}}
	// Lifetime count can exceed the limit after a downgrade.
	counter := &counterStub{counts: map[metric.Metric]int64{metric.NoteCreation: 120}}

	svc := newSummary(user, tier, usage, counter, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	report, err := svc.Summarize(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	prompts := findReport(t, report, metric.PromptCreation)
	if !prompts.IsAtLimit || prompts.Percent != 100 || prompts.Remaining != 0 {
		t.Fatalf("prompt report = %+v, want at limit", prompts)
	}

	notes := findReport(t, report, metric.NoteCreation)
	if notes.Percent != 120 {
		t.Fatalf("note percent = %d, lifetime over-quota must stay visible", notes.Percent)
	}
	if notes.Remaining != 0 {
		t.Fatalf("note remaining = %d, want clamped to 0", notes.Remaining)
	}
}

func TestSummarizeDegradesOnReadFailure(t *testing.T) {
	node := mustNode(t)
	user := &userdomain.User{ID: node.Generate(), TierID: node.Generate()}
	tier := &tierdomain.Tier{
		ID:   user.TierID,
		Code: "free",
		Quotas: datatypes.JSONMap{
			metric.NoteCreation.String(): int64(100),
		},
		Active: true,
	}
	counter := &counterStub{err: errors.New("db down")}

	svc := newSummary(user, tier, &usageStub{}, counter, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	report, err := svc.Summarize(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	notes := findReport(t, report, metric.NoteCreation)
	if notes.Used != 0 || notes.Remaining != 100 {
		t.Fatalf("note report = %+v, want zeroed usage on read failure", notes)
	}
}
