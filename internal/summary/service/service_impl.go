package service

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/metering/cycle"
	"github.com/quillhq/quill/internal/metering/lifetime"
	"github.com/quillhq/quill/internal/metering/metric"
	summarydomain "github.com/quillhq/quill/internal/summary/domain"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Metering *config.MeteringConfigHolder
	UserSvc  userdomain.Service
	TierSvc  tierdomain.Service
	UsageSvc usagedomain.Service
	Counter  lifetime.Counter
}

type Service struct {
	log *zap.Logger

	clock clock.Clock
	// nearLimitRatio comes in through configuration at construction time
	// instead of an ambient settings lookup.
	metering *config.MeteringConfigHolder
	usersvc  userdomain.Service
	tiersvc  tierdomain.Service
	usagesvc usagedomain.Service
	counter  lifetime.Counter
}

func NewService(p ServiceParam) summarydomain.Service {
	return &Service{
		log: p.Log.Named("summary.service"),

		clock:    p.Clock,
		metering: p.Metering,
		usersvc:  p.UserSvc,
		tiersvc:  p.TierSvc,
		usagesvc: p.UsageSvc,
		counter:  p.Counter,
	}
}

func (s *Service) Summarize(ctx context.Context, userID snowflake.ID) (*summarydomain.Report, error) {
	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier, err := s.tiersvc.Resolve(ctx, user.TierID)
	if err != nil {
		return nil, err
	}

	cycleStart, nextReset := cycle.Window(user.RegisteredAt, s.clock.Now())
	nearLimitRatio := s.metering.Get().NearLimitRatio

	report := &summarydomain.Report{
		UserID:     user.ID,
		TierID:     tier.ID,
		TierCode:   tier.Code,
		TierName:   tier.Name,
		CycleStart: cycleStart,
		NextReset:  nextReset,
		Metrics:    make([]summarydomain.MetricReport, 0, len(metric.All())),
	}

	for _, m := range metric.All() {
		report.Metrics = append(report.Metrics, s.metricReport(ctx, user, tier, m, nearLimitRatio))
	}
	return report, nil
}

func (s *Service) metricReport(ctx context.Context, user *userdomain.User, tier *tierdomain.Tier, m metric.Metric, nearLimitRatio float64) summarydomain.MetricReport {
	limit := tier.Limit(m)
	entry := summarydomain.MetricReport{
		Metric:      m,
		Limit:       limit,
		IsUnlimited: metric.IsUnlimited(limit),
		IsLifetime:  m.IsLifetime(),
	}

	used, err := s.usedFor(ctx, user.ID, m)
	if err != nil {
		// Display path: degrade to zero rather than failing the report.
		s.log.Warn("usage read failed for summary",
			zap.String("user_id", user.ID.String()),
			zap.String("metric", m.String()),
			zap.Error(err),
		)
		used = 0
	}
	entry.Used = used

	if entry.IsUnlimited {
		entry.Remaining = summarydomain.UnlimitedRemaining
		return entry
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	entry.Remaining = remaining

	pct := int(math.Round(float64(used) / float64(limit) * 100))
	if !entry.IsLifetime && pct > 100 {
		pct = 100
	}
	entry.Percent = pct
	entry.IsAtLimit = used >= limit
	entry.IsNearLimit = float64(used)/float64(limit) >= nearLimitRatio
	return entry
}

func (s *Service) usedFor(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error) {
	if m.IsLifetime() {
		return s.counter.CountForUser(ctx, userID, m)
	}
	return s.usagesvc.CurrentUsage(ctx, userID, m)
}
