package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/metering/cycle"
	"github.com/quillhq/quill/internal/metering/lifetime"
	"github.com/quillhq/quill/internal/metering/metric"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	obsmetrics "github.com/quillhq/quill/internal/observability/metrics"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"github.com/quillhq/quill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Metering   *config.MeteringConfigHolder
	UserSvc    userdomain.Service
	TierSvc    tierdomain.Service
	UsageSvc   usagedomain.Service
	Counter    lifetime.Counter
	Dispatcher notificationdomain.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	metering   *config.MeteringConfigHolder
	usersvc    userdomain.Service
	tiersvc    tierdomain.Service
	usagesvc   usagedomain.Service
	counter    lifetime.Counter
	dispatcher notificationdomain.Dispatcher
	metrics    *obsmetrics.Metrics
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("notification.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		metering:   p.Metering,
		usersvc:    p.UserSvc,
		tiersvc:    p.TierSvc,
		usagesvc:   p.UsageSvc,
		counter:    p.Counter,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

func (s *Service) Evaluate(ctx context.Context, userID snowflake.ID, m metric.Metric) (*notificationdomain.Crossing, error) {
	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier, err := s.tiersvc.Resolve(ctx, user.TierID)
	if err != nil {
		return nil, err
	}

	limit := tier.Limit(m)
	if metric.IsUnlimited(limit) {
		return nil, nil
	}

	var used int64
	if m.IsLifetime() {
		used, err = s.counter.CountForUser(ctx, userID, m)
	} else {
		used, err = s.usagesvc.CurrentUsage(ctx, userID, m)
	}
	if err != nil {
		return nil, err
	}

	percent := percentage(used, limit, m.IsLifetime())
	cycleStart := cycle.Start(user.RegisteredAt, s.clock.Now())

	// Highest first: only the highest newly-crossed level is reported;
	// lower levels for the same evaluation are not separately announced.
	for _, level := range s.metering.Get().Thresholds {
		if percent < level {
			continue
		}
		notified, err := s.alreadyNotified(ctx, userID, m, cycleStart, level)
		if err != nil {
			return nil, err
		}
		if notified {
			return nil, nil
		}
		return &notificationdomain.Crossing{
			UserID:     userID,
			Metric:     m,
			CycleStart: cycleStart,
			Level:      level,
			Used:       used,
			Limit:      limit,
			Percent:    percent,
		}, nil
	}
	return nil, nil
}

func (s *Service) MarkNotified(ctx context.Context, crossing notificationdomain.Crossing) error {
	now := s.clock.Now()
	record := notificationdomain.NotificationRecord{
		ID:         s.genID.Generate(),
		UserID:     crossing.UserID,
		Metric:     crossing.Metric.String(),
		CycleStart: crossing.CycleStart,
		Level:      crossing.Level,
		NotifiedAt: now,
		CreatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent evaluation won the race; this level is handled.
			return notificationdomain.ErrAlreadyNotified
		}
		return err
	}
	return nil
}

func (s *Service) Notify(ctx context.Context, userID snowflake.ID, m metric.Metric) {
	crossing, err := s.Evaluate(ctx, userID, m)
	if err != nil {
		s.log.Warn("threshold evaluation failed",
			zap.String("user_id", userID.String()),
			zap.String("metric", m.String()),
			zap.Error(err),
		)
		return
	}
	if crossing == nil {
		return
	}

	// Record before dispatch: a delivery failure must not re-fire the
	// same level next evaluation.
	if err := s.MarkNotified(ctx, *crossing); err != nil {
		if err != notificationdomain.ErrAlreadyNotified {
			s.log.Warn("threshold record write failed",
				zap.String("user_id", userID.String()),
				zap.String("metric", m.String()),
				zap.Int("level", crossing.Level),
				zap.Error(err),
			)
		}
		return
	}
	s.metrics.IncThresholdCrossed(m.String(), strconv.Itoa(crossing.Level))

	if err := s.dispatcher.Dispatch(ctx, *crossing); err != nil {
		s.metrics.IncDispatchFailure()
		s.log.Warn("threshold notification dispatch failed",
			zap.String("user_id", userID.String()),
			zap.String("metric", m.String()),
			zap.Int("level", crossing.Level),
			zap.Error(err),
		)
	}
}

func (s *Service) alreadyNotified(ctx context.Context, userID snowflake.ID, m metric.Metric, cycleStart time.Time, level int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&notificationdomain.NotificationRecord{}).
		Where("user_id = ? AND metric = ? AND cycle_start = ? AND level = ?", userID, m.String(), cycleStart, level).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// percentage computes used/limit in percent. Cycle metrics cap at 100;
// lifetime metrics report the unbounded value so over-quota states stay
// visible.
func percentage(used, limit int64, isLifetime bool) int {
	if limit <= 0 {
		return 0
	}
	pct := int(math.Round(float64(used) / float64(limit) * 100))
	if !isLifetime && pct > 100 {
		return 100
	}
	return pct
}
