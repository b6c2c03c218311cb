package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/metering/cycle"
	"github.com/quillhq/quill/internal/metering/metric"
	obsmetrics "github.com/quillhq/quill/internal/observability/metrics"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	UserSvc userdomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	usersvc userdomain.Service
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		usersvc: p.UserSvc,
		metrics: p.Metrics,
	}
}

func (s *Service) Increment(ctx context.Context, userID snowflake.ID, m metric.Metric, n int64) error {
	if n <= 0 {
		return usagedomain.ErrInvalidCount
	}
	if m.IsLifetime() {
		return usagedomain.ErrLifetimeMetered
	}

	cycleStart, err := s.cycleStart(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	record := usagedomain.UsageRecord{
		ID:         s.genID.Generate(),
		UserID:     userID,
		Metric:     m.String(),
		CycleStart: cycleStart,
		Count:      n,
		ResetAt:    cycleStart,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Single-statement insert-or-add on the (user, metric, cycle) key.
	// Read-modify-write here would lose updates under concurrent requests
	// for the same user; the unique index makes the conflict path atomic.
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "metric"},
			{Name: "cycle_start"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("usage_records.count + ?", n),
			"updated_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return err
	}

	s.metrics.IncUsageIncrement(m.String())
	return nil
}

func (s *Service) CurrentUsage(ctx context.Context, userID snowflake.ID, m metric.Metric) (int64, error) {
	cycleStart, err := s.cycleStart(ctx, userID)
	if err != nil {
		return 0, err
	}

	var record usagedomain.UsageRecord
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND metric = ? AND cycle_start = ?", userID, m.String(), cycleStart).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Count, nil
}

func (s *Service) SweepBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var total int64
	for {
		res := s.db.WithContext(ctx).Exec(
			`DELETE FROM usage_records
			 WHERE id IN (
				SELECT id FROM usage_records
				WHERE cycle_start < ?
				ORDER BY cycle_start ASC
				LIMIT ?
			 )`,
			cutoff,
			batchSize,
		)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
		if res.RowsAffected < int64(batchSize) {
			return total, nil
		}
	}
}

// cycleStart centralizes the anchor-day derivation: every component asks
// the calculator through here instead of redoing the arithmetic inline.
func (s *Service) cycleStart(ctx context.Context, userID snowflake.ID) (time.Time, error) {
	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return cycle.Start(user.RegisteredAt, s.clock.Now()), nil
}
