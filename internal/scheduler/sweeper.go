// Package scheduler runs the out-of-band retention sweep: usage counters
// and notification records from cycles past the retention horizon are
// deleted in batches. Enforcement never reads swept data, so the sweep is
// purely hygiene and can lag without correctness impact.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/lock"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepLockKey = "quill:retention:sweep"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Metering *config.MeteringConfigHolder
	UsageSvc usagedomain.Service
	Locker   *lock.Locker `optional:"true"`
}

type Sweeper struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	metering *config.MeteringConfigHolder
	usagesvc usagedomain.Service
	locker   *lock.Locker
}

func New(p Params) (*Sweeper, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Metering == nil || p.UsageSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		db:       p.DB,
		log:      p.Log.Named("scheduler").With(zap.String("component", "sweeper")),
		clock:    p.Clock,
		metering: p.Metering,
		usagesvc: p.UsageSvc,
		locker:   p.Locker,
	}, nil
}

var ErrInvalidConfig = errors.New("invalid_sweeper_config")

// RunOnce performs a single sweep pass. With a locker configured the pass
// is single-flight across replicas; losing the lock race is not an error.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	cfg := s.metering.Get()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, sweepLockKey, cfg.SweepInterval)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("sweep lock held elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := s.locker.Release(ctx, sweepLockKey, token); err != nil {
				s.log.Warn("sweep lock release failed", zap.Error(err))
			}
		}()
	}

	cutoff := s.clock.Now().AddDate(0, -cfg.RetentionMonths, 0)

	usageDeleted, err := s.usagesvc.SweepBefore(ctx, cutoff, cfg.SweepBatchSize)
	if err != nil {
		return err
	}
	notifyDeleted, err := s.sweepNotificationRecords(ctx, cutoff, cfg.SweepBatchSize)
	if err != nil {
		return err
	}

	if usageDeleted > 0 || notifyDeleted > 0 {
		s.log.Info("retention sweep completed",
			zap.Time("cutoff", cutoff),
			zap.Int64("usage_records_deleted", usageDeleted),
			zap.Int64("notification_records_deleted", notifyDeleted),
		)
	}
	return nil
}

// RunForever loops until the context is canceled. Each tick is a full
// pass; a failed pass is logged and retried on the next tick.
func (s *Sweeper) RunForever(ctx context.Context) {
	interval := s.metering.Get().SweepInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("retention sweep failed", zap.Error(err))
		}

		// Interval is hot-reloadable; pick up changes between passes.
		if next := s.metering.Get().SweepInterval; next != interval {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweepNotificationRecords(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var total int64
	for {
		res := s.db.WithContext(ctx).Exec(
			`DELETE FROM notification_records
			 WHERE id IN (
				SELECT id FROM notification_records
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
