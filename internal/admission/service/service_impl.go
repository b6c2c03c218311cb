package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	admissiondomain "github.com/quillhq/quill/internal/admission/domain"
	"github.com/quillhq/quill/internal/metering/lifetime"
	"github.com/quillhq/quill/internal/metering/metric"
	obsmetrics "github.com/quillhq/quill/internal/observability/metrics"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	UserSvc  userdomain.Service
	TierSvc  tierdomain.Service
	UsageSvc usagedomain.Service
	Counter  lifetime.Counter
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log *zap.Logger

	usersvc  userdomain.Service
	tiersvc  tierdomain.Service
	usagesvc usagedomain.Service
	counter  lifetime.Counter
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) admissiondomain.Service {
	return &Service{
		log: p.Log.Named("admission.service"),

		usersvc:  p.UserSvc,
		tiersvc:  p.TierSvc,
		usagesvc: p.UsageSvc,
		counter:  p.Counter,
		metrics:  p.Metrics,
	}
}

func (s *Service) CanPerform(ctx context.Context, userID snowflake.ID, m metric.Metric, n int64) admissiondomain.Decision {
	if n <= 0 {
		n = 1
	}
	decision := admissiondomain.Decision{
		Metric:    m,
		Requested: n,
		Lifetime:  m.IsLifetime(),
	}

	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return s.deny(ctx, decision, "user lookup failed", userID, err)
	}

	tier, err := s.tiersvc.Resolve(ctx, user.TierID)
	if err != nil {
		return s.deny(ctx, decision, "tier resolution failed", userID, err)
	}

	// A user without an assigned tier gets the fallback persisted so the
	// anomaly self-heals instead of resolving on every request.
	if user.TierID == 0 {
		if err := s.usersvc.EnsureTier(ctx, user.ID, tier.ID); err != nil {
			s.log.Warn("fallback tier assignment failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		} else {
			s.metrics.IncFallbackTierFix()
			s.log.Info("assigned fallback tier",
				zap.String("user_id", userID.String()),
				zap.String("tier_id", tier.ID.String()),
			)
		}
	}

	limit := tier.Limit(m)
	decision.Limit = limit

	// Unlimited short-circuits before any usage read.
	if metric.IsUnlimited(limit) {
		decision.Allowed = true
		decision.Unlimited = true
		decision.Reason = admissiondomain.ReasonUnlimited
		s.metrics.IncAdmissionAllowed(m.String())
		return decision
	}

	var used int64
	if m.IsLifetime() {
		used, err = s.counter.CountForUser(ctx, userID, m)
	} else {
		used, err = s.usagesvc.CurrentUsage(ctx, userID, m)
	}
	if err != nil {
		return s.deny(ctx, decision, "usage lookup failed", userID, err)
	}
	decision.Used = used

	if used+n <= limit {
		decision.Allowed = true
		decision.Reason = admissiondomain.ReasonWithinLimit
		s.metrics.IncAdmissionAllowed(m.String())
		return decision
	}

	decision.Reason = admissiondomain.ReasonLimitReached
	s.metrics.IncAdmissionDenied(m.String(), decision.Reason)
	return decision
}

// deny is the fail-closed path: errors never allow unmetered consumption.
func (s *Service) deny(ctx context.Context, decision admissiondomain.Decision, msg string, userID snowflake.ID, err error) admissiondomain.Decision {
	_ = ctx
	decision.Allowed = false
	decision.Reason = admissiondomain.ReasonLookupFailed
	s.metrics.IncAdmissionDenied(decision.Metric.String(), decision.Reason)
	s.log.Error(msg,
		zap.String("user_id", userID.String()),
		zap.String("metric", decision.Metric.String()),
		zap.Error(err),
	)
	return decision
}
