package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/cache"
	"github.com/quillhq/quill/internal/metering/metric"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	"github.com/quillhq/quill/pkg/db"
	"github.com/quillhq/quill/pkg/db/option"
	"github.com/quillhq/quill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	tierTTL     = 5 * time.Minute
	fallbackKey = "__fallback__"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	tierrepo repository.Repository[tierdomain.Tier]
	tiers    cache.Cache[string, *tierdomain.Tier]
}

func NewService(p ServiceParam) tierdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("tier.service"),

		genID:    p.GenID,
		tierrepo: repository.ProvideStore[tierdomain.Tier](p.DB),
		tiers:    cache.NewTTLCache[string, *tierdomain.Tier](),
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*tierdomain.Tier, error) {
	if id == 0 {
		return nil, nil
	}
	if tier, ok := s.tiers.Get(id.String()); ok {
		return tier, nil
	}
	tier, err := s.tierrepo.FindOne(ctx, &tierdomain.Tier{ID: id})
	if err != nil {
		return nil, err
	}
	if tier != nil {
		s.tiers.Set(id.String(), tier, tierTTL)
	}
	return tier, nil
}

func (s *Service) Resolve(ctx context.Context, id snowflake.ID) (*tierdomain.Tier, error) {
	if id != 0 {
		tier, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tier != nil && tier.Active {
			return tier, nil
		}
		// Unknown or inactive tier ids degrade to the fallback tier so a
		// stale foreign key never breaks an admission check.
		s.log.Warn("tier lookup fell back",
			zap.String("tier_id", id.String()),
			zap.Bool("found", tier != nil),
		)
	}
	return s.Fallback(ctx)
}

func (s *Service) Fallback(ctx context.Context) (*tierdomain.Tier, error) {
	if tier, ok := s.tiers.Get(fallbackKey); ok {
		return tier, nil
	}
	tier, err := s.tierrepo.FindOne(ctx, &tierdomain.Tier{Active: true},
		option.WithOrderBy("display_order ASC, id ASC"),
	)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, tierdomain.ErrNoActiveTier
	}
	s.tiers.Set(fallbackKey, tier, tierTTL)
	return tier, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*tierdomain.Tier, error) {
	return s.tierrepo.Find(ctx, &tierdomain.Tier{Active: true},
		option.WithOrderBy("display_order ASC, id ASC"),
	)
}

func (s *Service) Create(ctx context.Context, req tierdomain.CreateTierRequest) (*tierdomain.Tier, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, tierdomain.ErrInvalidTierCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tierdomain.ErrInvalidTierName
	}
	quotas, err := normalizeQuotas(req.Quotas)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	tier := &tierdomain.Tier{
		ID:           s.genID.Generate(),
		Code:         code,
		Name:         name,
		Quotas:       quotas,
		Features:     datatypes.NewJSONSlice(req.Features),
		Active:       active,
		DisplayOrder: req.DisplayOrder,
	}
	if err := s.tierrepo.Create(ctx, tier); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tierdomain.ErrDuplicateTier
		}
		return nil, err
	}
	s.invalidate()
	return tier, nil
}

func (s *Service) Update(ctx context.Context, req tierdomain.UpdateTierRequest) (*tierdomain.Tier, error) {
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return nil, tierdomain.ErrTierNotFound
	}
	existing, err := s.tierrepo.FindOne(ctx, &tierdomain.Tier{ID: id})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, tierdomain.ErrTierNotFound
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, tierdomain.ErrInvalidTierName
		}
		updates["name"] = name
	}
	if req.Quotas != nil {
		quotas, err := normalizeQuotas(*req.Quotas)
		if err != nil {
			return nil, err
		}
		updates["quotas"] = quotas
	}
	if req.Features != nil {
		updates["features"] = datatypes.NewJSONSlice(*req.Features)
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}

	if err := s.tierrepo.Update(ctx, id.String(), updates); err != nil {
		return nil, err
	}
	s.invalidate()
	return s.tierrepo.FindOne(ctx, &tierdomain.Tier{ID: id})
}

func (s *Service) invalidate() {
	s.tiers.Purge()
}

// normalizeQuotas rejects unknown metric codes and negative limits. The
// metric taxonomy is closed; admins cannot invent new counters.
func normalizeQuotas(quotas map[string]int64) (datatypes.JSONMap, error) {
	out := datatypes.JSONMap{}
	for code, limit := range quotas {
		m, err := metric.Parse(code)
		if err != nil {
			return nil, tierdomain.ErrInvalidQuota
		}
		if limit < 0 {
			return nil, tierdomain.ErrInvalidQuota
		}
		out[m.String()] = limit
	}
	return out, nil
}
