package service

import (
	"context"
	"strings"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/metrics"
	"coffeeshop.com/pkg/xerr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type MenuItemInput struct {
	Name      string          `json:"name" binding:"required,max=128"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category" binding:"max=64"`
	Available *bool           `json:"available"`
}

type MenuService struct {
	repo  domain.Repo
	cache MenuCache // nil 时不走缓存
	ttl   time.Duration
	sf    singleflight.Group
}

func NewMenuService(repo domain.Repo, cache MenuCache, ttl time.Duration) *MenuService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MenuService{repo: repo, cache: cache, ttl: ttl}
}

// List 整份菜单走缓存，过滤在内存里做
func (s *MenuService) List(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MenuItem, 0, len(all))
	for _, m := range all {
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !m.Available {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *MenuService) all(ctx context.Context) ([]domain.MenuItem, error) {
	if s.cache == nil {
		return s.repo.ListMenuItems(ctx, domain.MenuFilter{})
	}
	items, ok, err := s.cache.GetMenu(ctx)
	if err != nil {
		metrics.CacheRequests.WithLabelValues("menu", "error").Inc()
		logger.Warn(ctx, "menu cache get failed", zap.Error(err))
	}
	if ok {
		metrics.CacheRequests.WithLabelValues("menu", "hit").Inc()
		return items, nil
	}
	metrics.CacheRequests.WithLabelValues("menu", "miss").Inc()

	// 同一时刻只放一个请求回源
	v, err, _ := s.sf.Do(menuCacheKey, func() (interface{}, error) {
		items, err := s.repo.ListMenuItems(ctx, domain.MenuFilter{})
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetMenu(ctx, items, s.ttl); err != nil {
			logger.Warn(ctx, "menu cache set failed", zap.Error(err))
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MenuItem), nil
}

func (s *MenuService) Get(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}

func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (*domain.MenuItem, error) {
	m := &domain.MenuItem{Available: true}
	if err := applyMenuInput(m, in); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMenuItem(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *MenuService) Update(ctx context.Context, id uint64, in MenuItemInput) (*domain.MenuItem, error) {
	m, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyMenuInput(m, in); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMenuItem(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *MenuService) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *MenuService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelMenu(ctx); err != nil {
		logger.Warn(ctx, "menu cache invalidate failed", zap.Error(err))
	}
}

func applyMenuInput(m *domain.MenuItem, in MenuItemInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return xerr.New(xerr.RequestParamsError, "name is required")
	}
	if in.Price.IsNegative() {
		return xerr.New(xerr.RequestParamsError, "price must not be negative")
	}
	m.Name = name
	m.Price = in.Price
	m.Category = strings.TrimSpace(in.Category)
	if in.Available != nil {
		m.Available = *in.Available
	}
	return nil
}
