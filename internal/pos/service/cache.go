package service

import (
	"context"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
	"golang.org/x/exp/rand"
)

const menuCacheKey = "pos:menu:all"

type MenuCache interface {
	GetMenu(ctx context.Context) ([]domain.MenuItem, bool, error)
	SetMenu(ctx context.Context, items []domain.MenuItem, ttl time.Duration) error
	DelMenu(ctx context.Context) error
}

type redisMenuCache struct {
	client *redis.Client
}

func NewRedisMenuCache(c *redis.Client) MenuCache {
	return &redisMenuCache{client: c}
}

func (r *redisMenuCache) GetMenu(ctx context.Context) ([]domain.MenuItem, bool, error) {
	b, err := r.client.Get(ctx, menuCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []domain.MenuItem
	if err := json.Unmarshal(b, &items); err != nil {
		// 缓存脏了就删掉，避免持续命中错误
		_ = r.client.Del(ctx, menuCacheKey).Err()
		return nil, false, err
	}
	return items, true, nil
}

func (r *redisMenuCache) SetMenu(ctx context.Context, items []domain.MenuItem, ttl time.Duration) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, menuCacheKey, b, withJitter(ttl, 3*time.Second)).Err()
}

func (r *redisMenuCache) DelMenu(ctx context.Context) error {
	return r.client.Del(ctx, menuCacheKey).Err()
}

func withJitter(ttl time.Duration, jitter time.Duration) time.Duration {
	if ttl <= 0 || jitter <= 0 {
		return ttl
	}
	// [0, jitter) 的随机
	return ttl + time.Duration(rand.Int63n(int64(jitter)))
}
