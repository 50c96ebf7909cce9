package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	DbPoolOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_db_pool_open",
		Help: "Current open DB connections",
	})
	DbPoolIdle         = promauto.NewGauge(prometheus.GaugeOpts{Name: "app_db_pool_idle"})
	DbPoolInuse        = promauto.NewGauge(prometheus.GaugeOpts{Name: "app_db_pool_inuse"})
	DbPoolWaitCount    = promauto.NewCounter(prometheus.CounterOpts{Name: "app_db_pool_wait_count"})
	DbPoolWaitDuration = promauto.NewCounter(prometheus.CounterOpts{Name: "app_db_pool_wait_seconds"})

	RedisPoolOpen  = promauto.NewGauge(prometheus.GaugeOpts{Name: "app_redis_pool_open"})
	RedisPoolIdle  = promauto.NewGauge(prometheus.GaugeOpts{Name: "app_redis_pool_idle"})
	RedisPoolStale = promauto.NewGauge(prometheus.GaugeOpts{Name: "app_redis_pool_stale"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_cache_requests_total",
		Help: "Cache lookups partitioned by result",
	}, []string{"cache", "result"}) // hit/miss/error
)

// ObserveDBStats 每 5s 采集一次 DB 连接池指标，ctx 结束退出
func ObserveDBStats(ctx context.Context, db *sql.DB) {
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		var lastWaitCount int64
		var lastWaitDuration time.Duration
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			st := db.Stats()
			DbPoolOpen.Set(float64(st.OpenConnections))
			DbPoolIdle.Set(float64(st.Idle))
			DbPoolInuse.Set(float64(st.InUse))

			if d := st.WaitCount - lastWaitCount; d > 0 {
				DbPoolWaitCount.Add(float64(d))
				lastWaitCount = st.WaitCount
			}
			if d := st.WaitDuration - lastWaitDuration; d > 0 {
				DbPoolWaitDuration.Add(d.Seconds())
				lastWaitDuration = st.WaitDuration
			}
		}
	}()
}

// ObserveRedisStats 采集 Redis 连接池指标
func ObserveRedisStats(ctx context.Context, rdb *redis.Client) {
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			st := rdb.PoolStats()
			RedisPoolOpen.Set(float64(st.TotalConns))
			RedisPoolIdle.Set(float64(st.IdleConns))
			RedisPoolStale.Set(float64(st.StaleConns))
		}
	}()
}
