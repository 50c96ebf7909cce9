package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"coffeeshop.com/internal/pos/config"
	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/pos/handler"
	poshttp "coffeeshop.com/internal/pos/http"
	"coffeeshop.com/internal/pos/repo/mysql"
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/internal/printjob"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/internal/realtime/gateway"
	"coffeeshop.com/pkg/bootstrap"
	vipConfig "coffeeshop.com/pkg/config"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/metrics"
	"coffeeshop.com/pkg/orm"
	"coffeeshop.com/pkg/ratelimit"
	"coffeeshop.com/pkg/trace"
	"coffeeshop.com/pkg/xredis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type App struct {
	cfg *config.Cfg

	db     *gorm.DB
	rdb    *redis.Client
	broker gateway.Broker

	kitchen *realtime.Registry
	printer *realtime.Registry
	pub     *realtime.Publisher
	gw      *gateway.Gateway
	limiter *ratelimit.Store

	srv           *http.Server
	traceShutdown func(context.Context) error
}

// New 加载配置并初始化日志
func New(name string) (*App, error) {
	cfg := &config.Cfg{}
	if _, err := vipConfig.LoadAndWatch(name, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	logger.InitWithFile(cfg.Name, cfg.Log.Level, cfg.Log.File)
	return &App{cfg: cfg}, nil
}

// Start 建连、组装依赖；失败时已建立的连接由 Close 释放
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfg
	metrics.MustRegister()

	if cfg.OTel.Enabled {
		shutdown, err := trace.InitTrace(cfg.Name, cfg.OTel.Addr)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		a.traceShutdown = shutdown
	}
	if err := bootstrap.InitSentinel(&cfg.Sentinel); err != nil {
		return err
	}

	// 数据库
	db, err := orm.NewMySQL(&cfg.Db)
	if err != nil {
		return fmt.Errorf("init mysql: %w", err)
	}
	a.db = db
	if err := db.WithContext(ctx).AutoMigrate(domain.AllModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		metrics.ObserveDBStats(ctx, sqlDB)
	}

	// redis 可选：没配就不走缓存
	var menuCache service.MenuCache
	if cfg.Redis.Addr != "" {
		rdb, err := xredis.NewRedis(ctx, &cfg.Redis.Config)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.rdb = rdb
		menuCache = service.NewRedisMenuCache(rdb)
		metrics.ObserveRedisStats(ctx, rdb)
	}

	// 实时推送
	policy := realtime.WithDeliveryPolicy(cfg.WS.Delivery)
	a.kitchen = realtime.NewRegistry(realtime.RoleKitchen, policy)
	a.printer = realtime.NewRegistry(realtime.RolePrinter, policy)
	a.pub = realtime.NewPublisher(realtime.WithMaxInflight(cfg.WS.MaxInflight))

	broker, err := a.newBroker()
	if err != nil {
		return fmt.Errorf("init broker: %w", err)
	}
	a.broker = broker
	a.gw = gateway.New(a.nodeName(), broker, a.pub, a.kitchen, a.printer)
	a.pub.SetRelay(a.gw)

	var fwd *printjob.Forwarder
	if len(cfg.Printers) > 0 {
		breakers := ratelimit.NewManager(ratelimit.Rule{}, nil)
		fwd = printjob.NewForwarder(cfg.Printers, &http.Client{Timeout: 5 * time.Second}, breakers)
	}

	// 业务
	repo := mysql.New(db)
	notify := service.NewRealtimeNotifier(a.pub, a.kitchen, a.printer, fwd)

	if cfg.RateLimit.RPS > 0 {
		a.limiter = ratelimit.NewStore(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst, 10*time.Minute)
		a.limiter.StartJanitor(ctx, time.Minute)
	}

	a.srv = poshttp.NewRouter(cfg.HTTP.Addr, poshttp.Deps{
		Name:     cfg.Name,
		Menu:     &handler.Menu{Svc: service.NewMenuService(repo, menuCache, cfg.Redis.MenuTTL)},
		Table:    &handler.Table{Svc: service.NewTableService(repo)},
		Order:    &handler.Order{Svc: service.NewOrderService(repo, notify)},
		Shift:    &handler.Shift{Svc: service.NewShiftService(repo, notify)},
		Realtime: &handler.Realtime{Registries: []*realtime.Registry{a.kitchen, a.printer}, Publisher: a.pub},
		Kitchen:  a.wsServer(ctx, a.kitchen),
		Printer:  a.wsServer(ctx, a.printer),
		Limiter:  a.limiter,
		Metrics:  true,
	})
	return nil
}

func (a *App) wsServer(ctx context.Context, reg *realtime.Registry) *realtime.Server {
	ws := a.cfg.WS
	s := realtime.NewServer(ctx, reg)
	if ws.PongWait > 0 {
		s.PongWait = ws.PongWait
	}
	if ws.PingPeriod > 0 {
		s.PingPeriod = ws.PingPeriod
	}
	if ws.WriteWait > 0 {
		s.WriteWait = ws.WriteWait
	}
	if ws.ReadLimit > 0 {
		s.ReadLimit = ws.ReadLimit
	}
	if ws.AcceptRPS > 0 {
		s.Limiter = ratelimit.NewStore(rate.Limit(ws.AcceptRPS), max(ws.AcceptBurst, 1), 10*time.Minute)
		s.Limiter.StartJanitor(ctx, time.Minute)
	}
	return s
}

func (a *App) newBroker() (gateway.Broker, error) {
	switch a.cfg.Broker.Kind {
	case "", "mem":
		return gateway.NewMemBroker(), nil
	case "nats":
		return gateway.NewNatsBroker(a.cfg.Broker.URL)
	case "redis":
		if a.rdb == nil {
			return nil, errors.New("broker kind redis requires redis.addr")
		}
		return gateway.NewRedisBroker(a.rdb), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", a.cfg.Broker.Kind)
	}
}

func (a *App) nodeName() string {
	if a.cfg.Node != "" {
		return a.cfg.Node
	}
	host, _ := os.Hostname()
	return host + "-" + uuid.NewString()[:8]
}

// Run 阻塞到 ctx 结束或任一组件出错，然后优雅关闭 http 和 publisher
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "http listening", zap.String("addr", a.srv.Addr))
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := a.gw.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "http shutdown error", zap.Error(err))
		}
		// 已入队的事件尽量发完
		if err := a.pub.Close(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "publisher close timeout", zap.Int("pending", a.pub.Pending()), zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// Close 释放外部连接，可重复调用
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.broker != nil {
		_ = a.broker.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(ctx); err != nil {
			logger.Error(ctx, "shutdown tracer error", zap.Error(err))
		}
	}
	logger.Sync()
}
