package http

import (
	"net/http"
	"time"

	"coffeeshop.com/internal/pos/handler"
	"coffeeshop.com/internal/pos/http/router"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/middleware"
	"coffeeshop.com/pkg/ratelimit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprom "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Name     string
	Menu     *handler.Menu
	Table    *handler.Table
	Order    *handler.Order
	Shift    *handler.Shift
	Realtime *handler.Realtime
	// ws 入口
	Kitchen *realtime.Server
	Printer *realtime.Server
	// http 限流，nil 不限
	Limiter *ratelimit.Store
	// 为 false 时不挂 ginprom（测试里重复注册指标）
	Metrics bool
}

func NewEngine(d Deps) *gin.Engine {
	r := gin.New()
	// 监控，/metrics 由 ginprom 注册
	if d.Metrics {
		p := ginprom.NewPrometheus("pos")
		p.Use(r)
	}
	r.Use(
		otelgin.Middleware(d.Name),
		middleware.ReqId(),
		cors.Default(),
		middleware.Recover(),
	)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// ws 自带按 IP 的建连限流
	if d.Kitchen != nil {
		r.GET("/ws/order", gin.WrapH(d.Kitchen.Handler()))
	}
	if d.Printer != nil {
		r.GET("/ws/printer", gin.WrapH(d.Printer.Handler()))
	}

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	api.Use(middleware.Sentinel(""))
	router.Menu(api, d.Menu)
	router.Table(api, d.Table)
	router.Order(api, d.Order)
	router.Shift(api, d.Shift)
	router.Realtime(api, d.Realtime)
	return r
}

func NewRouter(addr string, d Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewEngine(d),
		ReadHeaderTimeout: 5 * time.Second,
		// 不设 WriteTimeout：ws 长连接
		MaxHeaderBytes: 1 << 20,
	}
}
