package middleware

import (
	"net/http"

	"coffeeshop.com/pkg/common"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/metrics"
	"coffeeshop.com/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const codeTooManyRequests = 1003001

func RateLimit(store *ratelimit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + ":" + route

		if !store.Allow(key) {
			// 限流属于可控拒绝，不打堆栈
			logger.Warn(c, "http rate limited",
				zap.String("ip", c.ClientIP()),
				zap.String("route", route),
			)
			metrics.RateLimitBlockTotal.WithLabelValues("http", route, "ratelimit").Inc()
			common.Fail(c, http.StatusTooManyRequests, codeTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
