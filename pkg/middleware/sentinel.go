package middleware

import (
	"net/http"

	"coffeeshop.com/pkg/common"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/metrics"
	sentinels "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sentinel 按资源名做流控；resource 为空时用路由模板
func Sentinel(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := resource
		if res == "" {
			res = c.Request.Method + ":" + c.FullPath()
		}
		entry, blockErr := sentinels.Entry(res, sentinels.WithTrafficType(base.Inbound))
		if blockErr != nil {
			logger.Warn(c, "request blocked by sentinel",
				zap.String("resource", res),
				zap.String("blockType", blockErr.BlockType().String()),
			)
			metrics.RateLimitBlockTotal.WithLabelValues("http", res, "sentinel").Inc()
			common.Fail(c, http.StatusTooManyRequests, codeTooManyRequests, "service is busy, please try again later")
			c.Abort()
			return
		}
		defer entry.Exit()

		c.Next()

		// 只把 5xx 记给 sentinel，业务错误不参与熔断统计
		if c.Writer.Status() >= http.StatusInternalServerError {
			sentinels.TraceError(entry, http.ErrAbortHandler)
		}
	}
}
