package common

import (
	"net/http"

	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 定义http返回格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// FailFromErr 把业务错误映射成 http 状态码；非预期错误记 error 日志
func FailFromErr(c *gin.Context, err error) {
	code := xerr.CodeOf(err)
	httpStatus := HTTPStatusOf(code)
	if httpStatus >= http.StatusInternalServerError {
		logger.Error(c, "http error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("biz_code", code),
			zap.Error(err),
		)
	} else {
		logger.Warn(c, "http biz error",
			zap.String("path", c.Request.URL.Path),
			zap.Int("biz_code", code),
			zap.Error(err),
		)
	}
	Fail(c, httpStatus, code, xerr.MsgOf(err))
}

func HTTPStatusOf(code int) int {
	switch code {
	case xerr.RequestParamsError, xerr.ShiftClosed, xerr.InvalidPaperCount, xerr.OrderClosed:
		return http.StatusBadRequest
	case xerr.RecordNotFound:
		return http.StatusNotFound
	case xerr.Conflict, xerr.TableOccupied, xerr.ShiftAlreadyOpen:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
