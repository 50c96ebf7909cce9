package safe

import (
	"context"
	"runtime/debug"

	"coffeeshop.com/pkg/logger"
	"go.uber.org/zap"
)

// Go 安全启动协程，panic 只记日志不拖垮进程
func Go(fn func()) {
	go func() {
		defer Recover(context.Background(), "goroutine")
		fn()
	}()
}

// GoCtx 安全启动携带 context 的协程，日志里保留请求链路信息
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		defer Recover(ctx, "goroutine")
		fn(ctx)
	}()
}

// Recover 必须直接 defer 调用
func Recover(ctx context.Context, where string) {
	if r := recover(); r != nil {
		logger.Error(ctx, "🚨 PANIC RECOVERED",
			zap.String("where", where),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
