package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"coffeeshop.com/internal/pos/app"
	"coffeeshop.com/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 支持 Ctrl+C / kubernetes 停止信号的 context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	posApp, err := app.New("pos-server")
	if err != nil {
		log.Fatalf("init pos-server error: %v", err)
	}
	defer posApp.Close()

	if err := posApp.Start(ctx); err != nil {
		logger.Fatal(ctx, "start pos-server failed", zap.Error(err))
	}
	if err := posApp.Run(ctx); err != nil {
		logger.Error(ctx, "pos-server stopped with error", zap.Error(err))
		return
	}
	logger.Info(ctx, "pos-server exit")
}
