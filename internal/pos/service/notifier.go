package service

import (
	"context"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/printjob"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/logger"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// Notifier 事务提交之后才调用；实现必须立即返回
type Notifier interface {
	OrderChanged(ctx context.Context, action realtime.OrderAction, o *domain.Order)
	Print(ctx context.Context, job printjob.PrintJob)
}

// RealtimeNotifier 订单变更推给厨房屏，打印任务推给打印机连接和网络打印机
type RealtimeNotifier struct {
	pub       *realtime.Publisher
	kitchen   *realtime.Registry
	printer   *realtime.Registry
	forwarder *printjob.Forwarder
	now       func() time.Time
}

func NewRealtimeNotifier(pub *realtime.Publisher, kitchen, printer *realtime.Registry, fwd *printjob.Forwarder) *RealtimeNotifier {
	return &RealtimeNotifier{pub: pub, kitchen: kitchen, printer: printer, forwarder: fwd, now: time.Now}
}

func (n *RealtimeNotifier) OrderChanged(ctx context.Context, action realtime.OrderAction, o *domain.Order) {
	raw, err := json.Marshal(o)
	if err != nil {
		logger.Error(ctx, "marshal order snapshot failed", zap.Uint64("order_id", o.ID), zap.Error(err))
		return
	}
	n.pub.Publish(n.kitchen, realtime.NewOrderUpdate(action, raw, n.now()))
}

func (n *RealtimeNotifier) Print(ctx context.Context, job printjob.PrintJob) {
	if len(job) == 0 {
		return
	}
	n.pub.Publish(n.printer, realtime.NewPrint(job, n.now()))
	if n.forwarder != nil {
		n.forwarder.Dispatch(ctx, job)
	}
}
