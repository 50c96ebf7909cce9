package printjob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/metrics"
	"coffeeshop.com/pkg/ratelimit"
	"coffeeshop.com/pkg/safe"
	"coffeeshop.com/pkg/xerr"
	"github.com/segmentio/encoding/json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Printer 网络打印机（打印代理的 http 入口）
type Printer struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"` // e.g. http://192.168.1.50:8080/print
}

// Forwarder 把打印任务 POST 给网络打印机，每台打印机一个熔断器
type Forwarder struct {
	// 每台打印机最多尝试次数及间隔，打印代理重启时常有短暂 5xx/连接失败
	Attempts int
	Backoff  time.Duration

	printers []Printer
	client   *http.Client
	breakers *ratelimit.Manager
}

func NewForwarder(printers []Printer, client *http.Client, breakers *ratelimit.Manager) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	if breakers == nil {
		breakers = ratelimit.NewManager(ratelimit.Rule{}, nil)
	}
	breakers.OnStateChange(func(name string, from, to gobreaker.State) {
		metrics.CBState.WithLabelValues("printer", name, from.String()).Set(0)
		metrics.CBState.WithLabelValues("printer", name, to.String()).Set(1)
	})
	return &Forwarder{Attempts: 3, Backoff: time.Second, printers: printers, client: client, breakers: breakers}
}

func (f *Forwarder) Printers() []Printer { return f.printers }

// Dispatch 异步发给所有打印机，不阻塞调用方，错误只记日志
func (f *Forwarder) Dispatch(ctx context.Context, job PrintJob) {
	if f == nil || len(f.printers) == 0 || len(job) == 0 {
		return
	}
	// 请求结束后 ctx 会被取消，这里只保留链路信息
	bg := context.WithoutCancel(ctx)
	for _, p := range f.printers {
		safe.GoCtx(bg, func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := f.Send(ctx, p, job); err != nil {
				logger.Warn(ctx, "forward print job failed",
					zap.String("printer", p.Name),
					zap.Error(err),
				)
			}
		})
	}
}

// Send 同步发送，body 是行数组本身（打印代理直接按数组解析）。
// 5xx 和网络错误按 Attempts/Backoff 重试；4xx 和熔断打开不重试
func (f *Forwarder) Send(ctx context.Context, p Printer, job PrintJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	attempts := max(f.Attempts, 1)
	for i := 1; ; i++ {
		err = f.breakers.Execute(p.Name, func() error {
			return f.post(ctx, p.URL, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CBRejectTotal.WithLabelValues("printer", p.Name, "open").Inc()
			return err
		}
		if err == nil || xerr.CodeOf(err) == xerr.RequestParamsError || i >= attempts {
			return err
		}
		logger.Debug(ctx, "retry print job", zap.String("printer", p.Name), zap.Int("attempt", i), zap.Error(err))

		t := time.NewTimer(f.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

func (f *Forwarder) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return xerr.Wrap(err, xerr.RequestParamsError, "bad printer url")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("printer responded %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		// 打印机拒绝任务内容，不算打印机故障
		return xerr.New(xerr.RequestParamsError, fmt.Sprintf("printer rejected job: %d", resp.StatusCode))
	}
	return nil
}
