package realtime

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"coffeeshop.com/internal/realtime/wsmetrics"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Server 负责 ws 握手和每个连接的读循环，握手成功后把连接交给 Registry
type Server struct {
	Registry *Registry
	Upgrader websocket.Upgrader
	// 按 IP 限制建连频率，nil 不限
	Limiter *ratelimit.Store

	PongWait   time.Duration
	PingPeriod time.Duration
	PingJitter time.Duration
	WriteWait  time.Duration
	ReadLimit  int64

	ctx context.Context
	now func() time.Time
}

func NewServer(ctx context.Context, reg *Registry) *Server {
	return &Server{
		Registry: reg,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 店内局域网的厨房屏/打印机，不校验 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		PongWait:   60 * time.Second,
		PingPeriod: 30 * time.Second,
		PingJitter: time.Second,
		WriteWait:  5 * time.Second,
		ReadLimit:  16 << 10,
		ctx:        ctx,
		now:        time.Now,
	}
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	role := string(s.Registry.Role())
	if s.Limiter != nil {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.Limiter.Allow("ws:" + role + ":" + ip) {
			http.Error(w, "too many connections", http.StatusTooManyRequests)
			return
		}
	}

	ws, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写了错误响应
		logger.Warn(r.Context(), "ws upgrade failed", zap.String("role", role), zap.Error(err))
		return
	}

	id := uuid.NewString()
	t := newWSTransport(ws, s.WriteWait)
	s.Registry.Connect(id, t)
	wsmetrics.OnOpen(role)
	logger.Info(s.ctx, "ws connected",
		zap.String("role", role),
		zap.String("conn_id", id),
		zap.String("remote", r.RemoteAddr),
	)

	s.Registry.SendTo(s.ctx, id, s.greeting(id))

	go s.keepalive(id, t)
	go s.readPump(id, t)
}

func (s *Server) greeting(id string) Event {
	d := ConnectionData{Status: "connected", Timestamp: s.now().UTC().Format(time.RFC3339)}
	if s.Registry.Role() == RolePrinter {
		d.PrinterID = id
	} else {
		d.ClientID = id
	}
	return Event{Data: d}
}

func (s *Server) readPump(id string, t *wsTransport) {
	reason := "read_error"
	defer func() {
		s.Registry.Disconnect(id)
		_ = t.Close()
		wsmetrics.OnClose(string(s.Registry.Role()), reason)
		logger.Info(s.ctx, "ws disconnected",
			zap.String("role", string(s.Registry.Role())),
			zap.String("conn_id", id),
			zap.String("reason", reason),
		)
	}()

	t.ws.SetReadLimit(s.ReadLimit)
	_ = t.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	t.ws.SetPongHandler(func(string) error {
		wsmetrics.PongRecvTotal.Inc()
		return t.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	})

	for {
		_, b, err := t.ws.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				reason = "client_close"
			case errors.As(err, &ne) && ne.Timeout():
				reason = "pong_timeout"
			case t.closed.Load():
				reason = "server_close"
			}
			return
		}
		// 任何上行消息都算活跃
		_ = t.ws.SetReadDeadline(time.Now().Add(s.PongWait))
		s.handleMessage(id, b)
	}
}

// handleMessage 非法消息只记日志，连接保持
func (s *Server) handleMessage(id string, b []byte) {
	role := string(s.Registry.Role())
	var msg ClientMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		wsmetrics.InboundDroppedTotal.WithLabelValues(role, "malformed").Inc()
		logger.Warn(s.ctx, "invalid ws message",
			zap.String("role", role),
			zap.String("conn_id", id),
			zap.Int("size", len(b)),
			zap.Error(err),
		)
		return
	}

	switch msg.Type {
	case TypePing:
		s.Registry.SendTo(s.ctx, id, NewPong(s.now()))
	case TypePong:
	case TypePrinterInfo:
		s.Registry.SetInfo(id, msg.Data)
		logger.Info(s.ctx, "printer info received",
			zap.String("conn_id", id),
			zap.ByteString("info", msg.Data),
		)
	default:
		wsmetrics.InboundDroppedTotal.WithLabelValues(role, "unknown_type").Inc()
		logger.Debug(s.ctx, "unknown ws message type",
			zap.String("role", role),
			zap.String("conn_id", id),
			zap.String("type", string(msg.Type)),
		)
	}
}

// keepalive 定时发控制帧 ping；启动前随机等一下，避免大量连接同一时刻 ping
func (s *Server) keepalive(id string, t *wsTransport) {
	if s.PingJitter > 0 {
		timer := time.NewTimer(time.Duration(rand.Int63n(int64(s.PingJitter))))
		select {
		case <-timer.C:
		case <-t.Done():
			timer.Stop()
			return
		case <-s.ctx.Done():
			timer.Stop()
			_ = t.Close()
			return
		}
	}

	ticker := time.NewTicker(s.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := t.ping(); err != nil {
				logger.Debug(s.ctx, "ws ping failed", zap.String("conn_id", id), zap.Error(err))
				_ = t.Close()
				return
			}
			wsmetrics.PingSentTotal.Inc()
		case <-t.Done():
			return
		case <-s.ctx.Done():
			_ = t.Close()
			return
		}
	}
}

// Handler 方便挂到 gin / mux 上
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.ServeWS)
}
