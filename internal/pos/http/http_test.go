package http

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/pos/handler"
	"coffeeshop.com/internal/pos/repo/mysql"
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/common"
	"coffeeshop.com/pkg/xerr"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testApp struct {
	engine  *gin.Engine
	kitchen *realtime.Registry
	printer *realtime.Registry
	pub     *realtime.Publisher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	repo := mysql.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	policy := realtime.WithDeliveryPolicy(realtime.DeliveryPolicy{Timeout: 200 * time.Millisecond, Attempts: 2, Backoff: 10 * time.Millisecond})
	a := &testApp{
		kitchen: realtime.NewRegistry(realtime.RoleKitchen, policy),
		printer: realtime.NewRegistry(realtime.RolePrinter, policy),
		pub:     realtime.NewPublisher(),
	}
	t.Cleanup(func() { _ = a.pub.Close(context.Background()) })

	notify := service.NewRealtimeNotifier(a.pub, a.kitchen, a.printer, nil)
	a.engine = NewEngine(Deps{
		Name:     "pos-test",
		Menu:     &handler.Menu{Svc: service.NewMenuService(repo, nil, 0)},
		Table:    &handler.Table{Svc: service.NewTableService(repo)},
		Order:    &handler.Order{Svc: service.NewOrderService(repo, notify)},
		Shift:    &handler.Shift{Svc: service.NewShiftService(repo, notify)},
		Realtime: &handler.Realtime{Registries: []*realtime.Registry{a.kitchen, a.printer}, Publisher: a.pub},
		Kitchen:  realtime.NewServer(ctx, a.kitchen),
		Printer:  realtime.NewServer(ctx, a.printer),
	})
	return a
}

type envelope struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Data    stdjson.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, stdjson.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw stdjson.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, stdjson.Unmarshal(raw, &v))
	return v
}

func TestHTTP_OrderFlow(t *testing.T) {
	a := newTestApp(t)

	code, _ := a.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)

	code, env := a.do(t, http.MethodPost, "/api/tables", `{"name":"B1","capacity":4}`)
	require.Equal(t, http.StatusOK, code)
	table := decode[domain.Table](t, env.Data)

	code, env = a.do(t, http.MethodPost, "/api/menu-items", `{"name":"Latte","price":"45000","category":"coffee"}`)
	require.Equal(t, http.StatusOK, code)
	latte := decode[domain.MenuItem](t, env.Data)
	assert.True(t, latte.Available)

	code, env = a.do(t, http.MethodGet, "/api/menu-items?available=true", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.MenuItem](t, env.Data), 1)

	body := `{"table_id":` + itoa(table.ID) + `,"items":[{"menu_item_id":` + itoa(latte.ID) + `,"quantity":2}]}`
	code, env = a.do(t, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusOK, code, env.Message)
	order := decode[domain.Order](t, env.Data)
	assert.Equal(t, "90000", order.TotalAmount.String())

	// 同一张桌再下单
	code, env = a.do(t, http.MethodPost, "/api/orders", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, xerr.TableOccupied, env.Code)

	code, env = a.do(t, http.MethodGet, "/api/orders/"+itoa(order.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, order.OrderCode, decode[domain.Order](t, env.Data).OrderCode)

	code, env = a.do(t, http.MethodGet, "/api/orders?status=pending&page=1&limit=10", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)

	code, _ = a.do(t, http.MethodPost, "/api/orders/"+itoa(order.ID)+"/checkout", "")
	require.Equal(t, http.StatusOK, code)
	code, env = a.do(t, http.MethodPost, "/api/orders/"+itoa(order.ID)+"/checkout", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, xerr.OrderClosed, env.Code)
}

type listPage struct {
	Items []domain.Order `json:"items"`
	Total int64          `json:"total"`
}

func (a *testApp) seedOrders(t *testing.T, n int) []domain.Order {
	t.Helper()
	_, env := a.do(t, http.MethodPost, "/api/menu-items", `{"name":"Latte","price":45000}`)
	latte := decode[domain.MenuItem](t, env.Data)
	out := make([]domain.Order, 0, n)
	for i := 0; i < n; i++ {
		code, env := a.do(t, http.MethodPost, "/api/tables", `{"name":"T`+strconv.Itoa(i)+`"}`)
		require.Equal(t, http.StatusOK, code, env.Message)
		table := decode[domain.Table](t, env.Data)
		code, env = a.do(t, http.MethodPost, "/api/orders", `{"table_id":`+itoa(table.ID)+`,"items":[{"menu_item_id":`+itoa(latte.ID)+`,"quantity":1}]}`)
		require.Equal(t, http.StatusOK, code, env.Message)
		out = append(out, decode[domain.Order](t, env.Data))
	}
	return out
}

func TestHTTP_OrderListPaginatesByDefault(t *testing.T) {
	a := newTestApp(t)
	a.seedOrders(t, 22)

	_, env := a.do(t, http.MethodGet, "/api/orders", "")
	page := decode[listPage](t, env.Data)
	assert.EqualValues(t, 22, page.Total)
	assert.Len(t, page.Items, 20)

	_, env = a.do(t, http.MethodGet, "/api/orders?page=2", "")
	assert.Len(t, decode[listPage](t, env.Data).Items, 2)

	// limit 超过上限按上限
	_, env = a.do(t, http.MethodGet, "/api/orders?limit=100000", "")
	assert.Len(t, decode[listPage](t, env.Data).Items, 22)
}

func TestHTTP_TransferMergeAndCancel(t *testing.T) {
	a := newTestApp(t)
	orders := a.seedOrders(t, 2)
	_, env := a.do(t, http.MethodPost, "/api/tables", `{"name":"VIP"}`)
	vip := decode[domain.Table](t, env.Data)

	code, env := a.do(t, http.MethodPost, "/api/orders/"+itoa(orders[0].ID)+"/transfer", `{"table_id":`+itoa(vip.ID)+`,"note":"khách lên lầu"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	moved := decode[domain.Order](t, env.Data)
	assert.Equal(t, vip.ID, moved.TableID)
	assert.Equal(t, "Chuyển bàn: khách lên lầu", moved.Note)

	code, env = a.do(t, http.MethodPost, "/api/orders/merge", `{"order_ids":[`+itoa(orders[0].ID)+`]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, xerr.RequestParamsError, env.Code)

	code, env = a.do(t, http.MethodPost, "/api/orders/merge", `{"order_ids":[`+itoa(orders[0].ID)+`,`+itoa(orders[1].ID)+`]}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	merged := decode[domain.Order](t, env.Data)
	assert.Equal(t, vip.ID, merged.TableID)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, 2, merged.Items[0].Quantity)

	code, _ = a.do(t, http.MethodGet, "/api/orders/"+itoa(orders[1].ID), "")
	assert.Equal(t, http.StatusNotFound, code)

	body := `{"order_id":` + itoa(merged.ID) + `,"item_id":` + itoa(merged.Items[0].MenuItemID) + `,"quantity":1,"reason":"đổ","cancelled_at":"2024-05-01T02:00:00Z"}`
	code, env = a.do(t, http.MethodPost, "/api/cancelled-items", body)
	require.Equal(t, http.StatusOK, code, env.Message)
	ci := decode[domain.CancelledItem](t, env.Data)
	assert.Equal(t, "Latte", ci.ItemName)
	assert.Equal(t, vip.ID, ci.TableID)

	code, env = a.do(t, http.MethodPost, "/api/cancelled-items", `{"order_id":`+itoa(merged.ID)+`}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, http.MethodGet, "/api/cancelled-items?order_id="+itoa(merged.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.CancelledItem](t, env.Data), 1)
}

func TestHTTP_Errors(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   int
	}{
		{"bad json", http.MethodPost, "/api/orders", `{`, http.StatusBadRequest, xerr.RequestParamsError},
		{"no items", http.MethodPost, "/api/orders", `{"table_id":1,"items":[]}`, http.StatusBadRequest, xerr.RequestParamsError},
		{"bad id", http.MethodGet, "/api/orders/abc", "", http.StatusBadRequest, xerr.RequestParamsError},
		{"missing order", http.MethodGet, "/api/orders/42", "", http.StatusNotFound, xerr.RecordNotFound},
		{"missing shift", http.MethodPost, "/api/shifts/42/close", `{"end_order_paper_count":10}`, http.StatusNotFound, xerr.RecordNotFound},
		{"no current shift", http.MethodGet, "/api/shifts/current", "", http.StatusNotFound, xerr.RecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestHTTP_ShiftClose(t *testing.T) {
	a := newTestApp(t)

	code, env := a.do(t, http.MethodPost, "/api/shifts", `{"staff_id":"nv01","order_paper_count":1120,"initial_cash":"500000"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	sh := decode[domain.Shift](t, env.Data)

	code, env = a.do(t, http.MethodPost, "/api/shifts", `{"staff_id":"nv01"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, xerr.ShiftAlreadyOpen, env.Code)

	code, env = a.do(t, http.MethodPost, "/api/shifts/"+itoa(sh.ID)+"/close", `{"end_order_paper_count":1100}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, xerr.InvalidPaperCount, env.Code)

	code, env = a.do(t, http.MethodPost, "/api/shifts/"+itoa(sh.ID)+"/close", `{"end_order_paper_count":1150}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 31, decode[domain.Shift](t, env.Data).TotalOrders)

	code, env = a.do(t, http.MethodPost, "/api/shifts/"+itoa(sh.ID)+"/close", `{"end_order_paper_count":1160}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, xerr.ShiftClosed, env.Code)
}

func TestHTTP_KitchenReceivesOrderUpdate(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.engine)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/order", nil)
	require.NoError(t, err)
	defer ws.Close()

	read := func() map[string]stdjson.RawMessage {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, b, err := ws.ReadMessage()
		require.NoError(t, err)
		var m map[string]stdjson.RawMessage
		require.NoError(t, stdjson.Unmarshal(b, &m))
		return m
	}
	hello := read()
	assert.JSONEq(t, `"connection"`, string(hello["type"]))
	require.Eventually(t, func() bool { return a.kitchen.Len() == 1 }, time.Second, 10*time.Millisecond)

	_, env := a.do(t, http.MethodPost, "/api/tables", `{"name":"B1"}`)
	table := decode[domain.Table](t, env.Data)
	_, env = a.do(t, http.MethodPost, "/api/menu-items", `{"name":"Latte","price":45000}`)
	latte := decode[domain.MenuItem](t, env.Data)
	code, env := a.do(t, http.MethodPost, "/api/orders", `{"table_id":`+itoa(table.ID)+`,"items":[{"menu_item_id":`+itoa(latte.ID)+`,"quantity":1}]}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	msg := read()
	assert.JSONEq(t, `"order_update"`, string(msg["type"]))
	data := decode[struct {
		Type  string       `json:"type"`
		Order domain.Order `json:"order"`
	}](t, msg["data"])
	assert.Equal(t, "created", data.Type)
	assert.Equal(t, table.ID, data.Order.TableID)

	code, env = a.do(t, http.MethodGet, "/api/realtime/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"kitchen-display":{"count":1`)
}

func TestHTTP_ResponseEnvelope(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set(common.HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rid-1", w.Header().Get(common.HeaderRequestID))
	assert.JSONEq(t, `{"code":200,"message":"OK","data":[]}`, w.Body.String())
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }
