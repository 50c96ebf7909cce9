package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/printjob"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/xerr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	MenuItemID uint64 `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Note       string `json:"note" binding:"max=255"`
}

type CreateOrderInput struct {
	TableID uint64           `json:"table_id" binding:"required"`
	ShiftID uint64           `json:"shift_id"`
	StaffID string           `json:"staff_id" binding:"max=64"`
	Note    string           `json:"note" binding:"max=255"`
	Items   []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderInput Items 为空表示不改明细
type UpdateOrderInput struct {
	Items []OrderItemInput `json:"items" binding:"omitempty,dive"`
	Note  *string          `json:"note"`
}

// TransferOrderInput Note 非空时追加到订单备注
type TransferOrderInput struct {
	TableID uint64  `json:"table_id" binding:"required"`
	Note    *string `json:"note" binding:"omitempty,max=255"`
}

type OrderService struct {
	repo   domain.Repo
	notify Notifier
	fmt    *printjob.Formatter
	now    func() time.Time
}

func NewOrderService(repo domain.Repo, notify Notifier) *OrderService {
	return &OrderService{repo: repo, notify: notify, fmt: printjob.NewFormatter(), now: time.Now}
}

// newOrderCode uuid 前 8 位 hex 大写
func newOrderCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *OrderService) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		table *domain.Table
	)
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		t, err := s.repo.GetTable(txCtx, in.TableID)
		if err != nil {
			return err
		}
		shiftID, err := s.resolveShift(txCtx, in.ShiftID, in.StaffID)
		if err != nil {
			return err
		}
		ok, err := s.repo.OccupyTable(txCtx, t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return xerr.NewErrCode(xerr.TableOccupied)
		}
		items, total, err := s.buildItems(txCtx, in.Items, nil)
		if err != nil {
			return err
		}

		o := &domain.Order{
			OrderCode:     newOrderCode(),
			TableID:       t.ID,
			ShiftID:       shiftID,
			StaffID:       in.StaffID,
			Status:        domain.OrderPending,
			PaymentStatus: domain.PaymentUnpaid,
			Note:          strings.TrimSpace(in.Note),
			TotalAmount:   total,
			TimeIn:        s.now().UTC(),
			Items:         items,
		}
		if err := s.repo.SaveOrder(txCtx, o); err != nil {
			return err
		}
		t.Status = domain.TableOccupied
		order, table = o, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.OrderChanged(ctx, realtime.OrderCreated, order)
	s.notify.Print(ctx, kitchenSlip(tableName(table, order.TableID), order.Items, order.TimeIn))
	return order, nil
}

// resolveShift 指定了班次就必须是开着的；没指定就挂到当前开着的班次（可以没有）
func (s *OrderService) resolveShift(ctx context.Context, shiftID uint64, staffID string) (uint64, error) {
	if shiftID != 0 {
		sh, err := s.repo.GetShift(ctx, shiftID)
		if err != nil {
			return 0, err
		}
		if sh.Status != domain.ShiftOpen {
			return 0, xerr.NewErrCode(xerr.ShiftClosed)
		}
		return sh.ID, nil
	}
	sh, err := s.repo.GetOpenShift(ctx, staffID)
	if err == nil {
		return sh.ID, nil
	}
	if xerr.CodeOf(err) == xerr.RecordNotFound {
		return 0, nil
	}
	return 0, err
}

// Update 替换明细；只把比原来多出来的数量送去厨房打印
func (s *OrderService) Update(ctx context.Context, id uint64, in UpdateOrderInput) (*domain.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		table *domain.Table
		added []domain.OrderItem
	)
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetOrder(txCtx, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderPending {
			return xerr.NewErrCode(xerr.OrderClosed)
		}
		if len(in.Items) > 0 {
			known := make(map[uint64]bool, len(o.Items))
			for _, it := range o.Items {
				known[it.MenuItemID] = true
			}
			items, total, err := s.buildItems(txCtx, in.Items, known)
			if err != nil {
				return err
			}
			added = increases(o.Items, items)
			o.Items = items
			o.TotalAmount = total
		}
		if in.Note != nil {
			o.Note = strings.TrimSpace(*in.Note)
		}
		if err := s.repo.SaveOrder(txCtx, o); err != nil {
			return err
		}
		t, err := s.repo.GetTable(txCtx, o.TableID)
		if err != nil && xerr.CodeOf(err) != xerr.RecordNotFound {
			return err
		}
		order, table = o, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.OrderChanged(ctx, realtime.OrderUpdated, order)
	if len(added) > 0 {
		s.notify.Print(ctx, kitchenSlip(tableName(table, order.TableID), added, s.now()))
	}
	return order, nil
}

// Transfer 换桌：目标桌必须空闲，原桌释放；新桌重新出一张做单
func (s *OrderService) Transfer(ctx context.Context, id uint64, in TransferOrderInput) (*domain.Order, error) {
	toTableID := in.TableID
	if toTableID == 0 {
		return nil, xerr.New(xerr.RequestParamsError, "table_id is required")
	}

	var (
		order *domain.Order
		table *domain.Table
	)
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetOrder(txCtx, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderPending {
			return xerr.NewErrCode(xerr.OrderClosed)
		}
		if o.TableID == toTableID {
			return xerr.New(xerr.RequestParamsError, "order is already on this table")
		}
		t, err := s.repo.GetTable(txCtx, toTableID)
		if err != nil {
			return err
		}
		ok, err := s.repo.OccupyTable(txCtx, toTableID)
		if err != nil {
			return err
		}
		if !ok {
			return xerr.NewErrCode(xerr.TableOccupied)
		}
		if err := s.repo.ReleaseTable(txCtx, o.TableID); err != nil {
			return err
		}
		o.TableID = toTableID
		if in.Note != nil {
			o.Note = appendNote(o.Note, transferNotePrefix+strings.TrimSpace(*in.Note))
		}
		if err := s.repo.SaveOrder(txCtx, o); err != nil {
			return err
		}
		order, table = o, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.OrderChanged(ctx, realtime.OrderTransferred, order)
	if len(order.Items) > 0 {
		s.notify.Print(ctx, kitchenSlip(tableName(table, order.TableID), order.Items, s.now()))
	}
	return order, nil
}

// Checkout 结账：完成并标记已付，释放桌子，打印收银小票
func (s *OrderService) Checkout(ctx context.Context, id uint64) (*domain.Order, error) {
	var (
		order *domain.Order
		table *domain.Table
	)
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetOrder(txCtx, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderPending {
			return xerr.NewErrCode(xerr.OrderClosed)
		}
		out := s.now().UTC()
		o.Status = domain.OrderCompleted
		o.PaymentStatus = domain.PaymentPaid
		o.TimeOut = &out
		if err := s.repo.SaveOrder(txCtx, o); err != nil {
			return err
		}
		if err := s.repo.ReleaseTable(txCtx, o.TableID); err != nil {
			return err
		}
		t, err := s.repo.GetTable(txCtx, o.TableID)
		if err != nil && xerr.CodeOf(err) != xerr.RecordNotFound {
			return err
		}
		order, table = o, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.OrderChanged(ctx, realtime.OrderUpdated, order)
	s.notify.Print(ctx, receipt(s.fmt, order, tableName(table, order.TableID)))
	return order, nil
}

const transferNotePrefix = "Chuyển bàn: "

// appendNote 换行追加，原备注为空时直接用新内容
func appendNote(note, add string) string {
	if note == "" {
		return add
	}
	return note + "\n" + add
}

func validateItems(items []OrderItemInput) error {
	for i, it := range items {
		if it.MenuItemID == 0 {
			return xerr.New(xerr.RequestParamsError, fmt.Sprintf("items[%d]: menu_item_id is required", i))
		}
		if it.Quantity <= 0 {
			return xerr.New(xerr.RequestParamsError, fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
	}
	return nil
}

// buildItems 按菜单价格生成明细；known 里的品项即使已下架也允许保留
func (s *OrderService) buildItems(ctx context.Context, in []OrderItemInput, known map[uint64]bool) ([]domain.OrderItem, decimal.Decimal, error) {
	ids := make([]uint64, 0, len(in))
	seen := make(map[uint64]bool, len(in))
	for _, it := range in {
		if !seen[it.MenuItemID] {
			seen[it.MenuItemID] = true
			ids = append(ids, it.MenuItemID)
		}
	}
	menu, err := s.repo.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(in))
	for _, it := range in {
		m, ok := menu[it.MenuItemID]
		if !ok {
			return nil, decimal.Zero, xerr.New(xerr.RequestParamsError, fmt.Sprintf("menu item %d not found", it.MenuItemID))
		}
		if !m.Available && !known[m.ID] {
			return nil, decimal.Zero, xerr.New(xerr.RequestParamsError, fmt.Sprintf("menu item %q is unavailable", m.Name))
		}
		line := m.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		items = append(items, domain.OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  m.Price,
			TotalPrice: line,
			Note:       strings.TrimSpace(it.Note),
		})
	}
	return items, total, nil
}

type itemKey struct {
	menuItemID uint64
	note       string
}

// increases 按 (品项, 备注) 合计后，返回数量比旧明细多出来的部分，顺序跟新明细一致
func increases(old, cur []domain.OrderItem) []domain.OrderItem {
	before := make(map[itemKey]int, len(old))
	for _, it := range old {
		before[itemKey{it.MenuItemID, it.Note}] += it.Quantity
	}

	after := make(map[itemKey]int, len(cur))
	var order []itemKey
	names := make(map[itemKey]string, len(cur))
	for _, it := range cur {
		k := itemKey{it.MenuItemID, it.Note}
		if _, ok := after[k]; !ok {
			order = append(order, k)
			names[k] = it.Name
		}
		after[k] += it.Quantity
	}

	var out []domain.OrderItem
	for _, k := range order {
		if d := after[k] - before[k]; d > 0 {
			out = append(out, domain.OrderItem{MenuItemID: k.menuItemID, Name: names[k], Quantity: d, Note: k.note})
		}
	}
	return out
}
