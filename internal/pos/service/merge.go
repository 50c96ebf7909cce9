package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/xerr"
	"github.com/shopspring/decimal"
)

type MergeOrdersInput struct {
	OrderIDs []uint64 `json:"order_ids" binding:"required,min=2"`
}

const mergeNotePrefix = "Gộp từ các order: "

// Merge 并单：相同 (品项, 单价) 的明细数量和金额相加，生成一张新单放在第一张单的桌上，原单删除
func (s *OrderService) Merge(ctx context.Context, in MergeOrdersInput) (*domain.Order, error) {
	ids := uniqueIDs(in.OrderIDs)
	if len(ids) < 2 {
		return nil, xerr.New(xerr.RequestParamsError, "at least 2 orders are required to merge")
	}

	var order *domain.Order
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		srcs := make([]*domain.Order, 0, len(ids))
		for _, id := range ids {
			o, err := s.repo.GetOrder(txCtx, id)
			if err != nil {
				return err
			}
			if o.Status != domain.OrderPending {
				return xerr.NewErrCode(xerr.OrderClosed)
			}
			srcs = append(srcs, o)
		}

		items, total := mergeItems(srcs)
		first := srcs[0]
		merged := &domain.Order{
			OrderCode:     newOrderCode(),
			TableID:       first.TableID,
			ShiftID:       first.ShiftID,
			StaffID:       first.StaffID,
			Status:        domain.OrderPending,
			PaymentStatus: first.PaymentStatus,
			Note:          mergeNote(ids),
			TotalAmount:   total,
			TimeIn:        s.now().UTC(),
			Items:         items,
		}
		for _, o := range srcs {
			if err := s.repo.DeleteOrder(txCtx, o.ID); err != nil {
				return err
			}
		}
		if err := s.repo.SaveOrder(txCtx, merged); err != nil {
			return err
		}
		// 其余单的桌子空出来
		for _, o := range srcs[1:] {
			if o.TableID == first.TableID {
				continue
			}
			if err := s.repo.ReleaseTable(txCtx, o.TableID); err != nil {
				return err
			}
		}
		order = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.OrderChanged(ctx, realtime.OrderUpdated, order)
	return order, nil
}

type mergeKey struct {
	menuItemID uint64
	unitPrice  string
}

// mergeItems 按出现顺序合并，备注取第一次出现的那条
func mergeItems(orders []*domain.Order) ([]domain.OrderItem, decimal.Decimal) {
	idx := make(map[mergeKey]int)
	var out []domain.OrderItem
	total := decimal.Zero
	for _, o := range orders {
		for _, it := range o.Items {
			k := mergeKey{it.MenuItemID, it.UnitPrice.String()}
			if i, ok := idx[k]; ok {
				out[i].Quantity += it.Quantity
				out[i].TotalPrice = out[i].TotalPrice.Add(it.TotalPrice)
			} else {
				idx[k] = len(out)
				out = append(out, domain.OrderItem{
					MenuItemID: it.MenuItemID,
					Name:       it.Name,
					Quantity:   it.Quantity,
					UnitPrice:  it.UnitPrice,
					TotalPrice: it.TotalPrice,
					Note:       it.Note,
				})
			}
			total = total.Add(it.TotalPrice)
		}
	}
	return out, total
}

func mergeNote(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return mergeNotePrefix + strings.Join(parts, ", ")
}

func uniqueIDs(in []uint64) []uint64 {
	seen := make(map[uint64]bool, len(in))
	out := make([]uint64, 0, len(in))
	for _, id := range in {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CancelItemInput 退菜登记；table_id、item_name、cancelled_at 不传时从订单和当前时间补
type CancelItemInput struct {
	OrderID     uint64     `json:"order_id" binding:"required"`
	TableID     uint64     `json:"table_id"`
	ItemID      uint64     `json:"item_id" binding:"required"`
	ItemName    string     `json:"item_name" binding:"max=128"`
	Quantity    int        `json:"quantity" binding:"required,min=1"`
	Reason      string     `json:"reason" binding:"max=255"`
	CancelledBy string     `json:"cancelled_by" binding:"max=64"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

func (s *OrderService) CancelItem(ctx context.Context, in CancelItemInput) (*domain.CancelledItem, error) {
	if in.ItemID == 0 || in.Quantity <= 0 {
		return nil, xerr.New(xerr.RequestParamsError, "item_id and a positive quantity are required")
	}
	o, err := s.repo.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	c := &domain.CancelledItem{
		OrderID:     o.ID,
		TableID:     in.TableID,
		MenuItemID:  in.ItemID,
		ItemName:    strings.TrimSpace(in.ItemName),
		Quantity:    in.Quantity,
		Reason:      strings.TrimSpace(in.Reason),
		CancelledBy: in.CancelledBy,
		CancelledAt: s.now().UTC(),
	}
	if c.TableID == 0 {
		c.TableID = o.TableID
	}
	if in.CancelledAt != nil {
		c.CancelledAt = in.CancelledAt.UTC()
	}
	if c.ItemName == "" {
		name, err := s.itemName(ctx, o, in.ItemID)
		if err != nil {
			return nil, err
		}
		c.ItemName = name
	}
	if err := s.repo.CreateCancelledItem(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *OrderService) CancelledItems(ctx context.Context, orderID uint64) ([]domain.CancelledItem, error) {
	return s.repo.ListCancelledItems(ctx, orderID)
}

// itemName 先看订单明细，再查菜单
func (s *OrderService) itemName(ctx context.Context, o *domain.Order, menuItemID uint64) (string, error) {
	for _, it := range o.Items {
		if it.MenuItemID == menuItemID {
			return it.Name, nil
		}
	}
	m, err := s.repo.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}
