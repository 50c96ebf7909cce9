package domain

import "context"

type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

type OrderFilter struct {
	Status  OrderStatus
	TableID uint64
	ShiftID uint64
	Page    int
	Limit   int
}

// Repo 持久化接口，错误统一为 xerr（不存在 -> RecordNotFound）
type Repo interface {
	// Transaction fn 返回错误则回滚；fn 里用传入的 ctx 调其他方法即在同一事务内
	Transaction(ctx context.Context, fn func(txCtx context.Context) error) error

	ListMenuItems(ctx context.Context, f MenuFilter) ([]MenuItem, error)
	GetMenuItem(ctx context.Context, id uint64) (*MenuItem, error)
	GetMenuItems(ctx context.Context, ids []uint64) (map[uint64]MenuItem, error)
	SaveMenuItem(ctx context.Context, m *MenuItem) error
	DeleteMenuItem(ctx context.Context, id uint64) error

	ListTables(ctx context.Context) ([]Table, error)
	GetTable(ctx context.Context, id uint64) (*Table, error)
	SaveTable(ctx context.Context, t *Table) error
	// OccupyTable 条件更新 available -> occupied，返回是否抢到
	OccupyTable(ctx context.Context, id uint64) (bool, error)
	ReleaseTable(ctx context.Context, id uint64) error

	GetOrder(ctx context.Context, id uint64) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	// SaveOrder 保存订单头，并用 o.Items 整体替换明细
	SaveOrder(ctx context.Context, o *Order) error
	// DeleteOrder 连同明细一起删
	DeleteOrder(ctx context.Context, id uint64) error

	CreateCancelledItem(ctx context.Context, c *CancelledItem) error
	ListCancelledItems(ctx context.Context, orderID uint64) ([]CancelledItem, error)

	GetShift(ctx context.Context, id uint64) (*Shift, error)
	// GetOpenShift staffID 为空时返回任意一个未关闭的班次，没有返回 RecordNotFound
	GetOpenShift(ctx context.Context, staffID string) (*Shift, error)
	SaveShift(ctx context.Context, s *Shift) error
}
