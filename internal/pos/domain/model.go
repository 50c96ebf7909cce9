package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

type MenuItem struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:128;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category  string          `gorm:"size:64;index" json:"category"`
	Available bool            `gorm:"not null" json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Table struct {
	ID       uint64      `gorm:"primaryKey" json:"id"`
	Name     string      `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Capacity int         `gorm:"not null" json:"capacity"`
	Status   TableStatus `gorm:"size:16;not null;index" json:"status"`
}

type Order struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	OrderCode     string          `gorm:"size:8;uniqueIndex;not null" json:"order_code"`
	TableID       uint64          `gorm:"index;not null" json:"table_id"`
	ShiftID       uint64          `gorm:"index" json:"shift_id,omitempty"`
	StaffID       string          `gorm:"size:64" json:"staff_id,omitempty"`
	Status        OrderStatus     `gorm:"size:16;not null;index" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"size:16;not null" json:"payment_status"`
	Note          string          `gorm:"type:text" json:"note"` // 换桌、并单会追加
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	TimeIn        time.Time       `gorm:"not null" json:"time_in"`
	TimeOut       *time.Time      `json:"time_out"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

type OrderItem struct {
	ID         uint64          `gorm:"primaryKey" json:"id"`
	OrderID    uint64          `gorm:"index;not null" json:"order_id"`
	MenuItemID uint64          `gorm:"not null" json:"menu_item_id"`
	Name       string          `gorm:"size:128;not null" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Note       string          `gorm:"size:255" json:"note"`
}

// Shift 一个班次；order_paper_count 是开班时点单本上的起始编号
type Shift struct {
	ID                 uint64          `gorm:"primaryKey" json:"id"`
	StaffID            string          `gorm:"size:64;index;not null" json:"staff_id"`
	ShiftType          string          `gorm:"size:32" json:"shift_type"`
	StartTime          time.Time       `gorm:"not null" json:"start_time"`
	EndTime            *time.Time      `json:"end_time"`
	InitialCash        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"initial_cash"`
	EndCash            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"end_cash"`
	OrderPaperCount    int             `gorm:"not null" json:"order_paper_count"`
	EndOrderPaperCount *int            `json:"end_order_paper_count"`
	TotalOrders        int             `gorm:"not null" json:"total_orders"`
	Status             ShiftStatus     `gorm:"size:16;not null;index" json:"status"`
	Note               string          `gorm:"size:255" json:"note"`
}

// CancelledItem 退菜记录，只做留档，不回写订单
type CancelledItem struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	OrderID     uint64    `gorm:"index;not null" json:"order_id"`
	TableID     uint64    `gorm:"not null" json:"table_id"`
	MenuItemID  uint64    `gorm:"column:item_id;not null" json:"item_id"`
	ItemName    string    `gorm:"size:128;not null" json:"item_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Reason      string    `gorm:"size:255" json:"reason"`
	CancelledBy string    `gorm:"size:64" json:"cancelled_by"`
	CancelledAt time.Time `gorm:"not null;index" json:"cancelled_at"`
}

func (CancelledItem) TableName() string { return "cancelled_order_items" }

// AllModels AutoMigrate 用
func AllModels() []any {
	return []any{&MenuItem{}, &Table{}, &Order{}, &OrderItem{}, &Shift{}, &CancelledItem{}}
}
