package mysql

import (
	"context"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func itemsByID(db *gorm.DB) *gorm.DB { return db.Order("id") }

func (r *Repo) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.getDb(ctx).Preload("Items", itemsByID).First(&o, id).Error; err != nil {
		return nil, dbErr(err, "order")
	}
	return &o, nil
}

func orderFilter(f domain.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.TableID != 0 {
			db = db.Where("table_id = ?", f.TableID)
		}
		if f.ShiftID != 0 {
			db = db.Where("shift_id = ?", f.ShiftID)
		}
		return db
	}
}

func (r *Repo) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var total int64
	if err := r.getDb(ctx).Model(&domain.Order{}).Scopes(orderFilter(f)).Count(&total).Error; err != nil {
		return nil, 0, dbErr(err, "order")
	}

	var out []domain.Order
	q := r.getDb(ctx).Scopes(orderFilter(f)).Preload("Items", itemsByID).Order("id DESC")
	if err := orm.ApplyPagination(q, f.Page, f.Limit).Find(&out).Error; err != nil {
		return nil, 0, dbErr(err, "order")
	}
	return out, total, nil
}

func (r *Repo) SaveOrder(ctx context.Context, o *domain.Order) error {
	db := r.getDb(ctx)
	if err := db.Omit(clause.Associations).Save(o).Error; err != nil {
		return dbErr(err, "order")
	}
	if err := db.Where("order_id = ?", o.ID).Delete(&domain.OrderItem{}).Error; err != nil {
		return dbErr(err, "order item")
	}
	if len(o.Items) == 0 {
		return nil
	}
	for i := range o.Items {
		o.Items[i].ID = 0
		o.Items[i].OrderID = o.ID
	}
	return dbErr(db.Create(&o.Items).Error, "order item")
}

func (r *Repo) DeleteOrder(ctx context.Context, id uint64) error {
	db := r.getDb(ctx)
	if err := db.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
		return dbErr(err, "order item")
	}
	res := db.Delete(&domain.Order{}, id)
	if res.Error != nil {
		return dbErr(res.Error, "order")
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "order")
	}
	return nil
}

func (r *Repo) CreateCancelledItem(ctx context.Context, c *domain.CancelledItem) error {
	return dbErr(r.getDb(ctx).Create(c).Error, "cancelled item")
}

// ListCancelledItems orderID 为 0 时返回全部
func (r *Repo) ListCancelledItems(ctx context.Context, orderID uint64) ([]domain.CancelledItem, error) {
	q := r.getDb(ctx).Order("id")
	if orderID != 0 {
		q = q.Where("order_id = ?", orderID)
	}
	var out []domain.CancelledItem
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr(err, "cancelled item")
	}
	return out, nil
}
