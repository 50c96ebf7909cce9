package mysql

import (
	"context"

	"coffeeshop.com/internal/pos/domain"
	"gorm.io/gorm"
)

func (r *Repo) ListMenuItems(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	q := r.getDb(ctx).Model(&domain.MenuItem{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	var out []domain.MenuItem
	if err := q.Order("category, name, id").Find(&out).Error; err != nil {
		return nil, dbErr(err, "menu item")
	}
	return out, nil
}

func (r *Repo) GetMenuItem(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	var m domain.MenuItem
	if err := r.getDb(ctx).First(&m, id).Error; err != nil {
		return nil, dbErr(err, "menu item")
	}
	return &m, nil
}

func (r *Repo) GetMenuItems(ctx context.Context, ids []uint64) (map[uint64]domain.MenuItem, error) {
	out := make(map[uint64]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []domain.MenuItem
	if err := r.getDb(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, dbErr(err, "menu item")
	}
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

func (r *Repo) SaveMenuItem(ctx context.Context, m *domain.MenuItem) error {
	return dbErr(r.getDb(ctx).Save(m).Error, "menu item")
}

func (r *Repo) DeleteMenuItem(ctx context.Context, id uint64) error {
	res := r.getDb(ctx).Delete(&domain.MenuItem{}, id)
	if res.Error != nil {
		return dbErr(res.Error, "menu item")
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "menu item")
	}
	return nil
}
