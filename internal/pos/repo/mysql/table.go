package mysql

import (
	"context"

	"coffeeshop.com/internal/pos/domain"
)

func (r *Repo) ListTables(ctx context.Context) ([]domain.Table, error) {
	var out []domain.Table
	if err := r.getDb(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, dbErr(err, "table")
	}
	return out, nil
}

func (r *Repo) GetTable(ctx context.Context, id uint64) (*domain.Table, error) {
	var t domain.Table
	if err := r.getDb(ctx).First(&t, id).Error; err != nil {
		return nil, dbErr(err, "table")
	}
	return &t, nil
}

func (r *Repo) SaveTable(ctx context.Context, t *domain.Table) error {
	return dbErr(r.getDb(ctx).Save(t).Error, "table")
}

func (r *Repo) OccupyTable(ctx context.Context, id uint64) (bool, error) {
	res := r.getDb(ctx).Model(&domain.Table{}).
		Where("id = ? AND status = ?", id, domain.TableAvailable).
		Update("status", domain.TableOccupied)
	if res.Error != nil {
		return false, dbErr(res.Error, "table")
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) ReleaseTable(ctx context.Context, id uint64) error {
	err := r.getDb(ctx).Model(&domain.Table{}).
		Where("id = ?", id).
		Update("status", domain.TableAvailable).Error
	return dbErr(err, "table")
}
