package mysql

import (
	"context"

	"coffeeshop.com/internal/pos/domain"
)

func (r *Repo) GetShift(ctx context.Context, id uint64) (*domain.Shift, error) {
	var s domain.Shift
	if err := r.getDb(ctx).First(&s, id).Error; err != nil {
		return nil, dbErr(err, "shift")
	}
	return &s, nil
}

func (r *Repo) GetOpenShift(ctx context.Context, staffID string) (*domain.Shift, error) {
	q := r.getDb(ctx).Where("status = ?", domain.ShiftOpen)
	if staffID != "" {
		q = q.Where("staff_id = ?", staffID)
	}
	var s domain.Shift
	if err := q.Order("id DESC").First(&s).Error; err != nil {
		return nil, dbErr(err, "shift")
	}
	return &s, nil
}

func (r *Repo) SaveShift(ctx context.Context, s *domain.Shift) error {
	return dbErr(r.getDb(ctx).Save(s).Error, "shift")
}
