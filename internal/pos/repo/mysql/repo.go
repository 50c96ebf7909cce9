package mysql

import (
	"context"
	"errors"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/pkg/xerr"
	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type txKey struct{}

type Repo struct {
	db *gorm.DB
}

var _ domain.Repo = (*Repo)(nil)

func New(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Transaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	// 已在事务里就复用外层事务
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

func (r *Repo) getDb(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// dbErr gorm 错误转业务错误码
func dbErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xerr.New(xerr.RecordNotFound, what+" not found")
	}
	// 1062 唯一键冲突，比如桌名重复
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return xerr.Wrap(err, xerr.Conflict, what+" already exists")
	}
	return xerr.Wrap(err, xerr.DbError, "db error")
}
