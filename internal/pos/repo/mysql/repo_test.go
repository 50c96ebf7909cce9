package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/pkg/xerr"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*Repo, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接是独立的库
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return New(db), db
}

func TestRepo_MenuCRUD(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	latte := &domain.MenuItem{Name: "Latte", Price: decimal.RequireFromString("45000"), Category: "coffee", Available: true}
	tea := &domain.MenuItem{Name: "Trà đào", Price: decimal.RequireFromString("35000"), Category: "tea", Available: false}
	require.NoError(t, repo.SaveMenuItem(ctx, latte))
	require.NoError(t, repo.SaveMenuItem(ctx, tea))

	all, err := repo.ListMenuItems(ctx, domain.MenuFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	avail, err := repo.ListMenuItems(ctx, domain.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "Latte", avail[0].Name)
	assert.True(t, avail[0].Price.Equal(decimal.NewFromInt(45000)))

	got, err := repo.GetMenuItems(ctx, []uint64{latte.ID, tea.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, repo.DeleteMenuItem(ctx, tea.ID))
	_, err = repo.GetMenuItem(ctx, tea.ID)
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(err))
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(repo.DeleteMenuItem(ctx, tea.ID)))
}

func TestRepo_OccupyTable(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	tb := &domain.Table{Name: "B1", Capacity: 4, Status: domain.TableAvailable}
	require.NoError(t, repo.SaveTable(ctx, tb))

	ok, err := repo.OccupyTable(ctx, tb.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.OccupyTable(ctx, tb.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.ReleaseTable(ctx, tb.ID))
	got, err := repo.GetTable(ctx, tb.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, got.Status)
}

func TestRepo_SaveOrderReplacesItems(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := &domain.Order{
		OrderCode:     "AB12CD34",
		TableID:       1,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentUnpaid,
		TotalAmount:   decimal.NewFromInt(90000),
		TimeIn:        time.Now().UTC(),
		Items: []domain.OrderItem{
			{MenuItemID: 1, Name: "Latte", Quantity: 2, UnitPrice: decimal.NewFromInt(45000), TotalPrice: decimal.NewFromInt(90000)},
		},
	}
	require.NoError(t, repo.SaveOrder(ctx, o))
	require.NotZero(t, o.ID)

	o.Items = []domain.OrderItem{
		{MenuItemID: 1, Name: "Latte", Quantity: 1, UnitPrice: decimal.NewFromInt(45000), TotalPrice: decimal.NewFromInt(45000)},
		{MenuItemID: 2, Name: "Bạc xỉu", Quantity: 1, UnitPrice: decimal.NewFromInt(30000), TotalPrice: decimal.NewFromInt(30000)},
	}
	require.NoError(t, repo.SaveOrder(ctx, o))

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Latte", got.Items[0].Name)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, "Bạc xỉu", got.Items[1].Name)

	list, total, err := repo.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderPending, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 2)

	_, total, err = repo.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderCompleted})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepo_DeleteOrder(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	o := &domain.Order{
		OrderCode:     "DE1E7E00",
		TableID:       1,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentUnpaid,
		TotalAmount:   decimal.NewFromInt(45000),
		TimeIn:        time.Now().UTC(),
		Items:         []domain.OrderItem{{MenuItemID: 1, Name: "Latte", Quantity: 1, UnitPrice: decimal.NewFromInt(45000), TotalPrice: decimal.NewFromInt(45000)}},
	}
	require.NoError(t, repo.SaveOrder(ctx, o))
	require.NoError(t, repo.DeleteOrder(ctx, o.ID))

	_, err := repo.GetOrder(ctx, o.ID)
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(err))
	var n int64
	require.NoError(t, db.Model(&domain.OrderItem{}).Where("order_id = ?", o.ID).Count(&n).Error)
	assert.Zero(t, n)

	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(repo.DeleteOrder(ctx, o.ID)))
}

func TestRepo_CancelledItems(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateCancelledItem(ctx, &domain.CancelledItem{OrderID: 7, TableID: 1, MenuItemID: 1, ItemName: "Latte", Quantity: 1, Reason: "khách đổi món", CancelledAt: at}))
	require.NoError(t, repo.CreateCancelledItem(ctx, &domain.CancelledItem{OrderID: 8, TableID: 2, MenuItemID: 2, ItemName: "Trà đào", Quantity: 2, CancelledAt: at}))

	got, err := repo.ListCancelledItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "khách đổi món", got[0].Reason)
	assert.True(t, got[0].CancelledAt.Equal(at))

	all, err := repo.ListCancelledItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepo_TransactionRollback(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := repo.SaveTable(txCtx, &domain.Table{Name: "B9", Capacity: 2, Status: domain.TableAvailable}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&domain.Table{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRepo_OpenShift(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetOpenShift(ctx, "")
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(err))

	s := &domain.Shift{StaffID: "nv01", StartTime: time.Now().UTC(), OrderPaperCount: 1120, Status: domain.ShiftOpen}
	require.NoError(t, repo.SaveShift(ctx, s))

	got, err := repo.GetOpenShift(ctx, "nv01")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = repo.GetOpenShift(ctx, "nv02")
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(err))
}

func TestDbErr(t *testing.T) {
	assert.NoError(t, dbErr(nil, "table"))
	assert.Equal(t, xerr.RecordNotFound, xerr.CodeOf(dbErr(gorm.ErrRecordNotFound, "table")))

	dup := &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'B1' for key 'idx_tables_name'"}
	err := dbErr(dup, "table")
	assert.Equal(t, xerr.Conflict, xerr.CodeOf(err))
	assert.ErrorIs(t, err, dup)

	assert.Equal(t, xerr.DbError, xerr.CodeOf(dbErr(errors.New("boom"), "table")))
}
