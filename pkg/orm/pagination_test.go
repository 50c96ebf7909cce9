package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestApplyPagination(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&row{Name: "r"}).Error)
	}

	tests := []struct {
		name        string
		page, limit int
		wantIDs     []uint
	}{
		{"no pagination", 0, 0, []uint{1, 2, 3, 4, 5}},
		{"first page", 1, 2, []uint{1, 2}},
		{"last partial page", 3, 2, []uint{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []row
			require.NoError(t, ApplyPagination(db.Order("id"), tt.page, tt.limit).Find(&rows).Error)
			ids := make([]uint, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
