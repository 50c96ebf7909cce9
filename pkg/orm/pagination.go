package orm

import "gorm.io/gorm"

const MaxPageSize = 200

// ApplyPagination page <= 0 或 limit <= 0 时不分页；limit 超过 MaxPageSize 截断
func ApplyPagination(db *gorm.DB, page, limit int) *gorm.DB {
	if page > 0 && limit > 0 {
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
	return db
}
