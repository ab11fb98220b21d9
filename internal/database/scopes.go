package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/taskhub/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// CreationOrder orders rows by ascending primary key, which is their creation order.
func CreationOrder(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id ASC")
	}
}

// DueDateOrder sorts by due date ascending with undated rows last, ties by id.
func DueDateOrder(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("CASE WHEN " + table + ".due_date IS NULL THEN 1 ELSE 0 END").
			Order(table + ".due_date ASC").
			Order(table + ".id ASC")
	}
}
