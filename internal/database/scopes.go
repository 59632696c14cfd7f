package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/projects-crm/internal/utils"
)

// Paginate applies offset and limit to a list query. A zero limit leaves
// the query unbounded.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		offset := params.Offset
		if offset < 0 {
			offset = 0
		}
		return db.Offset(offset).Limit(params.Limit)
	}
}
