package database

import (
	"fmt"

	"gorm.io/gorm"
)

// ApplyQuery applies filters, ordering, and pagination from q to db.
func ApplyQuery(db *gorm.DB, q Query) *gorm.DB {
	for _, f := range q.filters {
		switch f.Operator {
		case OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", f.Field), f.Value)
		case OpNotEqual:
			db = db.Where(fmt.Sprintf("%s != ?", f.Field), f.Value)
		case OpGreaterThan:
			db = db.Where(fmt.Sprintf("%s > ?", f.Field), f.Value)
		case OpLessThan:
			db = db.Where(fmt.Sprintf("%s < ?", f.Field), f.Value)
		case OpLike:
			db = db.Where(fmt.Sprintf("%s LIKE ?", f.Field), f.Value)
		default:
			db = db.Where(fmt.Sprintf("%s = ?", f.Field), f.Value)
		}
	}

	for _, o := range q.orderBy {
		dir := "ASC"
		if o.Direction == SortDesc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", o.Field, dir))
	}

	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}

	return db
}
