package database

import (
	"context"

	"gorm.io/gorm"
)

// WithTransaction runs fn inside a database transaction, rolling back on
// any returned error.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	return db.Session(ctx).Transaction(fn)
}

// WithTransactionResult runs fn inside a transaction and returns its result,
// rolling back if fn returns an error.
func WithTransactionResult[T any](ctx context.Context, db Database, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var result T
	err := db.Session(ctx).Transaction(func(tx *gorm.DB) error {
		var innerErr error
		result, innerErr = fn(tx)
		return innerErr
	})
	return result, err
}
