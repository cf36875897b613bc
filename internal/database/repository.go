package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// EntityMapper converts between a domain value type D and its persistence
// row type E.
type EntityMapper[D any, E any] interface {
	ToDomain(e E) D
	ToModel(d D) E
}

// Repository provides generic CRUD and Query-based lookup for one entity
// type, built once per store and embedded into that store's concrete type.
type Repository[D any, E any] struct {
	db     Database
	mapper EntityMapper[D, E]
	label  string
}

// NewRepository creates a Repository for entity type E, mapped to domain
// type D via mapper.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string) Repository[D, E] {
	return Repository[D, E]{db: db, mapper: mapper, label: label}
}

func (r Repository[D, E]) modelDB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx).Model(new(E))
}

// Find returns every entity matching q.
func (r Repository[D, E]) Find(ctx context.Context, q Query) ([]D, error) {
	var rows []E
	if err := ApplyQuery(r.modelDB(ctx), q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}
	out := make([]D, len(rows))
	for i, row := range rows {
		out[i] = r.mapper.ToDomain(row)
	}
	return out, nil
}

// FindOne returns the first entity matching q, or ErrNotFound.
func (r Repository[D, E]) FindOne(ctx context.Context, q Query) (D, error) {
	var row E
	err := ApplyQuery(r.modelDB(ctx), q).First(&row).Error
	if err != nil {
		var zero D
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
		}
		return zero, fmt.Errorf("find one %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(row), nil
}

// Exists reports whether any entity matches q.
func (r Repository[D, E]) Exists(ctx context.Context, q Query) (bool, error) {
	var count int64
	if err := ApplyQuery(r.modelDB(ctx), q).Count(&count).Error; err != nil {
		return false, fmt.Errorf("exists %s: %w", r.label, err)
	}
	return count > 0, nil
}

// Create inserts a new row for d.
func (r Repository[D, E]) Create(ctx context.Context, d D) (D, error) {
	model := r.mapper.ToModel(d)
	if err := r.db.Session(ctx).Create(&model).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("create %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(model), nil
}

// Save inserts or updates d depending on whether model has a zero ID.
// Callers with auto-increment primary keys rely on gorm.Save's upsert
// semantics (Create when ID==0, Update otherwise).
func (r Repository[D, E]) Save(ctx context.Context, d D) (D, error) {
	model := r.mapper.ToModel(d)
	if err := r.db.Session(ctx).Save(&model).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("save %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(model), nil
}

// DeleteBy removes every entity matching q.
func (r Repository[D, E]) DeleteBy(ctx context.Context, q Query) error {
	if err := ApplyQuery(r.modelDB(ctx), q).Delete(new(E)).Error; err != nil {
		return fmt.Errorf("delete %s: %w", r.label, err)
	}
	return nil
}

// DB returns a raw context-scoped session for operations the generic layer
// doesn't cover (bulk insert, conditional updates, raw SQL).
func (r Repository[D, E]) DB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx)
}

// Mapper returns the entity mapper.
func (r Repository[D, E]) Mapper() EntityMapper[D, E] { return r.mapper }
