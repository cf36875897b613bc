package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/internal/database"
	"gorm.io/gorm"
)

// RepositoryStore implements the C2 relational store's repository half.
type RepositoryStore struct {
	database.Repository[coderepo.Repository, RepositoryModel]
}

// NewRepositoryStore creates a RepositoryStore.
func NewRepositoryStore(db database.Database) RepositoryStore {
	return RepositoryStore{
		Repository: database.NewRepository[coderepo.Repository, RepositoryModel](db, RepositoryMapper{}, "repository"),
	}
}

// Save creates or updates a repository.
func (s RepositoryStore) Save(ctx context.Context, repo coderepo.Repository) (coderepo.Repository, error) {
	model := s.Mapper().ToModel(repo)

	var result *gorm.DB
	if repo.ID() == 0 {
		result = s.DB(ctx).Create(&model)
	} else {
		result = s.DB(ctx).Save(&model)
	}

	if result.Error != nil {
		return coderepo.Repository{}, fmt.Errorf("save repository: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Get returns the repository at id, or ErrNotFound.
func (s RepositoryStore) Get(ctx context.Context, id int64) (coderepo.Repository, error) {
	return s.FindOne(ctx, database.NewQuery().Equal("id", id))
}

// FindByKey looks up a repository by its (provider, owner, name) key.
func (s RepositoryStore) FindByKey(ctx context.Context, key coderepo.Key) (coderepo.Repository, error) {
	q := database.NewQuery().
		Equal("provider", key.Provider).
		Equal("owner", key.Owner).
		Equal("name", key.Name)
	return s.FindOne(ctx, q)
}

// FindDueForSync returns every repository whose last indexed commit is
// older than cutoff, or that has never been indexed at all.
func (s RepositoryStore) FindDueForSync(ctx context.Context, cutoff time.Time) ([]coderepo.Repository, error) {
	var models []RepositoryModel
	result := s.DB(ctx).
		Where("last_indexed_at IS NULL OR last_indexed_at < ?", cutoff).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find repositories due for sync: %w", result.Error)
	}

	repos := make([]coderepo.Repository, len(models))
	for i, m := range models {
		repos[i] = s.Mapper().ToDomain(m)
	}
	return repos, nil
}

// Delete removes a repository.
func (s RepositoryStore) Delete(ctx context.Context, repo coderepo.Repository) error {
	model := s.Mapper().ToModel(repo)
	result := s.DB(ctx).Delete(&model)
	if result.Error != nil {
		return fmt.Errorf("delete repository: %w", result.Error)
	}
	return nil
}
