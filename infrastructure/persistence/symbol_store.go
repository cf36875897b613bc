package persistence

import (
	"context"
	"fmt"

	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/internal/database"
)

// SymbolStore implements the CodeSymbol half of the C2 relational store.
type SymbolStore struct {
	database.Repository[symbol.Symbol, CodeSymbolModel]
}

// NewSymbolStore creates a SymbolStore.
func NewSymbolStore(db database.Database) SymbolStore {
	return SymbolStore{
		Repository: database.NewRepository[symbol.Symbol, CodeSymbolModel](db, SymbolMapper{}, "code_symbol"),
	}
}

// BulkCreate inserts every symbol in one statement, as the symbol indexer
// (C6) does at the end of processing one file.
func (s SymbolStore) BulkCreate(ctx context.Context, symbols []symbol.Symbol) ([]symbol.Symbol, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	models := make([]CodeSymbolModel, len(symbols))
	for i, sym := range symbols {
		models[i] = s.Mapper().ToModel(sym)
	}
	if err := s.DB(ctx).Create(&models).Error; err != nil {
		return nil, fmt.Errorf("bulk create symbols: %w", err)
	}
	out := make([]symbol.Symbol, len(models))
	for i, m := range models {
		out[i] = s.Mapper().ToDomain(m)
	}
	return out, nil
}

// FindByFile returns every symbol declared in filePath for a (repo, commit)
// partition, in declaration order.
func (s SymbolStore) FindByFile(ctx context.Context, repoID int64, commitSHA, filePath string) ([]symbol.Symbol, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("file_path", filePath).
		OrderAsc("line_start")
	return s.Find(ctx, q)
}

// FindByName returns every symbol with an exact name match in a partition,
// used by the C13 static query engine's find_symbol exact-match path.
func (s SymbolStore) FindByName(ctx context.Context, repoID int64, commitSHA, name string) ([]symbol.Symbol, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("name", name)
	return s.Find(ctx, q)
}

// FindByQualifiedName returns the symbol with an exact qualified-name match,
// or ErrNotFound.
func (s SymbolStore) FindByQualifiedName(ctx context.Context, repoID int64, commitSHA, qualifiedName string) (symbol.Symbol, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("qualified_name", qualifiedName)
	return s.FindOne(ctx, q)
}

// AllForCommit returns every symbol in a (repo, commit) partition,
// unpaginated, used by the call-graph builder (C8) to build its
// whole-partition GlobalNameIndex.
func (s SymbolStore) AllForCommit(ctx context.Context, repoID int64, commitSHA string) ([]symbol.Symbol, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA)
	return s.Find(ctx, q)
}

// ListSymbols returns every symbol in a (repo, commit) partition, optionally
// filtered by kind, paginated.
func (s SymbolStore) ListSymbols(ctx context.Context, repoID int64, commitSHA string, kind symbol.Kind, page, pageSize int) ([]symbol.Symbol, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		OrderAsc("file_path").
		OrderAsc("line_start").
		Paginate(page, pageSize)
	if kind != "" {
		q = q.Equal("symbol_type", string(kind))
	}
	return s.Find(ctx, q)
}
