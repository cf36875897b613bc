package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/internal/database"
)

// GraphQueries implements the C13 static query engine: depth-bounded,
// cycle-safe traversal over code_symbols/symbol_relationships, building on
// SymbolStore/RelationshipStore for the non-recursive shapes and hand-written
// recursive CTEs for path/reachability.
//
// The fuzzy name-match shape differs by backend: Postgres uses pg_trgm's
// similarity(); sqlite falls back to a substring LIKE match, which is a
// coarser approximation documented as a known backend limitation.
type GraphQueries struct {
	db      database.Database
	symbols SymbolStore
	rels    RelationshipStore
}

// NewGraphQueries creates a GraphQueries over the given stores.
func NewGraphQueries(db database.Database, symbols SymbolStore, rels RelationshipStore) GraphQueries {
	return GraphQueries{db: db, symbols: symbols, rels: rels}
}

const defaultMaxDepth = 10

// FindSymbol resolves a name to matching symbols: exact match first, then
// fuzzy.
func (g GraphQueries) FindSymbol(ctx context.Context, repoID int64, commitSHA, name string) ([]symbol.Symbol, error) {
	exact, err := g.symbols.FindByName(ctx, repoID, commitSHA, name)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}
	return g.fuzzyFindSymbol(ctx, repoID, commitSHA, name)
}

func (g GraphQueries) fuzzyFindSymbol(ctx context.Context, repoID int64, commitSHA, name string) ([]symbol.Symbol, error) {
	var rows []CodeSymbolModel
	session := g.db.Session(ctx)
	var err error
	if g.db.IsPostgres() {
		err = session.Raw(`
			SELECT * FROM code_symbols
			WHERE repo_id = ? AND commit_sha = ? AND similarity(name, ?) > 0.3
			ORDER BY similarity(name, ?) DESC
			LIMIT 20`, repoID, commitSHA, name, name).Scan(&rows).Error
	} else {
		pattern := "%" + name + "%"
		err = session.Raw(`
			SELECT * FROM code_symbols
			WHERE repo_id = ? AND commit_sha = ? AND name LIKE ?
			ORDER BY length(name) ASC
			LIMIT 20`, repoID, commitSHA, pattern).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("fuzzy find symbol %q: %w", name, err)
	}
	mapper := SymbolMapper{}
	out := make([]symbol.Symbol, len(rows))
	for i, r := range rows {
		out[i] = mapper.ToDomain(r)
	}
	return out, nil
}

// ListSymbols lists symbols in a (repo, commit) partition, optionally
// filtered by kind.
func (g GraphQueries) ListSymbols(ctx context.Context, repoID int64, commitSHA string, kind symbol.Kind, page, pageSize int) ([]symbol.Symbol, error) {
	return g.symbols.ListSymbols(ctx, repoID, commitSHA, kind, page, pageSize)
}

// FindCallers returns every symbol that can reach symbolID via `calls`
// edges, walking the reverse direction of FindReachable within maxDepth
// hops, cycle-safe via a path array carried through the recursion.
func (g GraphQueries) FindCallers(ctx context.Context, repoID int64, commitSHA string, symbolID int64, maxDepth int) ([]symbol.Symbol, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	session := g.db.Session(ctx)

	type idRow struct{ SourceID int64 }
	var rows []idRow
	var err error

	if g.db.IsPostgres() {
		err = session.Raw(`
			WITH RECURSIVE walk(source_id, path, depth) AS (
				SELECT source_id, ARRAY[target_id, source_id], 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND target_id = ?
				UNION ALL
				SELECT r.source_id, w.path || r.source_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.target_id = w.source_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND NOT (r.source_id = ANY(w.path))
			)
			SELECT DISTINCT source_id FROM walk`,
			repoID, commitSHA, symbolID, repoID, commitSHA, maxDepth).Scan(&rows).Error
	} else {
		err = session.Raw(`
			WITH RECURSIVE walk(source_id, path, depth) AS (
				SELECT source_id, CAST(target_id AS TEXT) || ',' || CAST(source_id AS TEXT), 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND target_id = ?
				UNION ALL
				SELECT r.source_id, w.path || ',' || r.source_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.target_id = w.source_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND instr(',' || w.path || ',', ',' || r.source_id || ',') = 0
			)
			SELECT DISTINCT source_id FROM walk`,
			repoID, commitSHA, symbolID, repoID, commitSHA, maxDepth).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("find callers of %d: %w", symbolID, err)
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.SourceID
	}
	return g.resolveSymbolIDs(ctx, ids)
}

// FindCallees returns every symbol symbolID directly calls.
func (g GraphQueries) FindCallees(ctx context.Context, repoID int64, commitSHA string, symbolID int64) ([]symbol.Symbol, error) {
	rels, err := g.rels.FindBySource(ctx, repoID, commitSHA, symbolID, relationship.TypeCalls)
	if err != nil {
		return nil, err
	}
	return g.resolveSymbolIDs(ctx, idsFromTarget(rels))
}

// FindCallPath finds one shortest call path from fromID to toID, bounded by
// maxDepth hops, via a recursive CTE carrying the visited path for cycle
// safety. Returns nil if no path exists within the bound.
func (g GraphQueries) FindCallPath(ctx context.Context, repoID int64, commitSHA string, fromID, toID int64, maxDepth int) ([]int64, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	session := g.db.Session(ctx)

	type pathRow struct {
		TargetID int64
		Path     string
		Depth    int
	}
	var rows []pathRow
	var err error

	if g.db.IsPostgres() {
		err = session.Raw(`
			WITH RECURSIVE walk(target_id, path, depth) AS (
				SELECT target_id, ARRAY[source_id, target_id], 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND source_id = ?
				UNION ALL
				SELECT r.target_id, w.path || r.target_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.source_id = w.target_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND NOT (r.target_id = ANY(w.path))
			)
			SELECT target_id, array_to_string(path, ',') AS path, depth FROM walk
			WHERE target_id = ?
			ORDER BY depth ASC
			LIMIT 1`,
			repoID, commitSHA, fromID, repoID, commitSHA, maxDepth, toID).Scan(&rows).Error
	} else {
		err = session.Raw(`
			WITH RECURSIVE walk(target_id, path, depth) AS (
				SELECT target_id, CAST(source_id AS TEXT) || ',' || CAST(target_id AS TEXT), 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND source_id = ?
				UNION ALL
				SELECT r.target_id, w.path || ',' || r.target_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.source_id = w.target_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND instr(',' || w.path || ',', ',' || r.target_id || ',') = 0
			)
			SELECT target_id, path, depth FROM walk
			WHERE target_id = ?
			ORDER BY depth ASC
			LIMIT 1`,
			repoID, commitSHA, fromID, repoID, commitSHA, maxDepth, toID).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("find call path %d->%d: %w", fromID, toID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return parsePathIDs(rows[0].Path)
}

// FindReachable returns symbolID itself plus every symbol reachable from it
// via `calls` edges within maxDepth hops, cycle-safe.
func (g GraphQueries) FindReachable(ctx context.Context, repoID int64, commitSHA string, symbolID int64, maxDepth int) ([]symbol.Symbol, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	session := g.db.Session(ctx)

	type idRow struct{ TargetID int64 }
	var rows []idRow
	var err error

	if g.db.IsPostgres() {
		err = session.Raw(`
			WITH RECURSIVE walk(target_id, path, depth) AS (
				SELECT target_id, ARRAY[source_id, target_id], 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND source_id = ?
				UNION ALL
				SELECT r.target_id, w.path || r.target_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.source_id = w.target_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND NOT (r.target_id = ANY(w.path))
			)
			SELECT DISTINCT target_id FROM walk`,
			repoID, commitSHA, symbolID, repoID, commitSHA, maxDepth).Scan(&rows).Error
	} else {
		err = session.Raw(`
			WITH RECURSIVE walk(target_id, path, depth) AS (
				SELECT target_id, CAST(source_id AS TEXT) || ',' || CAST(target_id AS TEXT), 1
				FROM symbol_relationships
				WHERE repo_id = ? AND commit_sha = ? AND relationship_type = 'calls' AND source_id = ?
				UNION ALL
				SELECT r.target_id, w.path || ',' || r.target_id, w.depth + 1
				FROM symbol_relationships r
				JOIN walk w ON r.source_id = w.target_id
				WHERE r.repo_id = ? AND r.commit_sha = ? AND r.relationship_type = 'calls'
				  AND w.depth < ?
				  AND instr(',' || w.path || ',', ',' || r.target_id || ',') = 0
			)
			SELECT DISTINCT target_id FROM walk`,
			repoID, commitSHA, symbolID, repoID, commitSHA, maxDepth).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("find reachable from %d: %w", symbolID, err)
	}
	seen := map[int64]bool{symbolID: true}
	ids := []int64{symbolID}
	for _, r := range rows {
		if !seen[r.TargetID] {
			seen[r.TargetID] = true
			ids = append(ids, r.TargetID)
		}
	}
	return g.resolveSymbolIDs(ctx, ids)
}

// FindImports returns the symbols imported by any declaration in filePath.
func (g GraphQueries) FindImports(ctx context.Context, repoID int64, commitSHA, filePath string) ([]symbol.Symbol, error) {
	fileSymbols, err := g.symbols.FindByFile(ctx, repoID, commitSHA, filePath)
	if err != nil {
		return nil, err
	}
	var rels []relationship.Relationship
	for _, s := range fileSymbols {
		r, err := g.rels.FindBySource(ctx, repoID, commitSHA, s.ID(), relationship.TypeImports)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r...)
	}
	return g.resolveSymbolIDs(ctx, idsFromTarget(rels))
}

// FindDependencies returns FindReachable's result: symbolID plus every
// symbol transitively reachable from it via `calls` edges within maxDepth
// hops. `imports` edges are not followed.
func (g GraphQueries) FindDependencies(ctx context.Context, repoID int64, commitSHA string, symbolID int64, maxDepth int) ([]symbol.Symbol, error) {
	return g.FindReachable(ctx, repoID, commitSHA, symbolID, maxDepth)
}

// FindImporters returns every symbol with an `imports` edge targeting
// symbolID.
func (g GraphQueries) FindImporters(ctx context.Context, repoID int64, commitSHA string, symbolID int64) ([]symbol.Symbol, error) {
	rels, err := g.rels.FindByTarget(ctx, repoID, commitSHA, symbolID, relationship.TypeImports)
	if err != nil {
		return nil, err
	}
	return g.resolveSymbolIDs(ctx, idsFromSource(rels))
}

func idsFromSource(rels []relationship.Relationship) []int64 {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		ids[i] = r.SourceID()
	}
	return ids
}

func idsFromTarget(rels []relationship.Relationship) []int64 {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		ids[i] = r.TargetID()
	}
	return ids
}

func (g GraphQueries) resolveSymbolIDs(ctx context.Context, ids []int64) ([]symbol.Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return g.symbols.Find(ctx, database.NewQuery().In("id", ids))
}

func parsePathIDs(path string) ([]int64, error) {
	parts := strings.Split(path, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse path segment %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
