package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm/clause"

	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/internal/database"
)

func pgTableName(collection string) string {
	return "pgvec_" + collectionNamePattern.ReplaceAllString(collection, "_")
}

// VectorStorePostgres implements domain/search.VectorStore over the
// pgvector extension: raw SQL for extension/table/index creation (a dynamic
// VECTOR(N) column has no gorm tag equivalent) and <=> cosine-distance
// ordering for search.
type VectorStorePostgres struct {
	db   database.Database
	mu   sync.Mutex
	done map[string]bool
}

// NewVectorStorePostgres creates a VectorStorePostgres over db.
func NewVectorStorePostgres(db database.Database) *VectorStorePostgres {
	return &VectorStorePostgres{db: db, done: map[string]bool{}}
}

// ensureTable creates the extension, table, and index the first time a
// given collection's dimension is known, inferred from the first Upsert
// call's vectors. This store has no embedder dependency, so it defers
// table creation until it sees a real vector rather than probing dimension
// up front.
func (s *VectorStorePostgres) ensureTable(ctx context.Context, table string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done[table] {
		return nil
	}

	db := s.db.Session(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return fmt.Errorf("create pgvector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id SERIAL PRIMARY KEY,
    chunk_id VARCHAR(128) NOT NULL UNIQUE,
    repo_id BIGINT NOT NULL,
    commit_sha VARCHAR(64) NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    content TEXT NOT NULL,
    embedding VECTOR(%d)
)`, table, dimension)
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create vector table %s: %w", table, err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_partition_idx ON %s (repo_id, commit_sha)`, table, table)
	if err := db.Exec(idx).Error; err != nil {
		return fmt.Errorf("create partition index on %s: %w", table, err)
	}

	vecIdx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`, table, table)
	if err := db.Exec(vecIdx).Error; err != nil {
		// Index creation can race across concurrent first-callers; not fatal.
		_ = err
	}

	s.done[table] = true
	return nil
}

// vectorLiteral formats a []float32 as pgvector's text input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert inserts or replaces points keyed by chunk_id.
func (s *VectorStorePostgres) Upsert(ctx context.Context, collection string, points []search.Point) error {
	if len(points) == 0 {
		return nil
	}
	table := pgTableName(collection)
	if err := s.ensureTable(ctx, table, len(points[0].Vector)); err != nil {
		return err
	}

	db := s.db.Session(ctx)
	entities := make([]pgVectorEntity, len(points))
	for i, p := range points {
		entities[i] = pgVectorEntity{
			ChunkID:   p.ChunkID,
			RepoID:    p.RepoID,
			CommitSHA: p.CommitSHA,
			FilePath:  p.FilePath,
			StartLine: p.StartLine,
			EndLine:   p.EndLine,
			Content:   p.Content,
		}
	}

	err := db.Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chunk_id"}},
		UpdateAll: true,
	}).Create(&entities).Error
	if err != nil {
		return fmt.Errorf("upsert vector rows into %s: %w", table, err)
	}

	for _, p := range points {
		update := fmt.Sprintf(`UPDATE %s SET embedding = ? WHERE chunk_id = ?`, table)
		if err := db.Exec(update, vectorLiteral(p.Vector), p.ChunkID).Error; err != nil {
			return fmt.Errorf("set embedding for %s: %w", p.ChunkID, err)
		}
	}
	return nil
}

type pgSearchRow struct {
	ChunkID   string
	RepoID    int64
	CommitSHA string
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
	Distance  float64
}

// Search orders by pgvector's <=> cosine-distance operator, converting
// distance to a [-1, 1] similarity score (score = 1 - distance) so callers
// see the same scale as VectorStoreSQLite's cosine similarity.
func (s *VectorStorePostgres) Search(ctx context.Context, collection string, vector []float32, filter search.Filter, limit int, scoreThreshold float64) ([]search.Hit, error) {
	table := pgTableName(collection)
	if err := s.ensureTable(ctx, table, len(vector)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
SELECT chunk_id, repo_id, commit_sha, file_path, start_line, end_line, content,
       embedding <=> ? AS distance
FROM %s
WHERE repo_id = ? AND commit_sha = ?
ORDER BY distance ASC
LIMIT ?`, table)

	var rows []pgSearchRow
	err := s.db.Session(ctx).Raw(query, vectorLiteral(vector), filter.RepoID, filter.CommitSHA, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search vectors in %s: %w", table, err)
	}

	hits := make([]search.Hit, 0, len(rows))
	for _, r := range rows {
		score := 1 - r.Distance
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, search.Hit{
			Point: search.Point{
				ChunkID:   r.ChunkID,
				RepoID:    r.RepoID,
				CommitSHA: r.CommitSHA,
				FilePath:  r.FilePath,
				StartLine: r.StartLine,
				EndLine:   r.EndLine,
				Content:   r.Content,
			},
			Score: score,
		})
	}
	return hits, nil
}

// Delete removes every point in the (repo_id, commit_sha) partition. If
// the table was never created (no Upsert yet reached this collection),
// this is a no-op.
func (s *VectorStorePostgres) Delete(ctx context.Context, collection string, filter search.Filter) error {
	s.mu.Lock()
	exists := s.done[pgTableName(collection)]
	s.mu.Unlock()
	if !exists {
		return nil
	}

	table := pgTableName(collection)
	del := fmt.Sprintf(`DELETE FROM %s WHERE repo_id = ? AND commit_sha = ?`, table)
	if err := s.db.Session(ctx).Exec(del, filter.RepoID, filter.CommitSHA).Error; err != nil {
		return fmt.Errorf("delete vectors from %s: %w", table, err)
	}
	return nil
}

var _ search.VectorStore = (*VectorStorePostgres)(nil)
