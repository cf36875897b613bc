package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"gorm.io/gorm/clause"

	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/internal/database"
)

var collectionNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sqliteTableName(collection string) string {
	return "vec_" + collectionNamePattern.ReplaceAllString(collection, "_")
}

// VectorStoreSQLite implements domain/search.VectorStore for SQLite:
// embeddings are stored as a JSON column and similarity search is computed
// in-memory with domain/search.CosineSimilarity.
type VectorStoreSQLite struct {
	db   database.Database
	mu   sync.Mutex
	done map[string]bool
}

// NewVectorStoreSQLite creates a VectorStoreSQLite over db.
func NewVectorStoreSQLite(db database.Database) *VectorStoreSQLite {
	return &VectorStoreSQLite{db: db, done: map[string]bool{}}
}

func (s *VectorStoreSQLite) ensureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done[table] {
		return nil
	}

	// Raw SQL, not AutoMigrate: GORM caches schemas by Go type, which
	// conflicts with this store's one-struct-many-tables design.
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_id VARCHAR(128) NOT NULL UNIQUE,
    repo_id INTEGER NOT NULL,
    commit_sha VARCHAR(64) NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    content TEXT NOT NULL,
    embedding JSON NOT NULL
)`, table)
	if err := s.db.Session(ctx).Exec(ddl).Error; err != nil {
		return fmt.Errorf("create vector table %s: %w", table, err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_partition_idx ON %s (repo_id, commit_sha)`, table, table)
	if err := s.db.Session(ctx).Exec(idx).Error; err != nil {
		return fmt.Errorf("create vector index on %s: %w", table, err)
	}

	s.done[table] = true
	return nil
}

// Upsert inserts or replaces points keyed by chunk_id.
func (s *VectorStoreSQLite) Upsert(ctx context.Context, collection string, points []search.Point) error {
	if len(points) == 0 {
		return nil
	}
	table := sqliteTableName(collection)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	entities := make([]sqliteVectorEntity, len(points))
	for i, p := range points {
		entities[i] = sqliteVectorEntity{
			ChunkID:   p.ChunkID,
			RepoID:    p.RepoID,
			CommitSHA: p.CommitSHA,
			FilePath:  p.FilePath,
			StartLine: p.StartLine,
			EndLine:   p.EndLine,
			Content:   p.Content,
			Embedding: Float32Slice(p.Vector),
		}
	}

	err := s.db.Session(ctx).Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chunk_id"}},
		UpdateAll: true,
	}).Create(&entities).Error
	if err != nil {
		return fmt.Errorf("upsert vectors into %s: %w", table, err)
	}
	return nil
}

// Search computes cosine similarity in-memory against every point in the
// (repo_id, commit_sha) partition, returning the top `limit` above
// scoreThreshold in descending score order.
func (s *VectorStoreSQLite) Search(ctx context.Context, collection string, vector []float32, filter search.Filter, limit int, scoreThreshold float64) ([]search.Hit, error) {
	table := sqliteTableName(collection)
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	var entities []sqliteVectorEntity
	err := s.db.Session(ctx).Table(table).
		Where("repo_id = ? AND commit_sha = ?", filter.RepoID, filter.CommitSHA).
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("load vectors from %s: %w", table, err)
	}

	hits := make([]search.Hit, 0, len(entities))
	for _, e := range entities {
		score := search.CosineSimilarity(vector, []float32(e.Embedding))
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, search.Hit{
			Point: search.Point{
				ChunkID:   e.ChunkID,
				RepoID:    e.RepoID,
				CommitSHA: e.CommitSHA,
				FilePath:  e.FilePath,
				StartLine: e.StartLine,
				EndLine:   e.EndLine,
				Content:   e.Content,
				Vector:    e.Embedding,
			},
			Score: score,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes every point in the (repo_id, commit_sha) partition.
func (s *VectorStoreSQLite) Delete(ctx context.Context, collection string, filter search.Filter) error {
	table := sqliteTableName(collection)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	err := s.db.Session(ctx).Table(table).
		Where("repo_id = ? AND commit_sha = ?", filter.RepoID, filter.CommitSHA).
		Delete(&sqliteVectorEntity{}).Error
	if err != nil {
		return fmt.Errorf("delete vectors from %s: %w", table, err)
	}
	return nil
}

var _ search.VectorStore = (*VectorStoreSQLite)(nil)
