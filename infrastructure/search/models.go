// Package search implements the vector store (C3) over both the SQLite
// and Postgres backends this module's persistence layer already supports,
// split between VectorStoreSQLite and VectorStorePostgres (pgvector).
package search

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Float32Slice round-trips a []float32 embedding through a SQLite JSON
// column via a scanner/valuer pair.
type Float32Slice []float32

// Scan implements sql.Scanner.
func (f *Float32Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float32Slice", value)
	}

	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer.
func (f Float32Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// sqliteVectorEntity is the GORM row for a point in the SQLite vector
// store: table name is dynamic per collection (clause.Table at the call
// site) because GORM caches schemas by type, so dynamic TableName() does
// not work across multiple table names for the same struct.
type sqliteVectorEntity struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement"`
	ChunkID   string       `gorm:"column:chunk_id;uniqueIndex"`
	RepoID    int64        `gorm:"column:repo_id;index:idx_sqlite_vec_partition"`
	CommitSHA string       `gorm:"column:commit_sha;index:idx_sqlite_vec_partition"`
	FilePath  string       `gorm:"column:file_path"`
	StartLine int          `gorm:"column:start_line"`
	EndLine   int          `gorm:"column:end_line"`
	Content   string       `gorm:"column:content"`
	Embedding Float32Slice `gorm:"column:embedding;type:json"`
}

// pgVectorEntity is the GORM row for a point in the pgvector store. The
// embedding column itself is created with raw SQL (VECTOR(N) has no gorm
// tag equivalent without a custom type), so this struct only carries the
// columns GORM writes through normal Create/Save calls; embedding is set
// via a separate raw UPDATE in upsertPostgres.
type pgVectorEntity struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ChunkID   string `gorm:"column:chunk_id;uniqueIndex"`
	RepoID    int64  `gorm:"column:repo_id;index:idx_pg_vec_partition"`
	CommitSHA string `gorm:"column:commit_sha;index:idx_pg_vec_partition"`
	FilePath  string `gorm:"column:file_path"`
	StartLine int    `gorm:"column:start_line"`
	EndLine   int    `gorm:"column:end_line"`
	Content   string `gorm:"column:content"`
}
