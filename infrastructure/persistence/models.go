// Package persistence implements the relational symbol store (C2) and the
// other GORM-backed repositories (repositories, ingestion runs, chunks) over
// sqlite/postgres, following the value-type-plus-mapper convention used
// throughout this module's domain packages.
package persistence

import "time"

// RepositoryModel is the GORM row for domain/coderepo.Repository.
type RepositoryModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	Provider        string    `gorm:"index:idx_repo_key,unique"`
	Owner           string    `gorm:"index:idx_repo_key,unique"`
	Name            string    `gorm:"index:idx_repo_key,unique"`
	RemoteURL       string
	DefaultBranch   string
	LatestCommitSHA string
	LastIndexedAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides GORM's pluralization.
func (RepositoryModel) TableName() string { return "repositories" }

// IngestionRunModel is the GORM row for domain/ingestion.Run.
type IngestionRunModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RepoID     int64  `gorm:"index:idx_run_repo_commit"`
	CommitSHA  string `gorm:"index:idx_run_repo_commit"`
	Status     string `gorm:"index"`
	Stage      string
	Degraded   bool
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides GORM's pluralization.
func (IngestionRunModel) TableName() string { return "ingestion_runs" }

// CodeSymbolModel is the GORM row for domain/symbol.Symbol.
type CodeSymbolModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	RepoID          int64  `gorm:"index:idx_symbol_partition"`
	CommitSHA       string `gorm:"index:idx_symbol_partition"`
	SymbolType      string `gorm:"index"`
	Name            string `gorm:"index"`
	QualifiedName   string `gorm:"index"`
	Signature       string
	FilePath        string `gorm:"index"`
	LineStart       int
	LineEnd         int
	Scope           string
	ParentSymbolID  *int64
	ExtraMetadata   string // JSON-encoded symbol.Metadata
	CreatedAt       time.Time
}

// TableName overrides GORM's pluralization.
func (CodeSymbolModel) TableName() string { return "code_symbols" }

// SymbolRelationshipModel is the GORM row for domain/relationship.Relationship.
type SymbolRelationshipModel struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	RepoID           int64  `gorm:"index:idx_rel_partition"`
	CommitSHA        string `gorm:"index:idx_rel_partition"`
	SourceID         int64  `gorm:"index"`
	TargetID         int64  `gorm:"index"`
	RelationshipType string `gorm:"index"`
	ExtraMetadata    string
	CreatedAt        time.Time
}

// TableName overrides GORM's pluralization.
func (SymbolRelationshipModel) TableName() string { return "symbol_relationships" }

// ChunkModel is the GORM row for domain/chunk.Chunk. The vector itself is
// stored through infrastructure/search's VectorStore, not here; this row
// carries the text and line range so the vector store's payload can be
// reconstructed/re-verified without re-reading the clone.
type ChunkModel struct {
	ChunkID   string `gorm:"primaryKey"`
	RepoID    int64  `gorm:"index:idx_chunk_partition"`
	CommitSHA string `gorm:"index:idx_chunk_partition"`
	FilePath  string `gorm:"index"`
	StartLine int
	EndLine   int
	Content   string
	Embedded  bool
	CreatedAt time.Time
}

// TableName overrides GORM's pluralization.
func (ChunkModel) TableName() string { return "chunks" }

// TaskModel is the GORM row for domain/taskqueue.Task.
type TaskModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	DedupKey  string `gorm:"uniqueIndex"`
	Stage     string `gorm:"index"`
	Priority  int    `gorm:"index"`
	Payload   string // JSON-encoded map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's pluralization.
func (TaskModel) TableName() string { return "tasks" }

// AllModels lists every model AutoMigrate needs to create/update.
func AllModels() []any {
	return []any{
		&RepositoryModel{},
		&IngestionRunModel{},
		&CodeSymbolModel{},
		&SymbolRelationshipModel{},
		&ChunkModel{},
		&TaskModel{},
	}
}
