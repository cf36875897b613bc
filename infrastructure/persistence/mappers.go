package persistence

import (
	"encoding/json"
	"time"

	"github.com/codesense-dev/codesense/domain/chunk"
	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/domain/taskqueue"
)

// RepositoryMapper maps between coderepo.Repository and RepositoryModel.
type RepositoryMapper struct{}

// ToDomain converts a RepositoryModel to a domain Repository.
func (RepositoryMapper) ToDomain(m RepositoryModel) coderepo.Repository {
	var lastIndexed time.Time
	if m.LastIndexedAt != nil {
		lastIndexed = *m.LastIndexedAt
	}
	return coderepo.Reconstruct(
		m.ID, m.Provider, m.Owner, m.Name, m.RemoteURL, m.DefaultBranch,
		m.LatestCommitSHA, lastIndexed, m.CreatedAt, m.UpdatedAt,
	)
}

// ToModel converts a domain Repository to a RepositoryModel.
func (RepositoryMapper) ToModel(r coderepo.Repository) RepositoryModel {
	var lastIndexed *time.Time
	if !r.LastIndexedAt().IsZero() {
		t := r.LastIndexedAt()
		lastIndexed = &t
	}
	return RepositoryModel{
		ID:              r.ID(),
		Provider:        r.Provider(),
		Owner:           r.Owner(),
		Name:            r.Name(),
		RemoteURL:       r.RemoteURL(),
		DefaultBranch:   r.DefaultBranch(),
		LatestCommitSHA: r.LatestCommitSHA(),
		LastIndexedAt:   lastIndexed,
	}
}

// RunMapper maps between ingestion.Run and IngestionRunModel.
type RunMapper struct{}

// ToDomain converts an IngestionRunModel to a domain Run.
func (RunMapper) ToDomain(m IngestionRunModel) ingestion.Run {
	var started, finished time.Time
	if m.StartedAt != nil {
		started = *m.StartedAt
	}
	if m.FinishedAt != nil {
		finished = *m.FinishedAt
	}
	return ingestion.Reconstruct(
		m.ID, m.RepoID, m.CommitSHA, ingestion.Status(m.Status), ingestion.Stage(m.Stage),
		m.Degraded, started, finished, m.Error,
	)
}

// ToModel converts a domain Run to an IngestionRunModel.
func (RunMapper) ToModel(r ingestion.Run) IngestionRunModel {
	var started, finished *time.Time
	if !r.StartedAt().IsZero() {
		t := r.StartedAt()
		started = &t
	}
	if !r.FinishedAt().IsZero() {
		t := r.FinishedAt()
		finished = &t
	}
	return IngestionRunModel{
		ID:         r.ID(),
		RepoID:     r.RepoID(),
		CommitSHA:  r.CommitSHA(),
		Status:     string(r.Status()),
		Stage:      string(r.Stage()),
		Degraded:   r.Degraded(),
		StartedAt:  started,
		FinishedAt: finished,
		Error:      r.Error(),
	}
}

// SymbolMapper maps between symbol.Symbol and CodeSymbolModel.
type SymbolMapper struct{}

// ToDomain converts a CodeSymbolModel to a domain Symbol.
func (SymbolMapper) ToDomain(m CodeSymbolModel) symbol.Symbol {
	var parentID int64
	if m.ParentSymbolID != nil {
		parentID = *m.ParentSymbolID
	}
	var md symbol.Metadata
	if m.ExtraMetadata != "" {
		_ = json.Unmarshal([]byte(m.ExtraMetadata), &md)
	}
	if md == nil {
		md = symbol.Metadata{}
	}
	return symbol.Reconstruct(
		m.ID, m.RepoID, m.CommitSHA, symbol.Kind(m.SymbolType), m.Name, m.QualifiedName,
		m.Signature, m.FilePath, m.LineStart, m.LineEnd, symbol.Scope(m.Scope), parentID, md,
	)
}

// ToModel converts a domain Symbol to a CodeSymbolModel.
func (SymbolMapper) ToModel(s symbol.Symbol) CodeSymbolModel {
	var parentID *int64
	if s.HasParent() {
		id := s.ParentSymbolID()
		parentID = &id
	}
	mdJSON, _ := json.Marshal(s.ExtraMetadata())
	return CodeSymbolModel{
		ID:             s.ID(),
		RepoID:         s.RepoID(),
		CommitSHA:      s.CommitSHA(),
		SymbolType:     string(s.SymbolType()),
		Name:           s.Name(),
		QualifiedName:  s.QualifiedName(),
		Signature:      s.Signature(),
		FilePath:       s.FilePath(),
		LineStart:      s.LineStart(),
		LineEnd:        s.LineEnd(),
		Scope:          string(s.Scope()),
		ParentSymbolID: parentID,
		ExtraMetadata:  string(mdJSON),
	}
}

// RelationshipMapper maps between relationship.Relationship and SymbolRelationshipModel.
type RelationshipMapper struct{}

// ToDomain converts a SymbolRelationshipModel to a domain Relationship.
func (RelationshipMapper) ToDomain(m SymbolRelationshipModel) relationship.Relationship {
	var md relationship.Metadata
	if m.ExtraMetadata != "" {
		_ = json.Unmarshal([]byte(m.ExtraMetadata), &md)
	}
	if md == nil {
		md = relationship.Metadata{}
	}
	return relationship.Reconstruct(m.ID, m.RepoID, m.CommitSHA, m.SourceID, m.TargetID, relationship.Type(m.RelationshipType), md)
}

// ToModel converts a domain Relationship to a SymbolRelationshipModel.
func (RelationshipMapper) ToModel(r relationship.Relationship) SymbolRelationshipModel {
	mdJSON, _ := json.Marshal(r.ExtraMetadata())
	return SymbolRelationshipModel{
		ID:               r.ID(),
		RepoID:           r.RepoID(),
		CommitSHA:        r.CommitSHA(),
		SourceID:         r.SourceID(),
		TargetID:         r.TargetID(),
		RelationshipType: string(r.RelationshipType()),
		ExtraMetadata:    string(mdJSON),
	}
}

// ChunkMapper maps between chunk.Chunk and ChunkModel.
type ChunkMapper struct{}

// ToDomain converts a ChunkModel to a domain Chunk (without its vector; the
// vector lives in the vector store, keyed by the same ChunkID).
func (ChunkMapper) ToDomain(m ChunkModel) chunk.Chunk {
	return chunk.Reconstruct(m.ChunkID, m.RepoID, m.CommitSHA, m.FilePath, m.StartLine, m.EndLine, m.Content, nil)
}

// ToModel converts a domain Chunk to a ChunkModel.
func (ChunkMapper) ToModel(c chunk.Chunk) ChunkModel {
	return ChunkModel{
		ChunkID:   c.ChunkID(),
		RepoID:    c.RepoID(),
		CommitSHA: c.CommitSHA(),
		FilePath:  c.FilePath(),
		StartLine: c.StartLine(),
		EndLine:   c.EndLine(),
		Content:   c.Content(),
		Embedded:  c.HasVector(),
	}
}

// TaskMapper maps between taskqueue.Task and TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (TaskMapper) ToDomain(m TaskModel) taskqueue.Task {
	var payload map[string]any
	if m.Payload != "" {
		_ = json.Unmarshal([]byte(m.Payload), &payload)
	}
	return taskqueue.Reconstruct(m.ID, m.DedupKey, ingestion.Stage(m.Stage), m.Priority, payload, m.CreatedAt, m.UpdatedAt)
}

// ToModel converts a domain Task to a TaskModel.
func (TaskMapper) ToModel(t taskqueue.Task) TaskModel {
	payloadJSON, _ := json.Marshal(t.Payload())
	return TaskModel{
		ID:       t.ID(),
		DedupKey: t.DedupKey(),
		Stage:    string(t.Stage()),
		Priority: t.Priority(),
		Payload:  string(payloadJSON),
	}
}
