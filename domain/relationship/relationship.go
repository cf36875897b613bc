// Package relationship holds the SymbolRelationship value type: a directed
// edge between two CodeSymbols in the same (repo, commit) partition, emitted
// by the import resolver (C7) and the call-graph builder (C8).
package relationship

// Type enumerates the supported edge kinds.
type Type string

// Type values, closed set per the data model.
const (
	TypeCalls    Type = "calls"
	TypeImports  Type = "imports"
	TypeInherits Type = "inherits"
	TypeUses     Type = "uses"
	TypeDefines  Type = "defines"
	TypeExports  Type = "exports"
)

// Metadata is a free-form attribute bag, analogous to symbol.Metadata.
type Metadata map[string]any

// Relationship is an immutable directed edge between two symbols.
type Relationship struct {
	id               int64
	repoID           int64
	commitSHA        string
	sourceID         int64
	targetID         int64
	relationshipType Type
	extraMetadata    Metadata
}

// New creates a Relationship that has not yet been persisted.
func New(repoID int64, commitSHA string, sourceID, targetID int64, relType Type) Relationship {
	return Relationship{
		repoID:           repoID,
		commitSHA:        commitSHA,
		sourceID:         sourceID,
		targetID:         targetID,
		relationshipType: relType,
		extraMetadata:    Metadata{},
	}
}

// Reconstruct recreates a Relationship from persistence.
func Reconstruct(id, repoID int64, commitSHA string, sourceID, targetID int64, relType Type, md Metadata) Relationship {
	return Relationship{
		id:               id,
		repoID:           repoID,
		commitSHA:        commitSHA,
		sourceID:         sourceID,
		targetID:         targetID,
		relationshipType: relType,
		extraMetadata:    md,
	}
}

// ID returns the database identifier, or 0 if not yet persisted.
func (r Relationship) ID() int64 { return r.id }

// RepoID returns the owning repository id.
func (r Relationship) RepoID() int64 { return r.repoID }

// CommitSHA returns the commit this edge was extracted at.
func (r Relationship) CommitSHA() string { return r.commitSHA }

// SourceID returns the edge's origin symbol id.
func (r Relationship) SourceID() int64 { return r.sourceID }

// TargetID returns the edge's destination symbol id.
func (r Relationship) TargetID() int64 { return r.targetID }

// RelationshipType returns the edge kind.
func (r Relationship) RelationshipType() Type { return r.relationshipType }

// ExtraMetadata returns the free-form attribute bag.
func (r Relationship) ExtraMetadata() Metadata { return r.extraMetadata }

// WithID returns a copy with the given id.
func (r Relationship) WithID(id int64) Relationship {
	r.id = id
	return r
}

// WithMetadata returns a copy carrying the given metadata bag.
func (r Relationship) WithMetadata(md Metadata) Relationship {
	r.extraMetadata = md
	return r
}

// Valid reports whether the relationship satisfies the universal invariant:
// both endpoints are set, and `calls` edges are never self-loops.
func (r Relationship) Valid() bool {
	if r.sourceID == 0 || r.targetID == 0 {
		return false
	}
	if r.relationshipType == TypeCalls && r.sourceID == r.targetID {
		return false
	}
	return true
}
