package persistence

import (
	"context"
	"fmt"

	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/internal/database"
)

// RelationshipStore implements the SymbolRelationship half of the C2
// relational store.
type RelationshipStore struct {
	database.Repository[relationship.Relationship, SymbolRelationshipModel]
}

// NewRelationshipStore creates a RelationshipStore.
func NewRelationshipStore(db database.Database) RelationshipStore {
	return RelationshipStore{
		Repository: database.NewRepository[relationship.Relationship, SymbolRelationshipModel](db, RelationshipMapper{}, "symbol_relationship"),
	}
}

// BulkCreate inserts every relationship in one statement. The import
// resolver (C7) and call-graph builder (C8) both bulk-insert at the end of
// processing one file, flushing once per file rather than per relationship.
func (s RelationshipStore) BulkCreate(ctx context.Context, rels []relationship.Relationship) ([]relationship.Relationship, error) {
	var valid []relationship.Relationship
	for _, r := range rels {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	models := make([]SymbolRelationshipModel, len(valid))
	for i, r := range valid {
		models[i] = s.Mapper().ToModel(r)
	}
	if err := s.DB(ctx).Create(&models).Error; err != nil {
		return nil, fmt.Errorf("bulk create relationships: %w", err)
	}
	out := make([]relationship.Relationship, len(models))
	for i, m := range models {
		out[i] = s.Mapper().ToDomain(m)
	}
	return out, nil
}

// FindBySource returns every relationship of relType originating at
// sourceID (the C13 find_callees / find_imports shape).
func (s RelationshipStore) FindBySource(ctx context.Context, repoID int64, commitSHA string, sourceID int64, relType relationship.Type) ([]relationship.Relationship, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("source_id", sourceID).
		Equal("relationship_type", string(relType))
	return s.Find(ctx, q)
}

// FindByTarget returns every relationship of relType pointing at targetID
// (the C13 find_importers shape).
func (s RelationshipStore) FindByTarget(ctx context.Context, repoID int64, commitSHA string, targetID int64, relType relationship.Type) ([]relationship.Relationship, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("target_id", targetID).
		Equal("relationship_type", string(relType))
	return s.Find(ctx, q)
}
