// Package coderepo provides domain types for tracked source repositories.
package coderepo

import "time"

// Repository is a versioned source tree identified by (provider, owner, name).
// Created on first ingestion; mutated only when a newer commit is indexed.
type Repository struct {
	id              int64
	provider        string
	owner           string
	name            string
	remoteURL       string
	defaultBranch   string
	latestCommitSHA string
	lastIndexedAt   time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// New creates a Repository that has not yet been persisted.
func New(provider, owner, name, remoteURL string) Repository {
	return Repository{
		provider:  provider,
		owner:     owner,
		name:      name,
		remoteURL: remoteURL,
	}
}

// Reconstruct recreates a Repository from persistence.
func Reconstruct(
	id int64,
	provider, owner, name, remoteURL, defaultBranch, latestCommitSHA string,
	lastIndexedAt, createdAt, updatedAt time.Time,
) Repository {
	return Repository{
		id:              id,
		provider:        provider,
		owner:           owner,
		name:            name,
		remoteURL:       remoteURL,
		defaultBranch:   defaultBranch,
		latestCommitSHA: latestCommitSHA,
		lastIndexedAt:   lastIndexedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the database identifier, or 0 if not yet persisted.
func (r Repository) ID() int64 { return r.id }

// Provider returns the hosting provider (e.g. "github").
func (r Repository) Provider() string { return r.provider }

// Owner returns the repository owner or organization.
func (r Repository) Owner() string { return r.owner }

// Name returns the repository name.
func (r Repository) Name() string { return r.name }

// RemoteURL returns the clone URL.
func (r Repository) RemoteURL() string { return r.remoteURL }

// DefaultBranch returns the tracked default branch, if known.
func (r Repository) DefaultBranch() string { return r.defaultBranch }

// LatestCommitSHA returns the most recently indexed commit, if any.
func (r Repository) LatestCommitSHA() string { return r.latestCommitSHA }

// HasIndexedCommit reports whether any commit has ever been indexed.
func (r Repository) HasIndexedCommit() bool { return r.latestCommitSHA != "" }

// LastIndexedAt returns when the latest commit finished indexing.
func (r Repository) LastIndexedAt() time.Time { return r.lastIndexedAt }

// CreatedAt returns the creation timestamp.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// WithID returns a copy with the given ID.
func (r Repository) WithID(id int64) Repository {
	r.id = id
	return r
}

// WithIndexedCommit returns a copy recording that commitSHA was just indexed.
func (r Repository) WithIndexedCommit(commitSHA string, indexedAt time.Time) Repository {
	r.latestCommitSHA = commitSHA
	r.lastIndexedAt = indexedAt
	r.updatedAt = indexedAt
	return r
}

// WithDefaultBranch returns a copy with the given default branch.
func (r Repository) WithDefaultBranch(branch string) Repository {
	r.defaultBranch = branch
	return r
}

// Key uniquely identifies a repository: (provider, owner, name).
type Key struct {
	Provider string
	Owner    string
	Name     string
}

// Key returns this repository's (provider, owner, name) key.
func (r Repository) Key() Key {
	return Key{Provider: r.provider, Owner: r.owner, Name: r.name}
}

// BlobPrefix returns the object-store key prefix for this repository's commit,
// e.g. "github/owner/name/{sha}".
func (r Repository) BlobPrefix(commitSHA string) string {
	return r.provider + "/" + r.owner + "/" + r.name + "/" + commitSHA
}
