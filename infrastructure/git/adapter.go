// Package git implements the cloner (C4): a shallow-clone adapter over
// go-git, split into an interface plus a concrete backend so a second VCS
// backend can be added without touching callers.
package git

import "context"

// Adapter wraps the subset of git operations the ingestion pipeline needs:
// a shallow clone of one commit and enough read access to resolve the
// default branch and its head SHA.
type Adapter interface {
	// CloneRepository performs a shallow (depth 1, single branch, no tags)
	// clone of remoteURI's default branch into localPath.
	CloneRepository(ctx context.Context, remoteURI, localPath string) error

	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, localPath string) (string, error)

	// LatestCommitSHA returns the head commit SHA of localPath's checked-out
	// branch.
	LatestCommitSHA(ctx context.Context, localPath string) (string, error)

	// FetchRepository fetches the latest changes for an already-cloned
	// repository, used by the periodic tracked-branch re-sync.
	FetchRepository(ctx context.Context, localPath string) error

	// CheckoutBranch checks out branchName in localPath.
	CheckoutBranch(ctx context.Context, localPath, branchName string) error
}
