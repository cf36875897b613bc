package coderepo

import "errors"

// Sentinel errors surfaced by the cloner (C4). These propagate to the
// caller of ingest(); the ingestion run is written as FAILED.
// ErrInvalidURL (see url.go) is the third member of this family.
var (
	ErrRepoUnavailable = errors.New("repository unavailable")
	ErrCloneTimeout    = errors.New("clone timed out")
)
