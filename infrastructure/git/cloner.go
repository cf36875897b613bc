package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codesense-dev/codesense/domain/coderepo"
)

// DefaultCloneTimeout is the default bound on one clone operation, per
// SPEC_FULL.md §4.1.
const DefaultCloneTimeout = 10 * time.Minute

// Cloner clones repositories into a scratch directory, wrapping transport
// failures as domain sentinel errors so the ingestion coordinator can
// distinguish "repo unreachable" from "clone too slow" without inspecting
// go-git's own error types.
type Cloner struct {
	adapter  Adapter
	cloneDir string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCloner creates a Cloner rooted at cloneDir.
func NewCloner(adapter Adapter, cloneDir string, logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{adapter: adapter, cloneDir: cloneDir, timeout: DefaultCloneTimeout, logger: logger}
}

// WithTimeout returns a copy of the Cloner using the given per-clone
// timeout instead of DefaultCloneTimeout.
func (c *Cloner) WithTimeout(d time.Duration) *Cloner {
	clone := *c
	clone.timeout = d
	return &clone
}

// ClonePathFromURI returns the scratch-directory path a given remote URI
// would be cloned into.
func (c *Cloner) ClonePathFromURI(remoteURI string) string {
	return filepath.Join(c.cloneDir, sanitizeURIForPath(remoteURI))
}

// Result is the outcome of a successful clone: the local scratch path, the
// resolved default branch, and the head commit SHA on that branch.
type Result struct {
	Path          string
	DefaultBranch string
	CommitSHA     string
}

// Clone shallow-clones remoteURI and resolves its default branch and head
// commit. On any failure the scratch directory is removed and the error is
// wrapped as coderepo.ErrRepoUnavailable or coderepo.ErrCloneTimeout.
func (c *Cloner) Clone(ctx context.Context, remoteURI string) (Result, error) {
	clonePath := c.ClonePathFromURI(remoteURI)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Info("cloning repository", slog.String("uri", remoteURI), slog.String("path", clonePath))

	if err := c.adapter.CloneRepository(ctx, remoteURI, clonePath); err != nil {
		_ = os.RemoveAll(clonePath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %s: %v", coderepo.ErrCloneTimeout, remoteURI, err)
		}
		return Result{}, fmt.Errorf("%w: %s: %v", coderepo.ErrRepoUnavailable, remoteURI, err)
	}

	branch, err := c.adapter.DefaultBranch(ctx, clonePath)
	if err != nil {
		_ = os.RemoveAll(clonePath)
		return Result{}, fmt.Errorf("%w: resolve default branch: %v", coderepo.ErrRepoUnavailable, err)
	}

	sha, err := c.adapter.LatestCommitSHA(ctx, clonePath)
	if err != nil {
		_ = os.RemoveAll(clonePath)
		return Result{}, fmt.Errorf("%w: resolve head commit: %v", coderepo.ErrRepoUnavailable, err)
	}

	return Result{Path: clonePath, DefaultBranch: branch, CommitSHA: sha}, nil
}

// Cleanup removes the scratch directory for a completed or abandoned clone.
func (c *Cloner) Cleanup(path string) error {
	return os.RemoveAll(path)
}

func sanitizeURIForPath(uri string) string {
	result := make([]byte, 0, len(uri))
	for _, b := range []byte(uri) {
		switch b {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '@':
			result = append(result, '_')
		default:
			result = append(result, b)
		}
	}

	s := string(result)
	for _, prefix := range []string{"https___", "http___", "git___", "file____", "file___"} {
		if len(s) > len(prefix) && s[:len(prefix)] == prefix {
			s = s[len(prefix):]
			break
		}
	}

	const maxLen = 80
	if len(s) > maxLen {
		hash := sha256.Sum256([]byte(uri))
		suffix := hex.EncodeToString(hash[:8])
		s = s[:maxLen-len(suffix)-1] + "-" + suffix
	}

	return s
}
