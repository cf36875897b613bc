package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GoGitAdapter implements Adapter using go-git.
type GoGitAdapter struct {
	logger *slog.Logger
}

// NewGoGitAdapter creates a GoGitAdapter.
func NewGoGitAdapter(logger *slog.Logger) *GoGitAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoGitAdapter{logger: logger}
}

// CloneRepository performs a shallow, single-branch, tagless clone, per
// SPEC_FULL.md §4.1.
func (g *GoGitAdapter) CloneRepository(ctx context.Context, remoteURI, localPath string) error {
	g.logger.Info("cloning repository", slog.String("uri", remoteURI), slog.String("path", localPath))

	if _, err := os.Stat(localPath); err == nil {
		if err := os.RemoveAll(localPath); err != nil {
			return fmt.Errorf("remove existing directory: %w", err)
		}
	}

	_, err := gogit.PlainCloneContext(ctx, localPath, false, &gogit.CloneOptions{
		URL:          remoteURI,
		Depth:        1,
		SingleBranch: true,
		Tags:         gogit.NoTags,
		Progress:     nil,
	})
	if err != nil {
		return fmt.Errorf("clone repository: %w", err)
	}
	return nil
}

// DefaultBranch resolves the branch HEAD points at in the local checkout.
func (g *GoGitAdapter) DefaultBranch(ctx context.Context, localPath string) (string, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return "", fmt.Errorf("HEAD is not a branch reference")
}

// LatestCommitSHA returns the head commit SHA checked out at localPath.
func (g *GoGitAdapter) LatestCommitSHA(ctx context.Context, localPath string) (string, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// FetchRepository fetches the latest changes for an existing shallow clone.
func (g *GoGitAdapter) FetchRepository(ctx context.Context, localPath string) error {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	err = repo.FetchContext(ctx, &gogit.FetchOptions{RemoteName: "origin", Force: true})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch repository: %w", err)
	}
	return nil
}

// CheckoutBranch checks out branchName, trying the local ref then the
// remote-tracking ref.
func (g *GoGitAdapter) CheckoutBranch(ctx context.Context, localPath, branchName string) error {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branchName)
	if err := worktree.Checkout(&gogit.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		remoteRef := plumbing.NewRemoteReferenceName("origin", branchName)
		if err := worktree.Checkout(&gogit.CheckoutOptions{Branch: remoteRef, Force: true}); err != nil {
			return fmt.Errorf("checkout branch %s: %w", branchName, err)
		}
	}
	return nil
}

// Ensure GoGitAdapter implements Adapter.
var _ Adapter = (*GoGitAdapter)(nil)
