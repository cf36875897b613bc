package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codesense-dev/codesense/domain/coderepo"
)

type fakeAdapter struct {
	cloneErr  error
	branchErr error
	shaErr    error
	sha       string
	branch    string
	cloned    bool
}

func (f *fakeAdapter) CloneRepository(ctx context.Context, _, localPath string) error {
	f.cloned = true
	if f.cloneErr != nil {
		return f.cloneErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(localPath, 0o755)
}

func (f *fakeAdapter) DefaultBranch(_ context.Context, _ string) (string, error) {
	if f.branchErr != nil {
		return "", f.branchErr
	}
	if f.branch == "" {
		return "main", nil
	}
	return f.branch, nil
}

func (f *fakeAdapter) LatestCommitSHA(_ context.Context, _ string) (string, error) {
	if f.shaErr != nil {
		return "", f.shaErr
	}
	if f.sha == "" {
		return "abc123", nil
	}
	return f.sha, nil
}

func (f *fakeAdapter) FetchRepository(_ context.Context, _ string) error { return nil }
func (f *fakeAdapter) CheckoutBranch(_ context.Context, _, _ string) error { return nil }

func TestClone_Success(t *testing.T) {
	fake := &fakeAdapter{branch: "main", sha: "deadbeef"}
	cloner := NewCloner(fake, t.TempDir(), nil)

	result, err := cloner.Clone(context.Background(), "https://github.com/example/repo.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DefaultBranch != "main" {
		t.Errorf("expected branch main, got %q", result.DefaultBranch)
	}
	if result.CommitSHA != "deadbeef" {
		t.Errorf("expected sha deadbeef, got %q", result.CommitSHA)
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Errorf("expected clone path to exist: %v", err)
	}
}

func TestClone_TransportFailureWrapsRepoUnavailable(t *testing.T) {
	fake := &fakeAdapter{cloneErr: errors.New("connection refused")}
	cloner := NewCloner(fake, t.TempDir(), nil)

	_, err := cloner.Clone(context.Background(), "https://github.com/example/repo.git")
	if !errors.Is(err, coderepo.ErrRepoUnavailable) {
		t.Fatalf("expected ErrRepoUnavailable, got %v", err)
	}
}

func TestClone_CleansUpScratchDirOnFailure(t *testing.T) {
	fake := &fakeAdapter{branchErr: errors.New("no HEAD")}
	cloneDir := t.TempDir()
	cloner := NewCloner(fake, cloneDir, nil)

	clonePath := cloner.ClonePathFromURI("https://github.com/example/repo.git")

	_, err := cloner.Clone(context.Background(), "https://github.com/example/repo.git")
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(clonePath); !os.IsNotExist(statErr) {
		t.Errorf("expected scratch dir to be removed, stat err: %v", statErr)
	}
}

func TestClone_TimeoutWrapsCloneTimeout(t *testing.T) {
	fake := &fakeAdapter{}
	cloner := NewCloner(fake, t.TempDir(), nil).WithTimeout(1 * time.Nanosecond)

	_, err := cloner.Clone(context.Background(), "https://github.com/example/repo.git")
	if !errors.Is(err, coderepo.ErrCloneTimeout) {
		t.Fatalf("expected ErrCloneTimeout, got %v", err)
	}
}

func TestSanitizeURIForPath_TruncatesLongURIs(t *testing.T) {
	long := "https://github.com/" + string(make([]byte, 200)) + "/repo"
	cloner := NewCloner(&fakeAdapter{}, t.TempDir(), nil)
	path := cloner.ClonePathFromURI(long)
	base := filepath.Base(path)
	if len(base) > 80 {
		t.Errorf("expected sanitized path segment <= 80 chars, got %d", len(base))
	}
}
