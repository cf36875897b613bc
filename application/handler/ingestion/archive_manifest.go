package ingestion

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/blob"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/infrastructure/git"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// manifestVersion is stamped into every archived manifest, bumped whenever
// the artifact layout this handler writes changes shape.
const manifestVersion = "1"

// ArchiveManifestHandler executes ingestion.StageArchiveManifest: tar+gzip
// the cloned working copy into the object store, write the run's manifest
// alongside it, mark the run complete, and clean up the clone scratch
// directory.
type ArchiveManifestHandler struct {
	repos  persistence.RepositoryStore
	runs   persistence.RunStore
	blobs  blob.Store
	cloner *git.Cloner
}

// NewArchiveManifestHandler creates an ArchiveManifestHandler.
func NewArchiveManifestHandler(repos persistence.RepositoryStore, runs persistence.RunStore, blobs blob.Store, cloner *git.Cloner) *ArchiveManifestHandler {
	return &ArchiveManifestHandler{repos: repos, runs: runs, blobs: blobs, cloner: cloner}
}

// Execute implements handler.Handler.
func (h *ArchiveManifestHandler) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repo_id")
	if err != nil {
		return err
	}
	commitSHA, err := handler.ExtractString(payload, "commit_sha")
	if err != nil {
		return err
	}
	runID, err := handler.ExtractInt64(payload, "run_id")
	if err != nil {
		return err
	}
	clonePath, err := handler.ExtractString(payload, "clone_path")
	if err != nil {
		return err
	}
	chunksCount, _ := handler.ExtractInt64(payload, "chunks_count")

	repo, err := h.repos.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("archive_manifest: load repository %d: %w", repoID, err)
	}

	archive, err := tarGzipDir(clonePath)
	if err != nil {
		return fmt.Errorf("archive_manifest: archive %s: %w", clonePath, err)
	}

	prefix := repo.BlobPrefix(commitSHA)
	sourceKey := prefix + "/" + string(ingestion.ArtifactSourceTree)
	if err := h.blobs.Put(ctx, sourceKey, blob.Object{Content: archive, ContentType: "application/gzip"}); err != nil {
		return fmt.Errorf("archive_manifest: put source tree: %w", err)
	}

	manifest := ingestion.Manifest{
		Commit:      commitSHA,
		NodesCount:  0,
		ChunksCount: int(chunksCount),
		Version:     manifestVersion,
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("archive_manifest: marshal manifest: %w", err)
	}
	manifestKey := prefix + "/" + string(ingestion.ArtifactManifest)
	if err := h.blobs.Put(ctx, manifestKey, blob.Object{Content: manifestJSON, ContentType: "application/json"}); err != nil {
		return fmt.Errorf("archive_manifest: put manifest: %w", err)
	}

	now := time.Now()
	if err := h.runs.Finish(ctx, runID, ingestion.StatusCompleted, now, ""); err != nil {
		return fmt.Errorf("archive_manifest: finish run %d: %w", runID, err)
	}

	repo = repo.WithIndexedCommit(commitSHA, now)
	if _, err := h.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("archive_manifest: update repository %d: %w", repoID, err)
	}

	if err := h.cloner.Cleanup(clonePath); err != nil {
		return fmt.Errorf("archive_manifest: cleanup %s: %w", clonePath, err)
	}

	return nil
}

// tarGzipDir archives dir's contents, skipping the .git directory, into a
// gzip-compressed tar stream held entirely in memory. No per-file size
// limit is applied here; every regular file of the working tree is included.
func tarGzipDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = tw.Write(content)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ handler.Handler = (*ArchiveManifestHandler)(nil)
