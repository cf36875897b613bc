// Package chunk holds the Chunk value type produced by the chunker (C9) and
// embedded by the embedder (C10): a bounded line range of source text with
// its vector representation, keyed by a deterministic hash of its location
// (repo, commit, path, start line) so re-ingestion is idempotent.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ID computes the deterministic chunk id from (repo_id, commit_sha, file_path,
// start_line): chunk_id = SHA256(repo_id:commit_sha:file_path:start_line).
func ID(repoID int64, commitSHA, filePath string, startLine int) string {
	key := fmt.Sprintf("%d:%s:%s:%d", repoID, commitSHA, filePath, startLine)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Chunk is an immutable bounded line-range of source text, optionally
// carrying its embedding vector.
type Chunk struct {
	chunkID   string
	repoID    int64
	commitSHA string
	filePath  string
	startLine int
	endLine   int
	content   string
	vector    []float32
}

// New creates a Chunk and derives its deterministic id.
func New(repoID int64, commitSHA, filePath string, startLine, endLine int, content string) Chunk {
	return Chunk{
		chunkID:   ID(repoID, commitSHA, filePath, startLine),
		repoID:    repoID,
		commitSHA: commitSHA,
		filePath:  filePath,
		startLine: startLine,
		endLine:   endLine,
		content:   content,
	}
}

// Reconstruct recreates a Chunk from persistence.
func Reconstruct(chunkID string, repoID int64, commitSHA, filePath string, startLine, endLine int, content string, vector []float32) Chunk {
	return Chunk{
		chunkID:   chunkID,
		repoID:    repoID,
		commitSHA: commitSHA,
		filePath:  filePath,
		startLine: startLine,
		endLine:   endLine,
		content:   content,
		vector:    vector,
	}
}

// ChunkID returns the deterministic id derived by ID.
func (c Chunk) ChunkID() string { return c.chunkID }

// RepoID returns the owning repository id.
func (c Chunk) RepoID() int64 { return c.repoID }

// CommitSHA returns the commit this chunk was sliced from.
func (c Chunk) CommitSHA() string { return c.commitSHA }

// FilePath returns the file-relative path.
func (c Chunk) FilePath() string { return c.filePath }

// StartLine returns the 1-based inclusive start line.
func (c Chunk) StartLine() int { return c.startLine }

// EndLine returns the 1-based inclusive end line.
func (c Chunk) EndLine() int { return c.endLine }

// Content returns the chunk text, including its provenance header.
func (c Chunk) Content() string { return c.content }

// Vector returns the embedding vector, or nil if not yet embedded.
func (c Chunk) Vector() []float32 { return c.vector }

// HasVector reports whether the chunk carries an embedding.
func (c Chunk) HasVector() bool { return len(c.vector) > 0 }

// WithVector returns a copy carrying the given embedding.
func (c Chunk) WithVector(v []float32) Chunk {
	c.vector = v
	return c
}

// Valid reports whether the chunk satisfies the universal invariants:
// 1 <= start_line <= end_line, and non-empty trimmed content.
func (c Chunk) Valid() bool {
	if c.startLine < 1 || c.startLine > c.endLine {
		return false
	}
	return len(strings.TrimSpace(c.content)) > 0
}
