// Package chunking implements the chunker (C9): it turns one file's source
// into a sequence of domain/chunk.Chunk records ready for embedding.
package chunking

import (
	"context"
	"strconv"
	"strings"

	"github.com/codesense-dev/codesense/domain/chunk"
)

// Strategy produces chunks for one file. Alternative language-aware
// splitters MAY be substituted for the default line-window strategy as
// long as they produce records against the same domain/chunk.Chunk schema.
type Strategy interface {
	Chunk(ctx context.Context, repoID int64, commitSHA, filePath string, content []byte) []chunk.Chunk
}

// skipSubstrings are path fragments that exclude a file from chunking
// entirely.
var skipSubstrings = []string{"node_modules", ".git", "venv", "__pycache__", "dist", "build", "vendor"}

const maxFileSize = 1 << 20 // 1 MiB

// ShouldSkip reports whether filePath/size should be excluded from
// chunking before a Strategy ever sees its content.
func ShouldSkip(filePath string, size int64) bool {
	if size > maxFileSize {
		return true
	}
	for _, frag := range skipSubstrings {
		if strings.Contains(filePath, frag) {
			return true
		}
	}
	return false
}

// LineWindowParams configures the default line-window chunker.
type LineWindowParams struct {
	WindowSize int
	Stride     int
}

// DefaultLineWindowParams returns the default sizing: 300-line windows
// with a 250-line stride (50-line overlap).
func DefaultLineWindowParams() LineWindowParams {
	return LineWindowParams{WindowSize: 300, Stride: 250}
}

// LineWindowChunker is the default Strategy: fixed-size, overlapping
// windows of source lines, each prefixed with a provenance header.
type LineWindowChunker struct {
	params LineWindowParams
}

// NewLineWindowChunker creates a LineWindowChunker with the given params.
func NewLineWindowChunker(params LineWindowParams) LineWindowChunker {
	return LineWindowChunker{params: params}
}

// Chunk splits content into line windows: start_line is 1-based inclusive,
// end_line = start_line + len(window) - 1, and empty/whitespace-only
// windows are dropped.
func (c LineWindowChunker) Chunk(_ context.Context, repoID int64, commitSHA, filePath string, content []byte) []chunk.Chunk {
	lines := splitLines(string(content))
	if len(lines) == 0 {
		return nil
	}

	window, stride := c.params.WindowSize, c.params.Stride
	if window <= 0 {
		window = DefaultLineWindowParams().WindowSize
	}
	if stride <= 0 || stride > window {
		stride = DefaultLineWindowParams().Stride
	}

	var chunks []chunk.Chunk
	for start := 0; start < len(lines); start += stride {
		end := start + window
		if end > len(lines) {
			end = len(lines)
		}

		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) == "" {
			if end == len(lines) {
				break
			}
			continue
		}

		startLine, endLine := start+1, end
		header := "// File: " + filePath + " (Lines " + strconv.Itoa(startLine) + "-" + strconv.Itoa(endLine) + ")\n"
		chunks = append(chunks, chunk.New(repoID, commitSHA, filePath, startLine, endLine, header+body))

		if end == len(lines) {
			break
		}
	}
	return chunks
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

var _ Strategy = LineWindowChunker{}
