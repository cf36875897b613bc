package chunking

import (
	"context"
	"fmt"
	"strings"

	"github.com/codesense-dev/codesense/domain/chunk"
)

// ByteWindowParams configures ByteWindowChunker: Size/Overlap/MinSize are
// measured in runes.
type ByteWindowParams struct {
	Size    int
	Overlap int
	MinSize int
}

// DefaultByteWindowParams returns the default rune-window sizing.
func DefaultByteWindowParams() ByteWindowParams {
	return ByteWindowParams{Size: 1500, Overlap: 200, MinSize: 50}
}

// ByteWindowChunker is an alternate Strategy for content where line
// boundaries are a poor chunking unit (minified assets, long generated
// files): fixed-size rune windows with overlap, re-expressed against
// line-numbered Chunk records by mapping each window's rune span back onto
// the lines it covers.
type ByteWindowChunker struct {
	params ByteWindowParams
}

// NewByteWindowChunker creates a ByteWindowChunker with the given params.
func NewByteWindowChunker(params ByteWindowParams) ByteWindowChunker {
	return ByteWindowChunker{params: params}
}

// Chunk splits content into fixed-size rune windows with overlap. Size,
// Overlap, and MinSize are measured in runes; each resulting chunk carries
// the 1-based inclusive line range its rune span touches, and is prefixed
// with the same provenance header as LineWindowChunker.
func (c ByteWindowChunker) Chunk(_ context.Context, repoID int64, commitSHA, filePath string, content []byte) []chunk.Chunk {
	params := c.params
	if params.Size <= 0 {
		params = DefaultByteWindowParams()
	}
	if params.Overlap >= params.Size {
		params.Overlap = DefaultByteWindowParams().Overlap
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	lineOf := lineIndex(text)
	step := params.Size - params.Overlap

	var chunks []chunk.Chunk
	for i := 0; i < len(runes); i += step {
		end := i + params.Size
		if end > len(runes) {
			end = len(runes)
		}

		slice := runes[i:end]
		if len(slice) < params.MinSize {
			break
		}
		if i > 0 && len(slice) <= params.Overlap {
			break
		}

		body := string(slice)
		if strings.TrimSpace(body) == "" {
			if end == len(runes) {
				break
			}
			continue
		}

		startLine := lineOf(len(string(runes[:i])))
		endLine := lineOf(len(string(runes[:end])) - 1)
		if endLine < startLine {
			endLine = startLine
		}

		header := fmt.Sprintf("// File: %s (Lines %d-%d)\n", filePath, startLine, endLine)
		chunks = append(chunks, chunk.New(repoID, commitSHA, filePath, startLine, endLine, header+body))

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// lineIndex returns a function mapping a byte offset into text to its
// 1-based line number.
func lineIndex(text string) func(offset int) int {
	boundaries := []int{0}
	for i, b := range []byte(text) {
		if b == '\n' {
			boundaries = append(boundaries, i+1)
		}
	}
	return func(offset int) int {
		if offset < 0 {
			offset = 0
		}
		line := 1
		for _, b := range boundaries[1:] {
			if b > offset {
				break
			}
			line++
		}
		return line
	}
}

var _ Strategy = ByteWindowChunker{}
