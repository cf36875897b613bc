package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line"
	}
	return strings.Join(lines, "\n")
}

func TestLineWindowChunker_SlidesWithOverlap(t *testing.T) {
	content := makeLines(700)
	c := NewLineWindowChunker(DefaultLineWindowParams())
	chunks := c.Chunk(context.Background(), 1, "sha", "pkg/big.go", []byte(content))

	require.NotEmpty(t, chunks)
	assert.Equal(t, 1, chunks[0].StartLine())
	assert.Equal(t, 300, chunks[0].EndLine())
	assert.Equal(t, 251, chunks[1].StartLine())
	assert.Equal(t, 550, chunks[1].EndLine())

	last := chunks[len(chunks)-1]
	assert.Equal(t, 700, last.EndLine())
	assert.True(t, strings.HasPrefix(last.Content(), "// File: pkg/big.go (Lines"))
}

func TestLineWindowChunker_DropsWhitespaceOnlyWindow(t *testing.T) {
	content := "code line\n" + strings.Repeat("\n", 5)
	c := NewLineWindowChunker(LineWindowParams{WindowSize: 1, Stride: 1})
	chunks := c.Chunk(context.Background(), 1, "sha", "f.go", []byte(content))

	for _, ch := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(strings.TrimPrefix(ch.Content(), "// File: f.go (Lines 1-1)\n")))
	}
}

func TestLineWindowChunker_EmptyContentProducesNoChunks(t *testing.T) {
	c := NewLineWindowChunker(DefaultLineWindowParams())
	chunks := c.Chunk(context.Background(), 1, "sha", "empty.go", []byte(""))
	assert.Empty(t, chunks)
}

func TestShouldSkip_SizeAndPathFiltering(t *testing.T) {
	assert.True(t, ShouldSkip("src/app.go", maxFileSize+1))
	assert.True(t, ShouldSkip("vendor/pkg/app.go", 10))
	assert.True(t, ShouldSkip("node_modules/lib/index.js", 10))
	assert.False(t, ShouldSkip("src/app.go", 10))
}

func TestByteWindowChunker_ProducesOverlappingLineMappedChunks(t *testing.T) {
	content := strings.Repeat("abcdefghij", 300) // 3000 runes
	c := NewByteWindowChunker(DefaultByteWindowParams())
	chunks := c.Chunk(context.Background(), 1, "sha", "min.js", []byte(content))

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.True(t, ch.Valid())
		assert.LessOrEqual(t, ch.StartLine(), ch.EndLine())
	}
}

func TestByteWindowChunker_EmptyContentProducesNoChunks(t *testing.T) {
	c := NewByteWindowChunker(DefaultByteWindowParams())
	chunks := c.Chunk(context.Background(), 1, "sha", "empty.js", []byte("   \n\n"))
	assert.Empty(t, chunks)
}
