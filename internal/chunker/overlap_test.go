package chunker

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

func twoChunks() []types.Chunk {
	return []types.Chunk{
		{Text: "abcdef", StartIndex: 0, EndIndex: 6, TokenCount: 6},
		{Text: "ghijkl", StartIndex: 6, EndIndex: 12, TokenCount: 6},
	}
}

func TestOverlapRefinery_PrefixMode(t *testing.T) {
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 2, mode: OverlapPrefix}

	chunks, err := o.refine(twoChunks())
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The second chunk's materialized text begins with the last two tokens
	// of the first chunk and its count grows accordingly.
	assert.Equal(t, "abcdef", chunks[0].Text)
	assert.Equal(t, "efghijkl", chunks[1].Text)
	assert.Equal(t, 8, chunks[1].TokenCount)

	// Boundaries never move.
	assert.Equal(t, 6, chunks[1].StartIndex)
	assert.Equal(t, 12, chunks[1].EndIndex)

	// The hash follows the materialized text.
	assert.Equal(t, sha256.Sum256([]byte("efghijkl")), chunks[1].ContentHash)
}

func TestOverlapRefinery_ContextMode(t *testing.T) {
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 2, mode: OverlapContext}

	chunks, err := o.refine(twoChunks())
	require.NoError(t, err)

	assert.Equal(t, "ghijkl", chunks[1].Text)
	assert.Equal(t, "ef", chunks[1].Context)
	assert.Equal(t, 6, chunks[1].TokenCount)
	assert.Equal(t, "efghijkl", chunks[1].FullText())
}

func TestOverlapRefinery_FirstChunkUntouched(t *testing.T) {
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 3, mode: OverlapPrefix}

	chunks, err := o.refine(twoChunks())
	require.NoError(t, err)
	assert.Equal(t, "abcdef", chunks[0].Text)
	assert.Empty(t, chunks[0].Context)
}

func TestOverlapRefinery_NoCascade(t *testing.T) {
	// Overlap always comes from the predecessor's original text, so a chain
	// of chunks does not accumulate earlier prefixes.
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 2, mode: OverlapPrefix}
	chunks := []types.Chunk{
		{Text: "aaaa", StartIndex: 0, EndIndex: 4, TokenCount: 4},
		{Text: "bbbb", StartIndex: 4, EndIndex: 8, TokenCount: 4},
		{Text: "cccc", StartIndex: 8, EndIndex: 12, TokenCount: 4},
	}

	out, err := o.refine(chunks)
	require.NoError(t, err)
	assert.Equal(t, "aabbbb", out[1].Text)
	assert.Equal(t, "bbcccc", out[2].Text)
}

func TestOverlapRefinery_ShortPredecessor(t *testing.T) {
	// A predecessor shorter than the overlap budget contributes all of its
	// text.
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 10, mode: OverlapContext}
	chunks := []types.Chunk{
		{Text: "ab", StartIndex: 0, EndIndex: 2, TokenCount: 2},
		{Text: "cdef", StartIndex: 2, EndIndex: 6, TokenCount: 4},
	}

	out, err := o.refine(chunks)
	require.NoError(t, err)
	assert.Equal(t, "ab", out[1].Context)
}

func TestOverlapRefinery_CountedFallback(t *testing.T) {
	// WordCounter cannot encode; the refinery finds the suffix by counting.
	o := &overlapRefinery{counter: tokenizer.WordCounter{}, tokens: 2, mode: OverlapContext}
	chunks := []types.Chunk{
		{Text: "one two three four", StartIndex: 0, EndIndex: 18, TokenCount: 4},
		{Text: " five six", StartIndex: 18, EndIndex: 27, TokenCount: 2},
	}

	out, err := o.refine(chunks)
	require.NoError(t, err)
	assert.Equal(t, " three four", out[1].Context)
}

func TestOverlapRefinery_ZeroTokensNoop(t *testing.T) {
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 0, mode: OverlapPrefix}
	in := twoChunks()
	out, err := o.refine(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOverlapRefinery_SingleChunkNoop(t *testing.T) {
	o := &overlapRefinery{counter: tokenizer.RuneCounter{}, tokens: 2, mode: OverlapPrefix}
	chunks := []types.Chunk{{Text: "abc", StartIndex: 0, EndIndex: 3, TokenCount: 3}}
	out, err := o.refine(chunks)
	require.NoError(t, err)
	assert.Equal(t, "abc", out[0].Text)
}
