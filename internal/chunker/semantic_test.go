package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textchunk-mcp/pkg/types"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 1e-9)

	c := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, cosineSimilarity(a, c), 1e-9)

	d := []float32{-1, 0, 0}
	assert.InDelta(t, -1.0, cosineSimilarity(a, d), 1e-9)

	assert.Equal(t, 0.0, cosineSimilarity(a, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity(a, []float32{0, 0, 0}))
}

func TestAggregate_Mean(t *testing.T) {
	embeddings := [][]float32{
		{2, 0},
		{0, 2},
	}
	w := aggregate(embeddings, 0, 2)
	assert.Equal(t, []float32{1, 1}, w.mean)
	assert.Equal(t, 0, w.from)
	assert.Equal(t, 2, w.to)
}

func TestDetectBoundaries_ValleyBetweenGroups(t *testing.T) {
	// Sentences 1-2 point one way, sentences 3-4 another; the similarity
	// valley sits exactly between sentence 2 and 3.
	embeddings := [][]float32{
		{1, 0},
		{1, 0},
		{0, 1},
		{0, 1},
	}

	bounds, err := detectBoundaries(embeddings, 1, 0.75)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, bounds)
}

func TestDetectBoundaries_AllSimilar(t *testing.T) {
	embeddings := [][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}
	bounds, err := detectBoundaries(embeddings, 1, 0.75)
	require.NoError(t, err)
	assert.Empty(t, bounds)
}

func TestDetectBoundaries_FewerSentencesThanWindow(t *testing.T) {
	embeddings := [][]float32{
		{1, 0},
		{0, 1},
	}
	// Window larger than the document clamps to the available range.
	bounds, err := detectBoundaries(embeddings, 10, 0.75)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, bounds)
}

func TestDetectBoundaries_SingleSentence(t *testing.T) {
	bounds, err := detectBoundaries([][]float32{{1, 0}}, 1, 0.75)
	require.NoError(t, err)
	assert.Empty(t, bounds)
}

func TestDetectBoundaries_DimensionMismatch(t *testing.T) {
	embeddings := [][]float32{
		{1, 0},
		{1, 0, 0},
	}
	_, err := detectBoundaries(embeddings, 1, 0.5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDetectBoundaries_ThresholdMonotonicity(t *testing.T) {
	embeddings := [][]float32{
		{1, 0}, {0.9, 0.1}, {0.2, 0.8}, {0, 1}, {0.5, 0.5}, {1, 0.2},
	}

	prev := -1
	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
		bounds, err := detectBoundaries(embeddings, 1, threshold)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(bounds), prev, "threshold %v", threshold)
		prev = len(bounds)
	}
}

func TestGroupByBoundaries(t *testing.T) {
	sentences := []types.Sentence{
		{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"},
	}

	groups := groupByBoundaries(sentences, []int{1})
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 2)

	// No boundaries: one group spanning everything.
	groups = groupByBoundaries(sentences, nil)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 4)

	// Out-of-range and unordered indices are ignored.
	groups = groupByBoundaries(sentences, []int{5, -1, 2})
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 1)

	assert.Nil(t, groupByBoundaries(nil, []int{0}))
}
