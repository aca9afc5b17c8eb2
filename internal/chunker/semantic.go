package chunker

import (
	"errors"
	"fmt"
	"math"

	"github.com/dshills/textchunk-mcp/pkg/types"
)

// Embedding errors
var (
	ErrEmbeddingFailed   = errors.New("embedding capability failed")
	ErrDimensionMismatch = errors.New("embedding dimensions are inconsistent")
)

// similarityWindow aggregates a contiguous range of sentence embeddings for
// boundary comparison.
type similarityWindow struct {
	from, to int // sentence index range [from, to)
	mean     []float32
}

// detectBoundaries computes windowed cosine similarity over sentence
// embeddings and returns the indices i where a boundary falls between
// sentence i and i+1: positions where similarity between the preceding and
// following window aggregates drops below threshold.
//
// Windows clamp at the document edges, so documents shorter than the window
// compare whatever range is available. If similarity never dips below the
// threshold the result is empty and the whole document forms one group.
func detectBoundaries(embeddings [][]float32, window int, threshold float64) ([]int, error) {
	n := len(embeddings)
	if n < 2 {
		return nil, nil
	}
	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dims, want %d", ErrDimensionMismatch, i, len(e), dim)
		}
	}

	var bounds []int
	for i := 0; i < n-1; i++ {
		before := aggregate(embeddings, max(0, i-window+1), i+1)
		after := aggregate(embeddings, i+1, min(n, i+1+window))
		if cosineSimilarity(before.mean, after.mean) < threshold {
			bounds = append(bounds, i)
		}
	}
	return bounds, nil
}

// aggregate returns the mean embedding over sentences [from, to).
func aggregate(embeddings [][]float32, from, to int) similarityWindow {
	dim := len(embeddings[0])
	mean := make([]float32, dim)
	for i := from; i < to; i++ {
		for j, v := range embeddings[i] {
			mean[j] += v
		}
	}
	count := float32(to - from)
	for j := range mean {
		mean[j] /= count
	}
	return similarityWindow{from: from, to: to, mean: mean}
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// groupByBoundaries partitions sentences into candidate groups at the given
// boundary indices. Boundary i splits between sentence i and i+1; out-of-range
// or unordered indices are ignored.
func groupByBoundaries(sentences []types.Sentence, bounds []int) [][]types.Sentence {
	if len(sentences) == 0 {
		return nil
	}
	var groups [][]types.Sentence
	start := 0
	for _, b := range bounds {
		if b < start || b >= len(sentences)-1 {
			continue
		}
		groups = append(groups, sentences[start:b+1])
		start = b + 1
	}
	groups = append(groups, sentences[start:])
	return groups
}
