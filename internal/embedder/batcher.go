package embedder

import (
	"context"
	"fmt"
)

// Batcher adapts a provider for callers that want raw vectors for arbitrarily
// many texts, splitting requests at the provider batch limit and returning
// vectors in input order.
type Batcher struct {
	provider Embedder
}

// NewBatcher wraps the given provider.
func NewBatcher(provider Embedder) *Batcher {
	return &Batcher{provider: provider}
}

// EmbedBatch embeds texts in provider-sized batches.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := b.provider.GenerateBatch(ctx, BatchEmbeddingRequest{
			Texts: texts[start:end],
			Model: b.provider.Model(),
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Vector)
		}
	}
	return vectors, nil
}
