package embedder

import (
	"context"
	"fmt"
	"testing"
)

func TestBatcherSplitsAtProviderLimit(t *testing.T) {
	provider, err := NewLocalProvider(NewCache(0))
	if err != nil {
		t.Fatal(err)
	}

	// More texts than a single provider request accepts.
	count := MaxBatchSize + 50
	texts := make([]string, count)
	for i := range texts {
		texts[i] = fmt.Sprintf("text number %d", i)
	}

	batcher := NewBatcher(provider)
	vectors, err := batcher.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != count {
		t.Fatalf("got %d vectors, want %d", len(vectors), count)
	}
	for i, v := range vectors {
		if len(v) != LocalDimension {
			t.Fatalf("vector %d has dimension %d, want %d", i, len(v), LocalDimension)
		}
	}

	// The local provider is deterministic, so order is checkable: embedding
	// one text alone must match its slot in the batch.
	single, err := batcher.EmbedBatch(context.Background(), []string{texts[MaxBatchSize+7]})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	for i := range single[0] {
		if single[0][i] != vectors[MaxBatchSize+7][i] {
			t.Fatalf("vector mismatch at component %d", i)
		}
	}
}

func TestBatcherEmptyInput(t *testing.T) {
	provider, err := NewLocalProvider(NewCache(0))
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := NewBatcher(provider).EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != 0 {
		t.Fatalf("got %d vectors, want 0", len(vectors))
	}
}
