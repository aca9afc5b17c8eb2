package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textchunk-mcp/internal/chunker"
	"github.com/dshills/textchunk-mcp/internal/embedder"
	"github.com/dshills/textchunk-mcp/internal/storage"
	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// mockEmbedder implements embedder.Embedder for testing
type mockEmbedder struct {
	dimension int
	batchErr  error
	calls     int
	mu        sync.Mutex
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dimension: 4}
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	resp, err := m.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.calls++

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i := range req.Texts {
		vector := make([]float32, m.dimension)
		vector[0] = float32(i + 1)
		embeddings[i] = &embedder.Embedding{
			Vector:    vector,
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     "test-v1",
		}
	}
	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "test-v1",
	}, nil
}

func (m *mockEmbedder) Dimension() int   { return m.dimension }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "test-v1" }
func (m *mockEmbedder) Close() error     { return nil }

func setupIndexer(t *testing.T, emb embedder.Embedder) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := chunker.New(tokenizer.WordCounter{}, nil)
	return New(engine, emb, store), store
}

func sentenceOptions() Options {
	cfg := chunker.DefaultConfig()
	cfg.Strategy = chunker.StrategySentence
	cfg.ChunkSize = 8
	cfg.MinCharactersPerSentence = 1
	return Options{Config: cfg}
}

func TestIndexDocument(t *testing.T) {
	idx, store := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	doc := types.Document{
		ID:   "notes.txt",
		Text: "First sentence here. Second sentence follows. Third one ends it.",
	}

	stats, err := idx.IndexDocument(ctx, doc, sentenceOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Equal(t, stats.ChunksCreated, stats.EmbeddingsCreated)

	stored, err := store.GetDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, doc.Text, stored.Content)
	assert.Equal(t, stats.ChunksCreated, stored.ChunkCount)

	chunks, err := store.ListChunksByDocument(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, chunks, stats.ChunksCreated)

	// Offsets must reconstruct the document
	for _, c := range chunks {
		assert.Equal(t, doc.Text[c.StartIndex:c.EndIndex], c.Content)
		_, err := store.GetEmbedding(ctx, c.ID)
		assert.NoError(t, err)
	}
}

func TestIndexDocumentSkipsUnchanged(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	doc := types.Document{ID: "a.txt", Text: "Stable content here."}
	opts := sentenceOptions()

	stats, err := idx.IndexDocument(ctx, doc, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)

	stats, err = idx.IndexDocument(ctx, doc, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)
}

func TestIndexDocumentForceReindex(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	doc := types.Document{ID: "a.txt", Text: "Stable content here."}
	opts := sentenceOptions()

	_, err := idx.IndexDocument(ctx, doc, opts)
	require.NoError(t, err)

	opts.ForceReindex = true
	stats, err := idx.IndexDocument(ctx, doc, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)
}

func TestIndexDocumentReplacesChunksOnChange(t *testing.T) {
	idx, store := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	opts := sentenceOptions()
	_, err := idx.IndexDocument(ctx, types.Document{
		ID:   "a.txt",
		Text: "Original first sentence. Original second sentence.",
	}, opts)
	require.NoError(t, err)

	_, err = idx.IndexDocument(ctx, types.Document{
		ID:   "a.txt",
		Text: "Entirely new text.",
	}, opts)
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	chunks, err := store.ListChunksByDocument(ctx, stored.ID)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.Equal(t, "Entirely new text."[c.StartIndex:c.EndIndex], c.Content)
	}
}

func TestIndexDocumentRequiresID(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())

	_, err := idx.IndexDocument(context.Background(), types.Document{Text: "no id"}, sentenceOptions())
	assert.Error(t, err)
}

func TestIndexDocumentSkipEmbed(t *testing.T) {
	mock := newMockEmbedder()
	idx, store := setupIndexer(t, mock)
	ctx := context.Background()

	opts := sentenceOptions()
	opts.SkipEmbed = true

	stats, err := idx.IndexDocument(ctx, types.Document{ID: "a.txt", Text: "Some text here."}, opts)
	require.NoError(t, err)
	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Equal(t, 0, stats.EmbeddingsCreated)
	assert.Equal(t, 0, mock.calls)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.EmbeddingsCount)
}

func TestIndexDocumentEmbedFailureRollsBack(t *testing.T) {
	mock := newMockEmbedder()
	mock.batchErr = errors.New("provider down")
	idx, store := setupIndexer(t, mock)
	ctx := context.Background()

	_, err := idx.IndexDocument(ctx, types.Document{ID: "a.txt", Text: "Some text here."}, sentenceOptions())
	require.Error(t, err)

	// Nothing persisted when embedding fails
	_, err = store.GetDocument(ctx, "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexAll(t *testing.T) {
	idx, store := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	docs := []types.Document{
		{ID: "a.txt", Text: "Document a content. More of it."},
		{ID: "b.txt", Text: "Document b content. And more."},
		{ID: "c.txt", Text: "Document c content. Still more."},
	}

	stats, err := idx.IndexAll(ctx, docs, sentenceOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentsIndexed)
	assert.Equal(t, 0, stats.DocumentsFailed)

	listed, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestIndexAllIsolatesFailures(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	docs := []types.Document{
		{ID: "good.txt", Text: "Fine content here."},
		{ID: "", Text: "No identifier."}, // Fails the ID check
		{ID: "also-good.txt", Text: "Also fine content."},
	}

	stats, err := idx.IndexAll(ctx, docs, sentenceOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsFailed)
	require.Len(t, stats.ErrorMessages, 1)
}

func TestIndexAllSkipsUnchanged(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	docs := []types.Document{
		{ID: "a.txt", Text: "Content a."},
		{ID: "b.txt", Text: "Content b."},
	}
	opts := sentenceOptions()

	_, err := idx.IndexAll(ctx, docs, opts)
	require.NoError(t, err)

	stats, err := idx.IndexAll(ctx, docs, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 2, stats.DocumentsSkipped)
}

func TestRemoveDocument(t *testing.T) {
	idx, store := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	_, err := idx.IndexDocument(ctx, types.Document{ID: "a.txt", Text: "Some text here."}, sentenceOptions())
	require.NoError(t, err)

	require.NoError(t, idx.RemoveDocument(ctx, "a.txt"))

	_, err = store.GetDocument(ctx, "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = idx.RemoveDocument(ctx, "absent.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexLock(t *testing.T) {
	var lock IndexLock

	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
}

func TestIndexDocumentHeldLock(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())
	ctx := context.Background()

	require.True(t, idx.lock.TryAcquire())
	_, err := idx.IndexDocument(ctx, types.Document{ID: "a.txt", Text: "Some text here."}, sentenceOptions())
	assert.ErrorIs(t, err, ErrIndexInProgress)
	idx.lock.Release()

	_, err = idx.IndexDocument(ctx, types.Document{ID: "a.txt", Text: "Some text here."}, sentenceOptions())
	assert.NoError(t, err)
}
