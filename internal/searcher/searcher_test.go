package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/textchunk-mcp/internal/embedder"
	"github.com/dshills/textchunk-mcp/internal/storage"
)

// mockEmbedder implements the Embedder interface for testing
type mockEmbedder struct {
	generateFunc func(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error)
}

// queryVector maps query text to a small test vector. Animal-ish queries
// point one way, finance the other.
func queryVector(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "stock") {
		return []float32{0, 0, 1}
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}

	vector := queryVector(req.Text)
	return &embedder.Embedding{
		Vector:    vector,
		Dimension: len(vector),
		Model:     "mock-model",
		Provider:  "mock",
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-model",
	}, nil
}

func (m *mockEmbedder) Dimension() int   { return 3 }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "mock-model" }
func (m *mockEmbedder) Close() error     { return nil }

// setupTestSearcher creates a searcher with in-memory storage and mock embedder
func setupTestSearcher(t *testing.T) (*Searcher, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return NewSearcher(store, &mockEmbedder{}), store
}

// seedChunks indexes a document with embedded chunks for search tests
func seedChunks(t *testing.T, store *storage.SQLiteStorage) []*storage.Chunk {
	t.Helper()
	ctx := context.Background()

	content := "Cats purr loudly. Dogs bark at night. Stocks rallied today."
	doc := &storage.Document{
		DocID:       "mixed.txt",
		Content:     content,
		ContentHash: sha256.Sum256([]byte(content)),
		Strategy:    "sentence",
	}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("failed to store document: %v", err)
	}

	texts := []string{"Cats purr loudly. ", "Dogs bark at night. ", "Stocks rallied today."}
	vectors := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 0, 1}}
	offsets := []int{0, 18, 38}

	chunks := make([]*storage.Chunk, len(texts))
	for i, text := range texts {
		chunk := &storage.Chunk{
			DocumentID:  doc.ID,
			Content:     text,
			ContentHash: sha256.Sum256([]byte(text)),
			TokenCount:  4,
			StartIndex:  offsets[i],
			EndIndex:    offsets[i] + len(text),
			Position:    i,
		}
		if err := store.UpsertChunk(ctx, chunk); err != nil {
			t.Fatalf("failed to store chunk: %v", err)
		}

		embedding := &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    storage.SerializeVector(vectors[i]),
			Dimension: 3,
			Provider:  "mock",
			Model:     "mock-model",
		}
		if err := store.UpsertEmbedding(ctx, embedding); err != nil {
			t.Fatalf("failed to store embedding: %v", err)
		}
		chunks[i] = chunk
	}

	return chunks
}

func TestSearchVectorMode(t *testing.T) {
	search, store := setupTestSearcher(t)
	chunks := seedChunks(t, store)

	resp, err := search.Search(context.Background(), SearchRequest{
		Query: "pets and animals",
		Mode:  SearchModeVector,
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if resp.TotalResults != 2 {
		t.Fatalf("TotalResults = %d, want 2", resp.TotalResults)
	}
	if resp.Results[0].ChunkID != chunks[0].ID {
		t.Errorf("top result chunk = %d, want %d", resp.Results[0].ChunkID, chunks[0].ID)
	}
	if resp.Results[0].Rank != 1 {
		t.Errorf("top result rank = %d, want 1", resp.Results[0].Rank)
	}
	if resp.Results[0].DocumentID != "mixed.txt" {
		t.Errorf("DocumentID = %q, want %q", resp.Results[0].DocumentID, "mixed.txt")
	}
	if resp.Results[0].StartIndex != 0 || resp.Results[0].EndIndex != 18 {
		t.Errorf("offsets = [%d, %d), want [0, 18)",
			resp.Results[0].StartIndex, resp.Results[0].EndIndex)
	}
}

func TestSearchKeywordMode(t *testing.T) {
	search, store := setupTestSearcher(t)
	chunks := seedChunks(t, store)

	resp, err := search.Search(context.Background(), SearchRequest{
		Query: "dogs",
		Mode:  SearchModeKeyword,
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if resp.TotalResults != 1 {
		t.Fatalf("TotalResults = %d, want 1", resp.TotalResults)
	}
	if resp.Results[0].ChunkID != chunks[1].ID {
		t.Errorf("result chunk = %d, want %d", resp.Results[0].ChunkID, chunks[1].ID)
	}
}

func TestSearchHybridMode(t *testing.T) {
	search, store := setupTestSearcher(t)
	chunks := seedChunks(t, store)

	// "stocks" matches chunk 2 by both keyword and vector, so RRF should
	// rank it first
	resp, err := search.Search(context.Background(), SearchRequest{
		Query: "stocks",
		Mode:  SearchModeHybrid,
		Limit: 3,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if resp.TotalResults == 0 {
		t.Fatal("hybrid search returned no results")
	}
	if resp.Results[0].ChunkID != chunks[2].ID {
		t.Errorf("top result chunk = %d, want %d", resp.Results[0].ChunkID, chunks[2].ID)
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Rank != resp.Results[i-1].Rank+1 {
			t.Errorf("ranks not sequential: %d then %d",
				resp.Results[i-1].Rank, resp.Results[i].Rank)
		}
	}
}

func TestSearchDefaultsApplied(t *testing.T) {
	search, store := setupTestSearcher(t)
	seedChunks(t, store)

	resp, err := search.Search(context.Background(), SearchRequest{
		Query: "cats",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if resp.SearchMode != SearchModeHybrid {
		t.Errorf("SearchMode = %q, want default %q", resp.SearchMode, SearchModeHybrid)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	search, _ := setupTestSearcher(t)

	_, err := search.Search(context.Background(), SearchRequest{Query: ""})
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchUnknownMode(t *testing.T) {
	search, _ := setupTestSearcher(t)

	_, err := search.Search(context.Background(), SearchRequest{
		Query: "anything",
		Mode:  SearchMode("bogus"),
	})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSearchEmbedderFailureVectorMode(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	failing := &mockEmbedder{
		generateFunc: func(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
			return nil, errors.New("provider down")
		},
	}
	search := NewSearcher(store, failing)

	_, err = search.Search(context.Background(), SearchRequest{
		Query: "anything",
		Mode:  SearchModeVector,
	})
	if err == nil {
		t.Fatal("expected error when embedder fails in vector mode")
	}
}

func TestSearchHybridSurvivesEmbedderFailure(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	failing := &mockEmbedder{
		generateFunc: func(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
			return nil, errors.New("provider down")
		},
	}
	search := NewSearcher(store, failing)
	seedChunks(t, store)

	// Hybrid degrades to keyword results when the vector side fails
	resp, err := search.Search(context.Background(), SearchRequest{
		Query: "dogs",
		Mode:  SearchModeHybrid,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.TotalResults != 1 {
		t.Fatalf("TotalResults = %d, want 1", resp.TotalResults)
	}
}

func TestSearchCacheHit(t *testing.T) {
	search, store := setupTestSearcher(t)
	seedChunks(t, store)

	req := SearchRequest{
		Query:    "cats",
		Mode:     SearchModeVector,
		UseCache: true,
		CacheTTL: time.Minute,
	}

	first, err := search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first search should not be a cache hit")
	}

	second, err := search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second search should be a cache hit")
	}
	if len(second.Results) != len(first.Results) {
		t.Errorf("cached result count = %d, want %d", len(second.Results), len(first.Results))
	}
}

func TestSearchCacheExpiry(t *testing.T) {
	search, store := setupTestSearcher(t)
	seedChunks(t, store)

	req := SearchRequest{
		Query:    "cats",
		Mode:     SearchModeVector,
		UseCache: true,
		CacheTTL: time.Nanosecond,
	}

	if _, err := search.Search(context.Background(), req); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}

	time.Sleep(time.Millisecond)

	resp, err := search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}
	if resp.CacheHit {
		t.Error("expired entry should not produce a cache hit")
	}
}

func TestInvalidateCache(t *testing.T) {
	search, store := setupTestSearcher(t)
	seedChunks(t, store)

	req := SearchRequest{
		Query:    "cats",
		Mode:     SearchModeVector,
		UseCache: true,
		CacheTTL: time.Minute,
	}

	if _, err := search.Search(context.Background(), req); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if err := search.InvalidateCache(context.Background()); err != nil {
		t.Fatalf("InvalidateCache() error = %v", err)
	}

	resp, err := search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() after invalidation error = %v", err)
	}
	if resp.CacheHit {
		t.Error("search after invalidation should not be a cache hit")
	}
}

func TestSearchDocFilter(t *testing.T) {
	search, store := setupTestSearcher(t)
	seedChunks(t, store)

	resp, err := search.Search(context.Background(), SearchRequest{
		Query:   "cats",
		Mode:    SearchModeVector,
		Filters: &storage.SearchFilters{DocIDs: []string{"absent.txt"}},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.TotalResults != 0 {
		t.Errorf("TotalResults = %d, want 0 for non-matching filter", resp.TotalResults)
	}
}

func TestApplyRRFCombinesRankings(t *testing.T) {
	search, _ := setupTestSearcher(t)

	vectorResults := []storage.VectorResult{
		{ChunkID: 1, SimilarityScore: 0.9},
		{ChunkID: 2, SimilarityScore: 0.5},
	}
	textResults := []storage.TextResult{
		{ChunkID: 2, BM25Score: 0.8},
		{ChunkID: 3, BM25Score: 0.4},
	}

	ranked := search.applyRRF(vectorResults, textResults, 60)

	if len(ranked) != 3 {
		t.Fatalf("got %d ranked results, want 3", len(ranked))
	}
	// Chunk 2 appears in both lists so it accumulates the highest RRF score
	if ranked[0].chunkID != 2 {
		t.Errorf("top chunk = %d, want 2", ranked[0].chunkID)
	}
	if ranked[0].rank != 1 {
		t.Errorf("top rank = %d, want 1", ranked[0].rank)
	}
}
