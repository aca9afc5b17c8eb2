package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/textchunk-mcp/internal/chunker"
	"github.com/dshills/textchunk-mcp/internal/embedder"
	"github.com/dshills/textchunk-mcp/internal/storage"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// ErrIndexInProgress is returned when an indexing run is already active
var ErrIndexInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: chunk -> embed -> store
type Indexer struct {
	engine   *chunker.Engine
	embedder embedder.Embedder
	storage  storage.Storage
	lock     IndexLock
}

// Options controls a single indexing run
type Options struct {
	Config       chunker.Config // Chunking configuration
	ForceReindex bool           // Re-chunk even if the document content is unchanged
	SkipEmbed    bool           // Store chunks without generating embeddings
}

// Statistics contains statistics about an indexing operation
type Statistics struct {
	DocumentsIndexed  int
	DocumentsSkipped  int
	DocumentsFailed   int
	ChunksCreated     int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Indexer instance
func New(engine *chunker.Engine, emb embedder.Embedder, store storage.Storage) *Indexer {
	return &Indexer{
		engine:   engine,
		embedder: emb,
		storage:  store,
	}
}

// IndexDocument chunks, embeds, and stores a single document. The document
// must carry a non-empty ID so re-indexing can find the prior version. It
// holds the same indexing lock as IndexAll; only one run may be active.
func (idx *Indexer) IndexDocument(ctx context.Context, doc types.Document, opts Options) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	if err := idx.indexOne(ctx, doc, opts, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// IndexAll indexes a batch of documents. Chunking runs concurrently across
// documents; storage writes are serialized because SQLite has a single
// writer. Only one IndexAll run may be active at a time.
func (idx *Indexer) IndexAll(ctx context.Context, docs []types.Document, opts Options) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Skip unchanged documents before paying for chunking
	pending := make([]types.Document, 0, len(docs))
	for _, doc := range docs {
		changed, err := idx.documentChanged(ctx, doc, opts.ForceReindex)
		if err != nil {
			stats.DocumentsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", doc.ID, err))
			continue
		}
		if !changed {
			stats.DocumentsSkipped++
			continue
		}
		pending = append(pending, doc)
	}

	results := idx.engine.ChunkAll(ctx, pending, opts.Config)

	for _, res := range results {
		if res.Err != nil {
			stats.DocumentsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", res.Document.ID, res.Err))
			continue
		}
		if err := idx.persist(ctx, res.Document, res.Chunks, opts, stats); err != nil {
			stats.DocumentsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", res.Document.ID, err))
			continue
		}
		stats.DocumentsIndexed++
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// indexOne runs the full pipeline for a single document
func (idx *Indexer) indexOne(ctx context.Context, doc types.Document, opts Options, stats *Statistics) error {
	changed, err := idx.documentChanged(ctx, doc, opts.ForceReindex)
	if err != nil {
		return err
	}
	if !changed {
		stats.DocumentsSkipped++
		return nil
	}

	chunks, err := idx.engine.Chunk(ctx, doc, opts.Config)
	if err != nil {
		return fmt.Errorf("failed to chunk document: %w", err)
	}

	if err := idx.persist(ctx, doc, chunks, opts, stats); err != nil {
		return err
	}

	stats.DocumentsIndexed++
	return nil
}

// documentChanged reports whether the document differs from the stored copy
func (idx *Indexer) documentChanged(ctx context.Context, doc types.Document, force bool) (bool, error) {
	if doc.ID == "" {
		return false, fmt.Errorf("document has no ID")
	}
	if force {
		return true, nil
	}

	existing, err := idx.storage.GetDocument(ctx, doc.ID)
	if err == storage.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return existing.ContentHash != sha256.Sum256([]byte(doc.Text)), nil
}

// persist embeds the chunks and writes document, chunks, and embeddings in
// one transaction. Prior chunks for the document are replaced.
func (idx *Indexer) persist(ctx context.Context, doc types.Document, chunks []types.Chunk, opts Options, stats *Statistics) error {
	embeddings, err := idx.embedChunks(ctx, chunks, opts)
	if err != nil {
		return err
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	totalTokens := 0
	for _, c := range chunks {
		totalTokens += c.TokenCount
	}

	docRec := &storage.Document{
		DocID:       doc.ID,
		Content:     doc.Text,
		ContentHash: sha256.Sum256([]byte(doc.Text)),
		Strategy:    string(opts.Config.Strategy),
		TokenCount:  totalTokens,
		ChunkCount:  len(chunks),
	}
	if err := tx.UpsertDocument(ctx, docRec); err != nil {
		return err
	}

	// Replace prior chunks so stale offsets never survive a re-index
	if err := tx.DeleteChunksByDocument(ctx, docRec.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for i, chunk := range chunks {
		chunkRec := storage.FromTypesChunk(chunk, docRec.ID, i)
		if err := tx.UpsertChunk(ctx, chunkRec); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
		stats.ChunksCreated++

		if embeddings == nil {
			continue
		}
		embRec := &storage.Embedding{
			ChunkID:   chunkRec.ID,
			Vector:    storage.SerializeVector(embeddings[i].Vector),
			Dimension: embeddings[i].Dimension,
			Provider:  embeddings[i].Provider,
			Model:     embeddings[i].Model,
		}
		if err := tx.UpsertEmbedding(ctx, embRec); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		stats.EmbeddingsCreated++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// embedChunks generates embeddings for all chunks in provider-sized batches.
// Returns nil when embedding is skipped or there are no chunks.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []types.Chunk, opts Options) ([]*embedder.Embedding, error) {
	if opts.SkipEmbed || idx.embedder == nil || len(chunks) == 0 {
		return nil, nil
	}

	embeddings := make([]*embedder.Embedding, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedder.MaxBatchSize {
		end := min(start+embedder.MaxBatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			// Overlap context is part of what gets embedded
			texts = append(texts, c.FullText())
		}

		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(texts))
		}

		embeddings = append(embeddings, resp.Embeddings...)
	}

	return embeddings, nil
}

// RemoveDocument deletes a document and its chunks and embeddings
func (idx *Indexer) RemoveDocument(ctx context.Context, docID string) error {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	return idx.storage.DeleteDocument(ctx, doc.ID)
}
