// Package indexer coordinates the end-to-end pipeline for text documents.
//
// The indexer orchestrates chunking, embedding, and storage, managing
// concurrency and error isolation so one bad document never aborts a batch.
//
// # Basic Usage
//
//	idx := indexer.New(engine, embed, store)
//
//	stats, err := idx.IndexDocument(ctx, doc, indexer.Options{
//	    Config: chunker.DefaultConfig(),
//	})
//
//	fmt.Printf("Created %d chunks in %v\n", stats.ChunksCreated, stats.Duration)
//
// # Indexing Pipeline
//
// Each document passes through three stages:
//
//  1. Chunk: the engine splits the text per the configured strategy
//  2. Embed: chunk texts are embedded in provider-sized batches
//  3. Store: document, chunks, and embeddings commit in one transaction
//
// # Incremental Indexing
//
// Documents are identified by their caller-supplied ID. An unchanged
// document (same SHA-256 content hash) is skipped unless ForceReindex is
// set. A changed document replaces all of its prior chunks atomically.
//
// IndexAll chunks documents concurrently but serializes writes, and only
// one IndexAll run may be active per Indexer at a time.
package indexer
