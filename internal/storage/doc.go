// Package storage provides SQLite-based persistence for chunked documents.
//
// The storage layer manages:
//   - Source documents and their content hashes
//   - Text chunks with byte offsets into their document
//   - Vector embeddings for chunks
//   - Full-text search indexes
//
// # Database Schema
//
// Tables:
//   - documents: Source text, caller-supplied identifier, chunking metadata
//   - chunks: Offset-addressable chunks (start_index, end_index, position)
//   - embeddings: Vector embeddings keyed by chunk
//   - chunks_fts: FTS5 full-text search index over chunk content
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.textchunk/chunks.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	doc := &storage.Document{DocID: "guide.md", Content: text}
//	if err := store.UpsertDocument(ctx, doc); err != nil {
//	    return err
//	}
//
// # Transactions
//
// Use transactions for atomic document+chunk writes:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpsertDocument(ctx, doc)
//	for i, c := range chunks {
//	    _ = tx.UpsertChunk(ctx, storage.FromTypesChunk(c, doc.ID, i))
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags. The default pure Go build
// (modernc.org/sqlite) computes vector similarity in Go; building with
// CGO_ENABLED=1 and -tags sqlite_vec uses github.com/mattn/go-sqlite3 with
// the sqlite-vec extension for SQL-level similarity search.
package storage
