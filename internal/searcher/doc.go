// Package searcher provides semantic search over stored text chunks.
//
// Three search modes are supported:
//
//   - hybrid: vector similarity and BM25 full-text search run concurrently,
//     fused with Reciprocal Rank Fusion (RRF)
//   - vector: cosine similarity over chunk embeddings only
//   - keyword: FTS5 BM25 text search only
//
// # Basic Usage
//
//	search := searcher.NewSearcher(store, embed)
//
//	resp, err := search.Search(ctx, searcher.SearchRequest{
//	    Query: "how are refunds processed",
//	    Mode:  searcher.SearchModeHybrid,
//	    Limit: 10,
//	})
//
// Results carry the chunk text, its byte offsets into the source document,
// and the document identifier, so callers can locate every hit in its
// original context.
//
// # Caching
//
// Responses are cached in-memory by query hash with LRU eviction and a TTL.
// Call InvalidateCache after reindexing.
package searcher
