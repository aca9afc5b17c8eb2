// Package chunker converts raw document text into ordered, bounded,
// offset-addressable chunks for embedding and retrieval.
//
// # Basic Usage
//
//	counter, _ := tokenizer.NewTiktoken("")
//	engine := chunker.New(counter, nil)
//
//	chunks, err := engine.Chunk(ctx, types.Document{ID: "guide", Text: raw}, chunker.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, chunk := range chunks {
//	    fmt.Printf("[%d:%d) %d tokens\n", chunk.StartIndex, chunk.EndIndex, chunk.TokenCount)
//	}
//
// # Strategies
//
// The strategy is a fixed choice resolved once per call:
//
//   - Token: fixed-size split of the raw token stream.
//   - Sentence: sentence detection, then greedy merge up to the budget.
//   - Recursive: descent over the delimiter hierarchy (paragraph > line >
//     sentence > word > token), merging fragments back into chunks.
//   - Semantic: windowed cosine similarity over sentence embeddings places
//     boundaries at similarity valleys.
//   - Neural: externally computed boundary indices, consumed identically to
//     semantic output. The engine contains no inference code.
//
// All strategies funnel their units through the same greedy assembler, so
// merge semantics and the reconstruction invariant are identical everywhere.
//
// # Invariants
//
// Chunk offsets are monotonically non-decreasing and non-overlapping. In
// strict reconstruction mode, concatenating chunk texts (excluding injected
// overlap) reproduces the document byte for byte; the engine verifies this on
// every call and returns types.ErrReconstruction on violation. Every chunk
// except possibly the last fits within ChunkSize tokens.
//
// # Capabilities
//
// Token counting and embedding are injected, never global. The engine holds
// no mutable state between calls: behavior is a pure function of (document,
// configuration, capability responses), which makes it safe to share one
// Engine across goroutines.
//
// # Overlap
//
// An optional final pass attaches the trailing ChunkOverlap tokens of each
// chunk to its successor, either materialized into the text (prefix mode) or
// carried in the separate Context field (context mode). Boundaries never
// move; overlap is duplicated, not new, text.
package chunker
