// Package types provides shared type definitions for the TextChunk MCP server.
//
// This package defines the domain records used across multiple components of
// TextChunk: documents, sentences, chunks, and search results.
//
// # Core Types
//
// Document is the immutable raw-text input to the chunking engine:
//
//	doc := types.Document{ID: "guide.md", Text: raw}
//
// Chunk is a bounded, offset-addressable segment of a document:
//
//	chunk := types.Chunk{
//	    Text:       doc.Text[12:480],
//	    StartIndex: 12,
//	    EndIndex:   480,
//	    TokenCount: 117,
//	}
//
// # Offset Invariant
//
// For every chunk produced from a document,
//
//	doc.Text[chunk.StartIndex:chunk.EndIndex] == chunk.Text
//
// holds exactly (overlap context injected after assembly is carried in a
// separate field and never disturbs the offsets). Concatenating chunk texts in
// order reconstructs the document byte for byte.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Results
//
// SearchResult combines a stored chunk with relevance scoring. Relevance
// scores are normalized to [0, 1], with higher values indicating better
// matches.
package types
