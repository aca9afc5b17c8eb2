package types

import "crypto/sha256"

// Chunk represents a bounded, offset-addressable text segment produced by the
// chunking engine for embedding and search.
type Chunk struct {
	// Identification
	ID         int64  // Assigned by storage; zero until persisted
	DocumentID string // The source document's ID, if any

	// Content
	Text        string
	ContentHash [32]byte // SHA-256 hash for deduplication
	TokenCount  int

	// Location. Byte offsets into the source document:
	// doc.Text[StartIndex:EndIndex] == Text (before overlap injection).
	StartIndex int
	EndIndex   int

	// Sentences are the constituent sentence units, retained only by the
	// sentence and semantic strategies.
	Sentences []Sentence

	// Context carries overlap text drawn from the preceding chunk. In
	// context mode it is not counted against TokenCount; in prefix mode the
	// overlap is materialized into Text instead and Context stays empty.
	Context string
}

// ComputeContentHash computes the SHA-256 hash of the chunk text.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Text))
}

// Validate performs basic integrity checks on the chunk.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return ErrEmptyContent
	}
	if c.StartIndex < 0 || c.EndIndex < c.StartIndex {
		return ErrInvalidOffsets
	}
	if c.TokenCount < 0 {
		return ErrInvalidTokenCount
	}
	return nil
}

// FullText returns the chunk text with any overlap context prepended. This is
// the string that should be embedded when context mode overlap is in use.
func (c *Chunk) FullText() string {
	if c.Context == "" {
		return c.Text
	}
	return c.Context + c.Text
}
