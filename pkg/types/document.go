package types

// Document is the raw-text input to the chunking engine. It is treated as
// immutable: the engine never modifies Text, only slices it.
type Document struct {
	// ID is an optional caller-supplied identifier (file path, URL, UUID).
	ID string

	// Text is the complete document content. Offsets in Sentence and Chunk
	// are byte offsets into this string.
	Text string
}

// Sentence is an offset-tracked sentence unit produced by the sentence
// splitter. Sentences are intermediate values: they are consumed during
// assembly and optionally retained on the final chunks.
type Sentence struct {
	Text       string
	Start      int // byte offset into the document (inclusive)
	End        int // byte offset into the document (exclusive)
	TokenCount int
}

// Validate checks sentence offset consistency.
func (s *Sentence) Validate() error {
	if s.Start < 0 || s.End < s.Start {
		return ErrInvalidOffsets
	}
	if s.End-s.Start != len(s.Text) {
		return ErrInvalidOffsets
	}
	return nil
}
