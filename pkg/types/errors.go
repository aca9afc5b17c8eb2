package types

import "errors"

// Domain errors for type validation and engine invariants
var (
	// Chunk and sentence errors
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrInvalidOffsets    = errors.New("offsets are inconsistent")
	ErrInvalidTokenCount = errors.New("token count must be >= 0")

	// ErrReconstruction indicates an engine defect: produced chunks do not
	// reconstruct the source document. It must never be swallowed.
	ErrReconstruction = errors.New("chunk sequence does not reconstruct document")

	// Search result errors
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
)
