package storage

import (
	"context"
	"time"

	"github.com/dshills/textchunk-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying chunked documents
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, docID string) (*Document, error)
	GetDocumentByID(ctx context.Context, id int64) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, chunkID int64) error
	DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (deletedCount int, err error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error

	// Search operations
	SearchVector(ctx context.Context, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context) (*StoreStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Document represents an indexed source document
type Document struct {
	ID          int64
	DocID       string // Caller-supplied identifier (file path, URL, UUID)
	Content     string
	ContentHash [32]byte
	Strategy    string // Chunking strategy used at index time
	TokenCount  int
	ChunkCount  int
	IndexedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk represents a stored text chunk with its source offsets
type Chunk struct {
	ID          int64
	DocumentID  int64
	Content     string
	ContentHash [32]byte
	TokenCount  int
	StartIndex  int // Byte offset into the document content (inclusive)
	EndIndex    int // Byte offset into the document content (exclusive)
	Context     string
	Position    int // Ordinal within the document
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// SearchFilters contains filters for narrowing search results
type SearchFilters struct {
	DocIDs       []string // Restrict to specific document identifiers
	MinRelevance float64  // Minimum relevance score
	MinTokens    int      // Skip chunks below this token count
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// StoreStatus contains statistics about the chunk store
type StoreStatus struct {
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	StoreSizeMB     float64
	Health          HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexesBuilt     bool
}

// ToTypesChunk converts a storage Chunk to types.Chunk
func (c *Chunk) ToTypesChunk(docID string) types.Chunk {
	return types.Chunk{
		ID:          c.ID,
		DocumentID:  docID,
		Text:        c.Content,
		ContentHash: c.ContentHash,
		TokenCount:  c.TokenCount,
		StartIndex:  c.StartIndex,
		EndIndex:    c.EndIndex,
		Context:     c.Context,
	}
}

// FromTypesChunk converts a types.Chunk to a storage Chunk
func FromTypesChunk(c types.Chunk, documentID int64, position int) *Chunk {
	return &Chunk{
		DocumentID:  documentID,
		Content:     c.Text,
		ContentHash: c.ContentHash,
		TokenCount:  c.TokenCount,
		StartIndex:  c.StartIndex,
		EndIndex:    c.EndIndex,
		Context:     c.Context,
		Position:    position,
	}
}
