package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/textchunk-mcp/internal/chunker"
	"github.com/dshills/textchunk-mcp/internal/embedder"
	"github.com/dshills/textchunk-mcp/internal/indexer"
	"github.com/dshills/textchunk-mcp/internal/searcher"
	"github.com/dshills/textchunk-mcp/internal/storage"
	"github.com/dshills/textchunk-mcp/internal/tokenizer"
)

const (
	// ServerName is the MCP server name
	ServerName = "textchunk-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.textchunk/store"
	// DefaultEncoding is the tiktoken encoding used for token counting
	DefaultEncoding = "cl100k_base"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	engine   *chunker.Engine
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".textchunk", "store")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "textchunk.db")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Create embedder (shared between the engine, indexer, and searcher so
	// they all hit the same cache)
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// Token counter. Tiktoken loads its BPE ranks lazily; if the encoding is
	// unavailable fall back to whitespace word counting.
	var counter tokenizer.Counter
	tk, err := tokenizer.NewTiktoken(DefaultEncoding)
	if err != nil {
		log.Printf("tiktoken unavailable (%v), falling back to word counting", err)
		counter = tokenizer.WordCounter{}
	} else {
		counter = tk
	}

	// Create chunking engine
	engine := chunker.New(counter, embedder.NewBatcher(emb))

	// Create indexer
	idx := indexer.New(engine, emb, store)

	// Create searcher
	srch := searcher.NewSearcher(store, emb)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		engine:   engine,
		indexer:  idx,
		searcher: srch,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Register chunk_text tool
	s.mcp.AddTool(chunkTextTool(), s.handleChunkText)

	// Register index_document tool
	s.mcp.AddTool(indexDocumentTool(), s.handleIndexDocument)

	// Register search_chunks tool
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)

	// Register get_status tool
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}
