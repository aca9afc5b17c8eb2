package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/textchunk-mcp/internal/chunker"
	"github.com/dshills/textchunk-mcp/internal/indexer"
	"github.com/dshills/textchunk-mcp/internal/searcher"
	"github.com/dshills/textchunk-mcp/internal/storage"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound   = -32001 // Document identifier is not in the store
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Nothing has been indexed yet
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleChunkText handles the chunk_text tool invocation
func (s *Server) handleChunkText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}

	cfg, err := parseChunkConfig(args)
	if err != nil {
		return nil, err
	}

	doc := types.Document{
		ID:   getStringDefault(args, "document_id", ""),
		Text: text,
	}

	chunks, err := s.engine.Chunk(ctx, doc, cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunkList := make([]map[string]interface{}, len(chunks))
	totalTokens := 0
	for i, c := range chunks {
		entry := map[string]interface{}{
			"text":        c.Text,
			"token_count": c.TokenCount,
			"start_index": c.StartIndex,
			"end_index":   c.EndIndex,
		}
		if c.Context != "" {
			entry["context"] = c.Context
		}
		chunkList[i] = entry
		totalTokens += c.TokenCount
	}

	response := map[string]interface{}{
		"strategy":     string(cfg.Strategy),
		"chunk_count":  len(chunks),
		"total_tokens": totalTokens,
		"chunks":       chunkList,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexDocument handles the index_document tool invocation
func (s *Server) handleIndexDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	docID, ok := args["document_id"].(string)
	if !ok || docID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}

	cfg, err := parseChunkConfig(args)
	if err != nil {
		return nil, err
	}

	opts := indexer.Options{
		Config:       cfg,
		ForceReindex: getBoolDefault(args, "force_reindex", false),
		SkipEmbed:    getBoolDefault(args, "skip_embed", false),
	}

	doc := types.Document{ID: docID, Text: text}

	stats, err := s.indexer.IndexDocument(ctx, doc, opts)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":            stats.DocumentsIndexed > 0,
		"documents_indexed":  stats.DocumentsIndexed,
		"documents_skipped":  stats.DocumentsSkipped,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", "hybrid")
	if searchMode != "hybrid" && searchMode != "vector" && searchMode != "keyword" {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	req := searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		Mode:     searcher.SearchMode(searchMode),
		UseCache: true,
	}

	if filters, ok := args["filters"].(map[string]interface{}); ok {
		req.Filters = &storage.SearchFilters{
			DocIDs:       getStringSlice(filters, "document_ids"),
			MinRelevance: getFloatDefault(filters, "min_relevance", 0),
			MinTokens:    getIntDefault(filters, "min_tokens", 0),
		}
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"rank":            r.Rank,
			"relevance_score": r.RelevanceScore,
			"chunk_id":        r.ChunkID,
			"document_id":     r.DocumentID,
			"content":         r.Content,
			"start_index":     r.StartIndex,
			"end_index":       r.EndIndex,
			"token_count":     r.TokenCount,
		}
	}

	response := map[string]interface{}{
		"results":       results,
		"total_results": resp.TotalResults,
		"search_mode":   string(resp.SearchMode),
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	response := map[string]interface{}{}

	// Optional per-document status
	if docID := getStringDefault(args, "document_id", ""); docID != "" {
		doc, err := s.storage.GetDocument(ctx, docID)
		if errors.Is(err, storage.ErrNotFound) {
			notIndexed := map[string]interface{}{
				"indexed":     false,
				"document_id": docID,
				"message":     "Document not indexed. Use the index_document tool to index it.",
			}
			return mcp.NewToolResultText(formatJSON(notIndexed)), nil
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to get document status", map[string]interface{}{
				"error": err.Error(),
			})
		}

		response["indexed"] = true
		response["document"] = map[string]interface{}{
			"document_id": doc.DocID,
			"strategy":    doc.Strategy,
			"token_count": doc.TokenCount,
			"chunk_count": doc.ChunkCount,
			"indexed_at":  doc.IndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response["statistics"] = map[string]interface{}{
		"documents_count":  status.DocumentsCount,
		"chunks_count":     status.ChunksCount,
		"embeddings_count": status.EmbeddingsCount,
		"store_size_mb":    fmt.Sprintf("%.2f", status.StoreSizeMB),
	}
	response["health"] = map[string]interface{}{
		"database_accessible":  status.Health.DatabaseAccessible,
		"embeddings_available": status.Health.EmbeddingsAvailable,
		"fts_indexes_built":    status.Health.FTSIndexesBuilt,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// parseChunkConfig builds a chunking configuration from tool arguments,
// starting from the defaults and overriding whatever the caller supplied.
func parseChunkConfig(args map[string]interface{}) (chunker.Config, error) {
	cfg := chunker.DefaultConfig()

	strategy := getStringDefault(args, "strategy", string(cfg.Strategy))
	cfg.Strategy = chunker.Strategy(strategy)

	cfg.ChunkSize = getIntDefault(args, "chunk_size", cfg.ChunkSize)
	cfg.ChunkOverlap = getIntDefault(args, "chunk_overlap", cfg.ChunkOverlap)
	cfg.MinChunkSize = getIntDefault(args, "min_chunk_size", cfg.MinChunkSize)
	cfg.MinSentencesPerChunk = getIntDefault(args, "min_sentences_per_chunk", cfg.MinSentencesPerChunk)
	cfg.MinCharactersPerSentence = getIntDefault(args, "min_characters_per_sentence", cfg.MinCharactersPerSentence)
	cfg.SimilarityThreshold = getFloatDefault(args, "similarity_threshold", cfg.SimilarityThreshold)
	cfg.SimilarityWindow = getIntDefault(args, "similarity_window", cfg.SimilarityWindow)
	cfg.SemanticFallback = getBoolDefault(args, "semantic_fallback", cfg.SemanticFallback)

	if mode := getStringDefault(args, "overlap_mode", ""); mode != "" {
		cfg.OverlapMode = chunker.OverlapMode(mode)
	}

	if err := cfg.Validate(); err != nil {
		return chunker.Config{}, newMCPError(ErrorCodeInvalidParams, "invalid chunking configuration", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return cfg, nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
