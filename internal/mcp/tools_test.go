package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// toolJSON decodes the text payload of a tool result.
func toolJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool result should be text content")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

// mcpErrorCode extracts the error code, failing the test for non-MCP errors.
func mcpErrorCode(t *testing.T, err error) int {
	t.Helper()
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCP error, got %v", err)
	return mcpErr.Code
}

func TestChunkTextTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	text := "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs. " +
		"How vexingly quick daft zebras jump. " +
		"Sphinx of black quartz, judge my vow."

	result, err := server.handleChunkText(ctx, callTool("chunk_text", map[string]interface{}{
		"text":                        text,
		"strategy":                    "sentence",
		"chunk_size":                  float64(10),
		"min_characters_per_sentence": float64(1),
	}))
	require.NoError(t, err)

	resp := toolJSON(t, result)
	assert.Equal(t, "sentence", resp["strategy"])

	chunks, ok := resp["chunks"].([]interface{})
	require.True(t, ok)
	require.Greater(t, len(chunks), 1, "small budget should produce multiple chunks")

	// Offsets must reconstruct the chunk text from the input.
	for _, raw := range chunks {
		chunk := raw.(map[string]interface{})
		start := int(chunk["start_index"].(float64))
		end := int(chunk["end_index"].(float64))
		assert.Equal(t, text[start:end], chunk["text"])
	}
}

func TestChunkTextValidation(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{
			name: "missing text",
			args: map[string]interface{}{"strategy": "token"},
			code: ErrorCodeInvalidParams,
		},
		{
			name: "empty text",
			args: map[string]interface{}{"text": ""},
			code: ErrorCodeInvalidParams,
		},
		{
			name: "unknown strategy",
			args: map[string]interface{}{"text": "hello world", "strategy": "quantum"},
			code: ErrorCodeInvalidParams,
		},
		{
			name: "overlap not below chunk size",
			args: map[string]interface{}{
				"text":          "hello world",
				"chunk_size":    float64(10),
				"chunk_overlap": float64(10),
			},
			code: ErrorCodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := server.handleChunkText(ctx, callTool("chunk_text", tt.args))
			require.Error(t, err)
			assert.Equal(t, tt.code, mcpErrorCode(t, err))
		})
	}
}

func TestIndexSearchStatusRoundTrip(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	text := "Dogs make loyal companions for active families. " +
		"Cats prefer independence and quiet afternoons. " +
		"Stock markets fluctuated wildly this quarter. " +
		"Investors watched bond yields with growing concern."

	// Index
	result, err := server.handleIndexDocument(ctx, callTool("index_document", map[string]interface{}{
		"document_id":                 "notes/mixed.txt",
		"text":                        text,
		"strategy":                    "sentence",
		"chunk_size":                  float64(12),
		"min_characters_per_sentence": float64(1),
	}))
	require.NoError(t, err)

	indexResp := toolJSON(t, result)
	assert.Equal(t, true, indexResp["indexed"])
	assert.Equal(t, float64(1), indexResp["documents_indexed"])
	assert.Greater(t, indexResp["chunks_created"].(float64), float64(0))

	// Re-index without changes is a skip
	result, err = server.handleIndexDocument(ctx, callTool("index_document", map[string]interface{}{
		"document_id":                 "notes/mixed.txt",
		"text":                        text,
		"strategy":                    "sentence",
		"chunk_size":                  float64(12),
		"min_characters_per_sentence": float64(1),
	}))
	require.NoError(t, err)
	skipResp := toolJSON(t, result)
	assert.Equal(t, float64(1), skipResp["documents_skipped"])

	// Keyword search finds the indexed content
	result, err = server.handleSearchChunks(ctx, callTool("search_chunks", map[string]interface{}{
		"query":       "loyal companions",
		"search_mode": "keyword",
	}))
	require.NoError(t, err)

	searchResp := toolJSON(t, result)
	assert.Equal(t, "keyword", searchResp["search_mode"])
	results, ok := searchResp["results"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, results)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "notes/mixed.txt", first["document_id"])
	assert.Contains(t, first["content"], "loyal companions")

	// Per-document status
	result, err = server.handleGetStatus(ctx, callTool("get_status", map[string]interface{}{
		"document_id": "notes/mixed.txt",
	}))
	require.NoError(t, err)

	statusResp := toolJSON(t, result)
	assert.Equal(t, true, statusResp["indexed"])
	docInfo := statusResp["document"].(map[string]interface{})
	assert.Equal(t, "notes/mixed.txt", docInfo["document_id"])
	assert.Equal(t, "sentence", docInfo["strategy"])
	assert.Greater(t, docInfo["chunk_count"].(float64), float64(0))

	stats := statusResp["statistics"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["documents_count"])
}

func TestGetStatusUnknownDocument(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleGetStatus(context.Background(), callTool("get_status", map[string]interface{}{
		"document_id": "never/indexed.txt",
	}))
	require.NoError(t, err)

	resp := toolJSON(t, result)
	assert.Equal(t, false, resp["indexed"])
	assert.Equal(t, "never/indexed.txt", resp["document_id"])
}

func TestSearchChunksValidation(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		_, err := server.handleSearchChunks(ctx, callTool("search_chunks", map[string]interface{}{
			"query": "",
		}))
		require.Error(t, err)
		assert.Equal(t, ErrorCodeEmptyQuery, mcpErrorCode(t, err))
	})

	t.Run("limit out of range", func(t *testing.T) {
		_, err := server.handleSearchChunks(ctx, callTool("search_chunks", map[string]interface{}{
			"query": "anything",
			"limit": float64(500),
		}))
		require.Error(t, err)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErrorCode(t, err))
	})

	t.Run("unknown search mode", func(t *testing.T) {
		_, err := server.handleSearchChunks(ctx, callTool("search_chunks", map[string]interface{}{
			"query":       "anything",
			"search_mode": "telepathic",
		}))
		require.Error(t, err)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErrorCode(t, err))
	})
}

func TestSearchChunksDocumentFilter(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	docs := map[string]string{
		"a.txt": "Rivers carve canyons over geological time.",
		"b.txt": "Compilers translate source code into machine instructions.",
	}
	for id, text := range docs {
		_, err := server.handleIndexDocument(ctx, callTool("index_document", map[string]interface{}{
			"document_id":                 id,
			"text":                        text,
			"strategy":                    "sentence",
			"chunk_size":                  float64(32),
			"min_characters_per_sentence": float64(1),
		}))
		require.NoError(t, err)
	}

	result, err := server.handleSearchChunks(ctx, callTool("search_chunks", map[string]interface{}{
		"query":       "rivers canyons",
		"search_mode": "keyword",
		"filters": map[string]interface{}{
			"document_ids": []interface{}{"b.txt"},
		},
	}))
	require.NoError(t, err)

	resp := toolJSON(t, result)
	results := resp["results"].([]interface{})
	assert.Empty(t, results, "filter should exclude the matching document")
}
