package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// chunkConfigProperties returns the shared chunking configuration schema
// accepted by chunk_text and index_document.
func chunkConfigProperties() map[string]interface{} {
	return map[string]interface{}{
		"strategy": map[string]interface{}{
			"type":        "string",
			"description": "Chunking strategy: token (fixed token windows), sentence (greedy sentence packing), recursive (delimiter hierarchy), semantic (embedding similarity boundaries), or neural (caller-supplied boundaries)",
			"enum":        []string{"token", "sentence", "recursive", "semantic", "neural"},
			"default":     "recursive",
		},
		"chunk_size": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum tokens per chunk",
			"default":     512,
			"minimum":     1,
		},
		"chunk_overlap": map[string]interface{}{
			"type":        "integer",
			"description": "Overlap budget in tokens between consecutive chunks (must be less than chunk_size)",
			"default":     0,
			"minimum":     0,
		},
		"min_chunk_size": map[string]interface{}{
			"type":        "integer",
			"description": "Merge a trailing chunk below this token count into its predecessor",
			"default":     0,
			"minimum":     0,
		},
		"overlap_mode": map[string]interface{}{
			"type":        "string",
			"description": "How overlap is attached: prefix (prepended to chunk text) or context (stored separately)",
			"enum":        []string{"prefix", "context"},
			"default":     "context",
		},
		"min_sentences_per_chunk": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum sentences per chunk for sentence-based strategies",
			"default":     1,
			"minimum":     1,
		},
		"min_characters_per_sentence": map[string]interface{}{
			"type":        "integer",
			"description": "Fragments shorter than this are merged into the neighboring sentence",
			"default":     12,
			"minimum":     0,
		},
		"similarity_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Semantic strategy: place a boundary where windowed cosine similarity drops below this value",
			"default":     0.8,
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"similarity_window": map[string]interface{}{
			"type":        "integer",
			"description": "Semantic strategy: number of neighboring sentences averaged per side",
			"default":     1,
			"minimum":     1,
		},
		"semantic_fallback": map[string]interface{}{
			"type":        "boolean",
			"description": "If true, fall back to the recursive strategy when embedding fails",
			"default":     false,
		},
	}
}

// chunkTextTool returns the tool definition for chunk_text
func chunkTextTool() mcp.Tool {
	props := chunkConfigProperties()
	props["text"] = map[string]interface{}{
		"type":        "string",
		"description": "Text to chunk",
	}
	props["document_id"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional identifier recorded on each returned chunk",
	}
	return mcp.Tool{
		Name:        "chunk_text",
		Description: "Split text into chunks using the configured strategy, without persisting anything",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"text"},
		},
	}
}

// indexDocumentTool returns the tool definition for index_document
func indexDocumentTool() mcp.Tool {
	props := chunkConfigProperties()
	props["document_id"] = map[string]interface{}{
		"type":        "string",
		"description": "Stable identifier for the document (file path, URL, UUID)",
	}
	props["text"] = map[string]interface{}{
		"type":        "string",
		"description": "Document text to chunk, embed, and store",
	}
	props["force_reindex"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, re-index the document even when its content is unchanged",
		"default":     false,
	}
	props["skip_embed"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, store chunks without generating embeddings (keyword search only)",
		"default":     false,
	}
	return mcp.Tool{
		Name:        "index_document",
		Description: "Chunk a document, generate embeddings, and store everything for search",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"document_id", "text"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Search indexed chunks with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"document_ids": map[string]interface{}{
							"type":        "array",
							"description": "Restrict results to these document identifiers",
							"items": map[string]interface{}{
								"type": "string",
							},
						},
						"min_relevance": map[string]interface{}{
							"type":        "number",
							"description": "Minimum relevance score threshold (0.0-1.0)",
							"minimum":     0.0,
							"maximum":     1.0,
						},
						"min_tokens": map[string]interface{}{
							"type":        "integer",
							"description": "Skip chunks below this token count",
							"minimum":     0,
						},
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query store statistics, health, and optionally a single document's indexing status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional document identifier to report on",
				},
			},
		},
	}
}
