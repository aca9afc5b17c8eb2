// Package mcp implements the Model Context Protocol (MCP) server for textchunk.
//
// The MCP server exposes four tools to AI coding assistants:
//   - chunk_text: Split text into chunks without persisting anything
//   - index_document: Chunk, embed, and store a document for search
//   - search_chunks: Search indexed chunks with natural language queries
//   - get_status: Check store statistics and per-document indexing status
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: chunk_text
//
// Split text using any of the five strategies:
//
//	Request:
//	{
//	  "name": "chunk_text",
//	  "arguments": {
//	    "text": "Long document text...",
//	    "strategy": "recursive",
//	    "chunk_size": 512,
//	    "chunk_overlap": 32
//	  }
//	}
//
//	Response:
//	{
//	  "strategy": "recursive",
//	  "chunk_count": 7,
//	  "total_tokens": 3180,
//	  "chunks": [
//	    {"text": "...", "token_count": 498, "start_index": 0, "end_index": 2114}
//	  ]
//	}
//
// Chunk offsets are byte offsets into the input: text[start_index:end_index]
// always reproduces the chunk text before overlap injection.
//
// # Tool: index_document
//
// Persist a document for later search:
//
//	Request:
//	{
//	  "name": "index_document",
//	  "arguments": {
//	    "document_id": "docs/guide.md",
//	    "text": "Document text...",
//	    "strategy": "sentence",
//	    "force_reindex": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "documents_indexed": 1,
//	  "chunks_created": 12,
//	  "embeddings_created": 12,
//	  "duration_ms": 840
//	}
//
// Re-indexing an unchanged document is a no-op unless force_reindex is set;
// the content hash decides.
//
// # Tool: search_chunks
//
// Search indexed chunks semantically or by keywords:
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {
//	    "query": "error handling strategy",
//	    "limit": 10,
//	    "search_mode": "hybrid",
//	    "filters": {"document_ids": ["docs/guide.md"]}
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "rank": 1,
//	      "relevance_score": 0.92,
//	      "document_id": "docs/guide.md",
//	      "content": "...",
//	      "start_index": 1024,
//	      "end_index": 2139,
//	      "token_count": 243
//	    }
//	  ],
//	  "total_results": 4,
//	  "search_mode": "hybrid",
//	  "cache_hit": false
//	}
//
// # Tool: get_status
//
// Check store health, optionally for one document:
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {"document_id": "docs/guide.md"}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "document": {
//	    "document_id": "docs/guide.md",
//	    "strategy": "sentence",
//	    "chunk_count": 12,
//	    "indexed_at": "2026-08-12T10:41:00Z"
//	  },
//	  "statistics": {
//	    "documents_count": 3,
//	    "chunks_count": 41,
//	    "embeddings_count": 41,
//	    "store_size_mb": "0.52"
//	  },
//	  "health": {
//	    "database_accessible": true,
//	    "embeddings_available": true,
//	    "fts_indexes_built": true
//	  }
//	}
//
// # MCP Client Configuration
//
// Configure in the client's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "textchunk": {
//	      "command": "/usr/local/bin/textchunk",
//	      "args": ["serve"],
//	      "env": {
//	        "JINA_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "chunk_size",
//	      "reason": "chunk overlap must be < chunk size"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, embedding provider, etc.)
//   - -32001: Document not found
//   - -32002: Indexing in progress
//   - -32003: Nothing indexed yet
//   - -32004: Empty query
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for the protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp
