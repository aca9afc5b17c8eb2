// Package embedder generates vector embeddings for text chunks.
//
// Three providers are available: Jina AI (1024 dimensions), OpenAI (1536
// dimensions), and a deterministic local provider (384 dimensions) that
// needs no API key. Jina and OpenAI speak the same OpenAI-compatible wire
// format, so both are served by a single RemoteProvider type.
//
// Provider selection is environment driven:
//
//	emb, err := embedder.NewFromEnv()
//
// TEXTCHUNK_EMBEDDING_PROVIDER forces a provider; otherwise the first of
// JINA_API_KEY or OPENAI_API_KEY found wins, falling back to the local
// provider.
//
// Embeddings are cached in-memory by content hash with LRU eviction, and
// remote calls retry with exponential backoff.
package embedder
