package embedder

import (
	"fmt"
	"os"
)

// EnvProvider selects the embedding provider ("jina", "openai", "local").
// When unset, the provider is detected from available API keys.
const EnvProvider = "TEXTCHUNK_EMBEDDING_PROVIDER"

// Config configures embedder construction
type Config struct {
	Provider  string // jina, openai, or local; empty means auto-detect
	APIKey    string // Optional: overrides the environment variable
	CacheSize int    // LRU cache entries; 0 uses the default
}

// New creates an embedder for the configured provider
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := cfg.Provider
	if provider == "" {
		provider = DetectProvider()
	}

	switch provider {
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// NewFromEnv creates an embedder from environment configuration
func NewFromEnv() (Embedder, error) {
	return New(Config{Provider: os.Getenv(EnvProvider)})
}

// DetectProvider picks a provider from available API keys, preferring Jina,
// then OpenAI, then the offline local provider.
func DetectProvider() string {
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
