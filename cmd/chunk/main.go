package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dshills/textchunk-mcp/internal/chunker"
	"github.com/dshills/textchunk-mcp/internal/embedder"
	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// cliConfig holds flag values for the chunk CLI.
type cliConfig struct {
	File         string
	DocID        string
	Strategy     string
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	OverlapMode  string
	Threshold    float64
	Encoding     string
	Pretty       bool
}

func parseFlags() cliConfig {
	var cfg cliConfig
	flag.StringVar(&cfg.File, "file", "", "Input file (default: stdin)")
	flag.StringVar(&cfg.DocID, "doc-id", "", "Document identifier recorded on each chunk")
	flag.StringVar(&cfg.Strategy, "strategy", "recursive", "Chunking strategy: token, sentence, recursive, semantic")
	flag.IntVar(&cfg.ChunkSize, "chunk-size", 512, "Maximum tokens per chunk")
	flag.IntVar(&cfg.ChunkOverlap, "overlap", 0, "Overlap budget in tokens")
	flag.IntVar(&cfg.MinChunkSize, "min-chunk-size", 0, "Merge a trailing chunk below this token count")
	flag.StringVar(&cfg.OverlapMode, "overlap-mode", "context", "Overlap mode: prefix or context")
	flag.Float64Var(&cfg.Threshold, "threshold", 0.8, "Semantic similarity threshold")
	flag.StringVar(&cfg.Encoding, "encoding", "cl100k_base", "Tiktoken encoding for token counting")
	flag.BoolVar(&cfg.Pretty, "pretty", false, "Indent the JSON output")
	flag.Parse()
	return cfg
}

// chunkJSON is the output shape, one element per chunk.
type chunkJSON struct {
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Context    string `json:"context,omitempty"`
}

func main() {
	log.SetOutput(os.Stderr)
	cfg := parseFlags()

	text, err := readInput(cfg.File)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	var counter tokenizer.Counter
	tk, err := tokenizer.NewTiktoken(cfg.Encoding)
	if err != nil {
		log.Printf("tiktoken unavailable (%v), falling back to word counting", err)
		counter = tokenizer.WordCounter{}
	} else {
		counter = tk
	}

	// The semantic strategy needs an embedding provider; the others run
	// without one.
	var emb chunker.Embedder
	if chunker.Strategy(cfg.Strategy) == chunker.StrategySemantic {
		provider, err := embedder.NewFromEnv()
		if err != nil {
			log.Fatalf("failed to initialize embedder: %v", err)
		}
		defer func() { _ = provider.Close() }()
		emb = embedder.NewBatcher(provider)
	}

	engineCfg := chunker.DefaultConfig()
	engineCfg.Strategy = chunker.Strategy(cfg.Strategy)
	engineCfg.ChunkSize = cfg.ChunkSize
	engineCfg.ChunkOverlap = cfg.ChunkOverlap
	engineCfg.MinChunkSize = cfg.MinChunkSize
	engineCfg.OverlapMode = chunker.OverlapMode(cfg.OverlapMode)
	engineCfg.SimilarityThreshold = cfg.Threshold

	engine := chunker.New(counter, emb)
	chunks, err := engine.Chunk(context.Background(), types.Document{ID: cfg.DocID, Text: text}, engineCfg)
	if err != nil {
		log.Fatalf("chunking failed: %v", err)
	}

	out := make([]chunkJSON, len(chunks))
	for i, c := range chunks {
		out[i] = chunkJSON{
			Text:       c.Text,
			TokenCount: c.TokenCount,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
			Context:    c.Context,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("failed to encode chunks: %v", err)
	}

	fmt.Fprintf(os.Stderr, "produced %d chunks\n", len(out))
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
