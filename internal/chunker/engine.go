package chunker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// Embedder is the narrow embedding capability the semantic strategy depends
// on. Vector dimensionality must be consistent within one chunking call.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine is the stateless chunking façade. It holds only injected
// capabilities, never per-call state, so a single Engine is safe for
// concurrent use across documents.
type Engine struct {
	counter  tokenizer.Counter
	embedder Embedder // nil unless the semantic strategy is used
}

// New creates an Engine with the given token counter. The embedder may be nil
// when the semantic strategy is not used.
func New(counter tokenizer.Counter, embedder Embedder) *Engine {
	return &Engine{counter: counter, embedder: embedder}
}

// Chunk converts a document into an ordered sequence of chunks per the
// configuration. An empty document yields an empty sequence, not an error.
func (e *Engine) Chunk(ctx context.Context, doc types.Document, cfg Config) ([]types.Chunk, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if e.counter == nil {
		return nil, ErrNoCounter
	}
	if doc.Text == "" {
		return []types.Chunk{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks, err := e.run(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}

	if err := verifyChunks(doc, chunks, cfg.ReconstructionMode); err != nil {
		return nil, err
	}

	if cfg.ChunkOverlap > 0 {
		refinery := &overlapRefinery{counter: e.counter, tokens: cfg.ChunkOverlap, mode: cfg.OverlapMode}
		chunks, err = refinery.refine(chunks)
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

func (e *Engine) run(ctx context.Context, doc types.Document, cfg Config) ([]types.Chunk, error) {
	switch cfg.Strategy {
	case StrategyToken:
		return e.chunkTokens(doc, cfg)
	case StrategySentence:
		return e.chunkSentences(doc, cfg)
	case StrategyRecursive:
		return e.chunkRecursive(doc, cfg)
	case StrategySemantic:
		chunks, err := e.chunkSemantic(ctx, doc, cfg)
		if err != nil && cfg.SemanticFallback && !isConfigError(err) {
			return e.chunkRecursive(doc, cfg)
		}
		return chunks, err
	case StrategyNeural:
		return e.chunkBoundaries(doc, cfg, cfg.Boundaries)
	default:
		return nil, ErrUnknownStrategy
	}
}

// chunkTokens splits the raw token stream into fixed-size chunks.
func (e *Engine) chunkTokens(doc types.Document, cfg Config) ([]types.Chunk, error) {
	splitter := &recursiveSplitter{counter: e.counter, maxTokens: cfg.ChunkSize}
	units, err := splitter.hardSplit(doc.Text, 0)
	if err != nil {
		return nil, err
	}
	return assemble(units, cfg.ChunkSize, cfg.MinChunkSize, doc.ID), nil
}

// chunkSentences groups sentences greedily up to the token budget. A single
// sentence over budget is reduced by the recursive splitter first.
func (e *Engine) chunkSentences(doc types.Document, cfg Config) ([]types.Chunk, error) {
	units, err := e.sentenceUnits(doc, cfg)
	if err != nil {
		return nil, err
	}
	return assemble(units, cfg.ChunkSize, cfg.MinChunkSize, doc.ID), nil
}

// chunkRecursive descends the delimiter hierarchy and merges leaf fragments
// back into budget-respecting chunks.
func (e *Engine) chunkRecursive(doc types.Document, cfg Config) ([]types.Chunk, error) {
	splitter := &recursiveSplitter{counter: e.counter, rules: cfg.Rules, maxTokens: cfg.ChunkSize}
	units, err := splitter.split(doc.Text, 0)
	if err != nil {
		return nil, err
	}
	return assemble(units, cfg.ChunkSize, cfg.MinChunkSize, doc.ID), nil
}

// chunkSemantic embeds sentences, detects similarity valleys, and assembles
// the resulting groups.
func (e *Engine) chunkSemantic(ctx context.Context, doc types.Document, cfg Config) ([]types.Chunk, error) {
	if e.embedder == nil {
		return nil, ErrNoEmbedder
	}

	sentences, err := e.splitSentences(doc, cfg)
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return []types.Chunk{}, nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d sentences", ErrEmbeddingFailed, len(embeddings), len(sentences))
	}

	bounds, err := detectBoundaries(embeddings, cfg.SimilarityWindow, cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	return e.assembleGroups(doc, cfg, sentences, bounds)
}

// chunkBoundaries consumes externally supplied boundary indices, identically
// to semantic boundary output.
func (e *Engine) chunkBoundaries(doc types.Document, cfg Config, bounds []int) ([]types.Chunk, error) {
	if cfg.Strategy == StrategyNeural && bounds == nil {
		return nil, ErrNoBoundaries
	}
	sentences, err := e.splitSentences(doc, cfg)
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return []types.Chunk{}, nil
	}
	return e.assembleGroups(doc, cfg, sentences, bounds)
}

// assembleGroups turns boundary-delimited sentence groups into chunks. Each
// group is assembled independently so chunks never span a detected boundary.
// A group over the token budget is handed to the recursive splitter: the size
// invariant wins over the semantic boundary when they conflict.
func (e *Engine) assembleGroups(doc types.Document, cfg Config, sentences []types.Sentence, bounds []int) ([]types.Chunk, error) {
	groups := groupByBoundaries(sentences, bounds)
	splitter := &recursiveSplitter{counter: e.counter, rules: cfg.Rules, maxTokens: cfg.ChunkSize}

	var chunks []types.Chunk
	for _, group := range groups {
		groupTokens := 0
		for _, s := range group {
			groupTokens += s.TokenCount
		}
		if groupTokens > cfg.ChunkSize {
			// The size invariant wins over the semantic boundary: re-split
			// the whole group span through the delimiter hierarchy.
			start := group[0].Start
			units, err := splitter.split(doc.Text[start:group[len(group)-1].End], start)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, assemble(units, cfg.ChunkSize, cfg.MinChunkSize, doc.ID)...)
			continue
		}
		units := make([]unit, 0, len(group))
		for i := range group {
			s := group[i]
			units = append(units, unit{text: s.Text, start: s.Start, end: s.End, tokens: s.TokenCount, sentence: &group[i]})
		}
		chunks = append(chunks, assemble(units, cfg.ChunkSize, cfg.MinChunkSize, doc.ID)...)
	}
	return enforceMinSentences(chunks, cfg), nil
}

// enforceMinSentences merges a chunk with too few sentences into its
// predecessor when the combined size stays within budget. Chunks without
// sentence records (recursive re-splits) are exempt.
func enforceMinSentences(chunks []types.Chunk, cfg Config) []types.Chunk {
	if cfg.MinSentencesPerChunk <= 1 {
		return chunks
	}
	out := chunks[:0]
	for _, c := range chunks {
		n := len(out)
		if n > 0 && len(c.Sentences) > 0 && len(c.Sentences) < cfg.MinSentencesPerChunk {
			prev := out[n-1]
			if len(prev.Sentences) > 0 && prev.EndIndex == c.StartIndex && prev.TokenCount+c.TokenCount <= cfg.ChunkSize {
				prev.Text += c.Text
				prev.EndIndex = c.EndIndex
				prev.TokenCount += c.TokenCount
				prev.Sentences = append(prev.Sentences, c.Sentences...)
				prev.ComputeContentHash()
				out[n-1] = prev
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func (e *Engine) splitSentences(doc types.Document, cfg Config) ([]types.Sentence, error) {
	splitter := &sentenceSplitter{
		counter:    e.counter,
		delimiters: cfg.SentenceDelimiters,
		minChars:   cfg.MinCharactersPerSentence,
	}
	return splitter.split(doc.Text)
}

// sentenceUnits converts sentences into assembler units, reducing any
// over-budget sentence through the recursive splitter first.
func (e *Engine) sentenceUnits(doc types.Document, cfg Config) ([]unit, error) {
	sentences, err := e.splitSentences(doc, cfg)
	if err != nil {
		return nil, err
	}
	splitter := &recursiveSplitter{counter: e.counter, rules: cfg.Rules, maxTokens: cfg.ChunkSize}

	units := make([]unit, 0, len(sentences))
	for i := range sentences {
		s := sentences[i]
		if s.TokenCount > cfg.ChunkSize {
			sub, err := splitter.split(s.Text, s.Start)
			if err != nil {
				return nil, err
			}
			units = append(units, sub...)
			continue
		}
		units = append(units, unit{text: s.Text, start: s.Start, end: s.End, tokens: s.TokenCount, sentence: &sentences[i]})
	}
	return units, nil
}

// verifyChunks asserts the offset and reconstruction invariants before any
// overlap is attached. A violation is an engine defect surfaced as
// types.ErrReconstruction. Strict mode demands exact substrings; relaxed mode
// also accepts chunk text whose span matches after whitespace normalization,
// which is what collapse levels produce.
func verifyChunks(doc types.Document, chunks []types.Chunk, mode ReconstructionMode) error {
	pos := 0
	for i, c := range chunks {
		if c.StartIndex < pos || c.EndIndex < c.StartIndex {
			return fmt.Errorf("%w: chunk %d offsets [%d,%d) after position %d",
				types.ErrReconstruction, i, c.StartIndex, c.EndIndex, pos)
		}
		if span := doc.Text[c.StartIndex:c.EndIndex]; span != c.Text {
			if mode == ReconstructStrict || foldWhitespace(span) != foldWhitespace(c.Text) {
				return fmt.Errorf("%w: chunk %d text does not match document span [%d,%d)",
					types.ErrReconstruction, i, c.StartIndex, c.EndIndex)
			}
		}
		if mode == ReconstructStrict && c.StartIndex != pos {
			return fmt.Errorf("%w: gap before chunk %d at offset %d", types.ErrReconstruction, i, pos)
		}
		pos = c.EndIndex
	}
	if mode == ReconstructStrict && len(chunks) > 0 && pos != len(doc.Text) {
		return fmt.Errorf("%w: chunks end at %d, document has %d bytes", types.ErrReconstruction, pos, len(doc.Text))
	}
	return nil
}

// foldWhitespace collapses every whitespace run to a single space for relaxed
// reconstruction comparison.
func foldWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isConfigError reports whether err is a configuration-level failure or a
// cancellation that the semantic fallback must not mask.
func isConfigError(err error) bool {
	for _, sentinel := range []error{
		ErrNoEmbedder, ErrNoCounter, ErrUnknownStrategy, ErrInvalidChunkSize,
		ErrInvalidThreshold, ErrInvalidWindow,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Result pairs a document's chunks with its error in a batch run.
type Result struct {
	Document types.Document
	Chunks   []types.Chunk
	Err      error
}

// ChunkAll chunks documents concurrently and returns results in input order.
// A failed document carries its error in its Result slot; the other documents
// are unaffected. Context cancellation fails the documents still in flight.
func (e *Engine) ChunkAll(ctx context.Context, docs []types.Document, cfg Config) []Result {
	results := make([]Result, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range docs {
		g.Go(func() error {
			chunks, err := e.Chunk(ctx, docs[i], cfg)
			results[i] = Result{Document: docs[i], Chunks: chunks, Err: err}
			if err != nil {
				results[i].Chunks = nil
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in Results

	return results
}
