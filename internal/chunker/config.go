package chunker

import "errors"

// Configuration errors
var (
	ErrInvalidChunkSize     = errors.New("chunk size must be > 0")
	ErrInvalidOverlap       = errors.New("chunk overlap must be >= 0")
	ErrOverlapTooLarge      = errors.New("chunk overlap must be < chunk size")
	ErrInvalidMinChunkSize  = errors.New("min chunk size must be >= 0 and <= chunk size")
	ErrInvalidThreshold     = errors.New("similarity threshold must be between 0 and 1")
	ErrInvalidWindow        = errors.New("similarity window must be >= 1")
	ErrUnknownStrategy      = errors.New("unknown chunking strategy")
	ErrUnknownOverlapMode   = errors.New("unknown overlap mode")
	ErrNoCounter            = errors.New("token counter is required")
	ErrNoEmbedder           = errors.New("semantic strategy requires an embedder")
	ErrNoBoundaries         = errors.New("neural strategy requires precomputed boundaries")
	ErrStrictWhitespace     = errors.New("strict reconstruction requires whitespace-preserving levels")
	ErrNoTerminalLevel      = errors.New("delimiter hierarchy must end with a terminal level")
	ErrInvalidMinSentences  = errors.New("min sentences per chunk must be >= 1")
	ErrInvalidSentenceChars = errors.New("min characters per sentence must be >= 0")
)

// Strategy selects the chunking algorithm. The choice is resolved once per
// call; there is no per-strategy state.
type Strategy string

const (
	// StrategyToken splits the raw token stream into fixed-size chunks.
	StrategyToken Strategy = "token"
	// StrategySentence groups sentences greedily up to the token budget.
	StrategySentence Strategy = "sentence"
	// StrategyRecursive descends the delimiter hierarchy, merging fragments
	// back into budget-respecting chunks.
	StrategyRecursive Strategy = "recursive"
	// StrategySemantic places boundaries where windowed embedding similarity
	// drops below the configured threshold.
	StrategySemantic Strategy = "semantic"
	// StrategyNeural consumes externally supplied boundary indices; no
	// inference happens inside the engine.
	StrategyNeural Strategy = "neural"
)

// OverlapMode controls how cross-chunk overlap is attached.
type OverlapMode string

const (
	// OverlapPrefix materializes the overlap into the chunk text, increasing
	// its token count.
	OverlapPrefix OverlapMode = "prefix"
	// OverlapContext stores the overlap in the separate Context field,
	// leaving the token count unchanged.
	OverlapContext OverlapMode = "context"
)

// ReconstructionMode controls how strictly chunk texts must reassemble into
// the source document.
type ReconstructionMode string

const (
	// ReconstructStrict requires byte-for-byte reconstruction.
	ReconstructStrict ReconstructionMode = "strict"
	// ReconstructRelaxed permits whitespace trimmed at fragment edges to be
	// dropped between chunks.
	ReconstructRelaxed ReconstructionMode = "relaxed"
)

// Config holds the full configuration surface of the chunking engine.
type Config struct {
	Strategy Strategy

	// ChunkSize is the maximum token count per chunk.
	ChunkSize int
	// ChunkOverlap is the overlap budget in tokens. Zero disables the
	// overlap pass.
	ChunkOverlap int
	// MinChunkSize is the merge-back threshold: a final chunk below it is
	// merged into its predecessor when the budget allows.
	MinChunkSize int

	// Sentence splitting
	MinSentencesPerChunk     int
	MinCharactersPerSentence int
	// SentenceDelimiters extends the default terminal punctuation (. ! ?).
	SentenceDelimiters []string

	// Semantic strategy
	SimilarityThreshold float64
	SimilarityWindow    int
	// SemanticFallback retries the document with the recursive strategy when
	// the embedding capability fails.
	SemanticFallback bool

	// Boundaries are precomputed sentence boundary indices for the neural
	// strategy, consumed identically to semantic boundary output.
	Boundaries []int

	// Rules is the delimiter hierarchy for the recursive strategy. Zero
	// value selects DefaultRules.
	Rules RecursiveRules

	OverlapMode        OverlapMode
	ReconstructionMode ReconstructionMode
}

// DefaultConfig returns a recursive-strategy configuration with conservative
// limits.
func DefaultConfig() Config {
	return Config{
		Strategy:                 StrategyRecursive,
		ChunkSize:                512,
		ChunkOverlap:             0,
		MinChunkSize:             0,
		MinSentencesPerChunk:     1,
		MinCharactersPerSentence: 12,
		SimilarityThreshold:      0.8,
		SimilarityWindow:         1,
		Rules:                    DefaultRules(),
		OverlapMode:              OverlapContext,
		ReconstructionMode:       ReconstructStrict,
	}
}

// normalized fills defaulted fields so the engine can rely on them.
func (c Config) normalized() Config {
	if c.Strategy == "" {
		c.Strategy = StrategyRecursive
	}
	if c.MinSentencesPerChunk == 0 {
		c.MinSentencesPerChunk = 1
	}
	if c.SimilarityWindow == 0 {
		c.SimilarityWindow = 1
	}
	if len(c.Rules.Levels) == 0 {
		c.Rules = DefaultRules()
	}
	if c.OverlapMode == "" {
		c.OverlapMode = OverlapContext
	}
	if c.ReconstructionMode == "" {
		c.ReconstructionMode = ReconstructStrict
	}
	return c
}

// Validate checks the configuration. It is called once per chunking call
// before any splitting happens.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyToken, StrategySentence, StrategyRecursive, StrategySemantic, StrategyNeural:
	default:
		return ErrUnknownStrategy
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.ChunkOverlap < 0 {
		return ErrInvalidOverlap
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return ErrOverlapTooLarge
	}
	if c.MinChunkSize < 0 || c.MinChunkSize > c.ChunkSize {
		return ErrInvalidMinChunkSize
	}
	if c.MinSentencesPerChunk < 1 {
		return ErrInvalidMinSentences
	}
	if c.MinCharactersPerSentence < 0 {
		return ErrInvalidSentenceChars
	}

	if c.Strategy == StrategySemantic {
		if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
			return ErrInvalidThreshold
		}
		if c.SimilarityWindow < 1 {
			return ErrInvalidWindow
		}
	}

	switch c.OverlapMode {
	case OverlapPrefix, OverlapContext:
	default:
		return ErrUnknownOverlapMode
	}

	if err := c.Rules.validate(); err != nil {
		return err
	}
	if c.ReconstructionMode == ReconstructStrict {
		for _, level := range c.Rules.Levels {
			if level.Whitespace == WhitespaceCollapse {
				return ErrStrictWhitespace
			}
		}
	}

	return nil
}
