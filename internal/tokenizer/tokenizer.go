package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is specified.
// cl100k_base is used by GPT-4-era models and is a good approximation
// for most embedding providers.
const DefaultEncoding = "cl100k_base"

// Common errors
var (
	ErrNegativeCount   = errors.New("counter returned a negative count")
	ErrUnknownEncoding = errors.New("unknown token encoding")
	ErrNotEncodable    = errors.New("counter does not support encode/decode")
)

// Counter is the token-counting capability consumed by the chunking engine.
// Implementations must be deterministic and safe for concurrent use.
//
// Encode and Decode are used for hard token-boundary splits and for
// token-accurate overlap extraction. A Counter that cannot round-trip text
// may return ErrNotEncodable from both; the engine then falls back to a
// Count-based boundary search.
type Counter interface {
	// Count returns the number of tokens in text.
	Count(text string) (int, error)

	// Encode converts text into a sequence of token IDs.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back into text.
	Decode(ids []int) (string, error)
}

// Tiktoken implements Counter using BPE tokenization.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken creates a Counter for the named encoding. An empty name selects
// DefaultEncoding.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownEncoding, encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

func (t *Tiktoken) Decode(ids []int) (string, error) {
	return t.enc.Decode(ids), nil
}

// WordCounter counts whitespace-delimited words as tokens. It cannot
// round-trip text through token IDs, so Encode and Decode report
// ErrNotEncodable and the engine uses its Count-based fallback for exact
// boundary cuts. Intended for tests and word-budget configurations.
type WordCounter struct{}

func (WordCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (WordCounter) Encode(string) ([]int, error) {
	return nil, ErrNotEncodable
}

func (WordCounter) Decode([]int) (string, error) {
	return "", ErrNotEncodable
}

// RuneCounter treats every rune as one token. Encode returns the code points
// and Decode rebuilds the exact string, so boundary cuts are always exact.
// Useful in tests that exercise hard splits and overlap extraction.
type RuneCounter struct{}

func (RuneCounter) Count(text string) (int, error) {
	return len([]rune(text)), nil
}

func (RuneCounter) Encode(text string) ([]int, error) {
	runes := []rune(text)
	ids := make([]int, len(runes))
	for i, r := range runes {
		ids[i] = int(r)
	}
	return ids, nil
}

func (RuneCounter) Decode(ids []int) (string, error) {
	runes := make([]rune, len(ids))
	for i, id := range ids {
		runes[i] = rune(id)
	}
	return string(runes), nil
}

// Estimate returns a cheap token estimate without a Counter: characters / 4.
// The average English word is about four characters, code tokens similar.
func Estimate(text string) int {
	return len(text) / 4
}
