package chunker

import (
	"errors"
	"strings"

	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// overlapRefinery attaches bounded trailing context from each chunk to its
// successor. It never moves chunk boundaries: StartIndex and EndIndex are
// untouched, only the text or context payload changes.
type overlapRefinery struct {
	counter tokenizer.Counter
	tokens  int
	mode    OverlapMode
}

// refine returns the same chunks with overlap attached. The first chunk has
// no predecessor and is left as is. Overlap is always drawn from the
// predecessor's original text, so prefix mode does not cascade.
func (o *overlapRefinery) refine(chunks []types.Chunk) ([]types.Chunk, error) {
	if o.tokens <= 0 || len(chunks) < 2 {
		return chunks, nil
	}

	// Capture source texts before any prefix mutation.
	sources := make([]string, len(chunks))
	for i, c := range chunks {
		sources[i] = c.Text
	}

	for i := 1; i < len(chunks); i++ {
		overlap, overlapTokens, err := o.tailText(sources[i-1])
		if err != nil {
			return nil, err
		}
		if overlap == "" {
			continue
		}
		switch o.mode {
		case OverlapPrefix:
			chunks[i].Text = overlap + chunks[i].Text
			chunks[i].TokenCount += overlapTokens
			chunks[i].ComputeContentHash()
		case OverlapContext:
			chunks[i].Context = overlap
		}
	}
	return chunks, nil
}

// tailText returns the last o.tokens worth of text, token-accurate. The
// encode/decode route is preferred; counters that cannot round-trip fall back
// to a count-based suffix search.
func (o *overlapRefinery) tailText(text string) (string, int, error) {
	ids, err := o.counter.Encode(text)
	switch {
	case err == nil:
		if len(ids) <= o.tokens {
			return text, len(ids), nil
		}
		tail, derr := o.counter.Decode(ids[len(ids)-o.tokens:])
		if derr == nil && tail != "" && strings.HasSuffix(text, tail) {
			return tail, o.tokens, nil
		}
		// Decoded tail does not align with the source bytes; fall through.
	case !errors.Is(err, tokenizer.ErrNotEncodable):
		return "", 0, err
	}
	return o.tailCounted(text)
}

// tailCounted finds the longest rune-boundary suffix counting at most
// o.tokens tokens.
func (o *overlapRefinery) tailCounted(text string) (string, int, error) {
	total, err := o.counter.Count(text)
	if err != nil {
		return "", 0, err
	}
	if total <= o.tokens {
		return text, total, nil
	}

	bounds := runeBoundaries(text)
	// bounds[i] is a suffix start; later starts give shorter suffixes.
	lo, hi := 0, len(bounds)-1
	bestStart := len(text)
	bestTokens := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		n, err := o.counter.Count(text[bounds[mid]:])
		if err != nil {
			return "", 0, err
		}
		if n <= o.tokens {
			bestStart = bounds[mid]
			bestTokens = n
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return text[bestStart:], bestTokens, nil
}
