package chunker

import (
	"errors"
	"strings"

	"github.com/dshills/textchunk-mcp/internal/tokenizer"
)

// Attach controls which fragment keeps the delimiter after a split.
type Attach string

const (
	// AttachPrev appends the delimiter to the preceding fragment.
	AttachPrev Attach = "prev"
	// AttachNext prepends the delimiter to the following fragment.
	AttachNext Attach = "next"
)

// Whitespace is the per-level whitespace handling mode.
type Whitespace string

const (
	// WhitespacePreserve keeps fragments as exact substrings of the source.
	WhitespacePreserve Whitespace = "preserve"
	// WhitespaceCollapse trims fragment edges, narrowing offsets to the
	// trimmed span. Trimmed whitespace is dropped between chunks, which is
	// only permitted in relaxed reconstruction mode.
	WhitespaceCollapse Whitespace = "collapse"
)

// RecursiveLevel is one level of the delimiter hierarchy. An empty Delimiters
// slice marks the terminal level, where oversized fragments are cut at exact
// token boundaries.
type RecursiveLevel struct {
	Delimiters []string
	Attach     Attach
	Whitespace Whitespace
}

func (l RecursiveLevel) terminal() bool {
	return len(l.Delimiters) == 0
}

// RecursiveRules is the ordered delimiter hierarchy, coarse to fine. The last
// level must be terminal so descent always makes progress.
type RecursiveRules struct {
	Levels []RecursiveLevel
}

// DefaultRules returns the paragraph > line > sentence > word > token
// hierarchy.
func DefaultRules() RecursiveRules {
	return RecursiveRules{Levels: []RecursiveLevel{
		{Delimiters: []string{"\n\n"}, Attach: AttachPrev, Whitespace: WhitespacePreserve},
		{Delimiters: []string{"\n"}, Attach: AttachPrev, Whitespace: WhitespacePreserve},
		{Delimiters: []string{". ", "! ", "? "}, Attach: AttachPrev, Whitespace: WhitespacePreserve},
		{Delimiters: []string{" "}, Attach: AttachPrev, Whitespace: WhitespacePreserve},
		{}, // terminal: hard token-boundary split
	}}
}

func (r RecursiveRules) validate() error {
	if len(r.Levels) == 0 {
		return ErrNoTerminalLevel
	}
	for _, level := range r.Levels {
		if level.terminal() {
			continue
		}
		for _, d := range level.Delimiters {
			if d == "" {
				return ErrNoTerminalLevel
			}
		}
	}
	if !r.Levels[len(r.Levels)-1].terminal() {
		return ErrNoTerminalLevel
	}
	return nil
}

// recursiveSplitter drives descent over the delimiter hierarchy. Fragments
// over budget recurse to the next level; the units it returns all fit within
// maxTokens and are merged back by the assembler.
type recursiveSplitter struct {
	counter   tokenizer.Counter
	rules     RecursiveRules
	maxTokens int
}

// split returns budget-respecting leaf units covering text. offset is the
// byte position of text within the source document.
func (r *recursiveSplitter) split(text string, offset int) ([]unit, error) {
	return r.descend(text, offset, 0)
}

func (r *recursiveSplitter) descend(text string, offset, levelIdx int) ([]unit, error) {
	if text == "" {
		return nil, nil
	}

	level := r.rules.Levels[levelIdx]
	if level.terminal() {
		return r.hardSplit(text, offset)
	}

	fragments := splitLevel(text, offset, level)
	units := make([]unit, 0, len(fragments))
	for _, frag := range fragments {
		n, err := r.counter.Count(frag.text)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, tokenizer.ErrNegativeCount
		}
		if n <= r.maxTokens {
			frag.tokens = n
			units = append(units, frag)
			continue
		}
		sub, err := r.descend(frag.text, frag.start, levelIdx+1)
		if err != nil {
			return nil, err
		}
		units = append(units, sub...)
	}
	return units, nil
}

// splitLevel splits text on the level's delimiter set, attaching each
// delimiter to the configured side. A fragment matching no delimiter comes
// back as a single unit spanning the whole input.
func splitLevel(text string, offset int, level RecursiveLevel) []unit {
	var fragments []unit
	fragStart := 0
	pos := 0

	for pos < len(text) {
		delim, at := nextDelimiter(text, pos, level.Delimiters)
		if at < 0 {
			break
		}
		var cut, nextFrag int
		if level.Attach == AttachNext {
			cut, nextFrag = at, at
		} else {
			cut = at + len(delim)
			nextFrag = cut
		}
		if cut > fragStart {
			if frag, ok := makeFragment(text, offset, fragStart, cut, level); ok {
				fragments = append(fragments, frag)
			}
		}
		fragStart = nextFrag
		// Advance past the delimiter so AttachNext does not loop on it.
		pos = at + len(delim)
	}
	if fragStart < len(text) {
		if frag, ok := makeFragment(text, offset, fragStart, len(text), level); ok {
			fragments = append(fragments, frag)
		}
	}
	return fragments
}

// nextDelimiter finds the earliest delimiter occurrence at or after pos,
// preferring the longest match at a given position.
func nextDelimiter(text string, pos int, delims []string) (string, int) {
	best := -1
	var bestDelim string
	for _, d := range delims {
		at := strings.Index(text[pos:], d)
		if at < 0 {
			continue
		}
		at += pos
		if best < 0 || at < best || (at == best && len(d) > len(bestDelim)) {
			best = at
			bestDelim = d
		}
	}
	return bestDelim, best
}

// makeFragment builds a fragment unit; ok is false when collapsing reduced it
// to nothing.
func makeFragment(text string, offset, start, end int, level RecursiveLevel) (unit, bool) {
	frag := text[start:end]
	if level.Whitespace == WhitespaceCollapse {
		trimmed := strings.TrimSpace(frag)
		if trimmed == "" {
			return unit{}, false
		}
		lead := strings.Index(frag, trimmed)
		start += lead
		end = start + len(trimmed)
		frag = trimmed
	}
	return unit{text: frag, start: offset + start, end: offset + end}, true
}

// hardSplit cuts text into units of at most maxTokens tokens at exact token
// boundaries. It first tries the encode/decode route; when the counter cannot
// round-trip (or a decoded piece does not align with the source bytes) it
// falls back to a count-based boundary search. Either way every unit is an
// exact substring of text and progress is guaranteed.
func (r *recursiveSplitter) hardSplit(text string, offset int) ([]unit, error) {
	units, err := r.hardSplitEncoded(text, offset)
	if err == nil {
		return units, nil
	}
	if !errors.Is(err, tokenizer.ErrNotEncodable) {
		return nil, err
	}
	return r.hardSplitCounted(text, offset)
}

func (r *recursiveSplitter) hardSplitEncoded(text string, offset int) ([]unit, error) {
	ids, err := r.counter.Encode(text)
	if err != nil {
		return nil, err
	}

	var units []unit
	cursor := 0
	for start := 0; start < len(ids); start += r.maxTokens {
		end := min(start+r.maxTokens, len(ids))
		piece, err := r.counter.Decode(ids[start:end])
		if err != nil {
			return nil, err
		}
		// Token boundaries must align with the source bytes; BPE merges can
		// break that alignment mid-rune, in which case the counted fallback
		// takes over.
		if !strings.HasPrefix(text[cursor:], piece) || piece == "" {
			return nil, tokenizer.ErrNotEncodable
		}
		units = append(units, unit{
			text:   piece,
			start:  offset + cursor,
			end:    offset + cursor + len(piece),
			tokens: end - start,
		})
		cursor += len(piece)
	}
	if cursor != len(text) {
		return nil, tokenizer.ErrNotEncodable
	}
	return units, nil
}

// hardSplitCounted cuts at the longest rune-boundary prefix whose count fits
// the budget, taking at least one rune per unit.
func (r *recursiveSplitter) hardSplitCounted(text string, offset int) ([]unit, error) {
	var units []unit
	rest := text
	cursor := 0
	for rest != "" {
		cut, tokens, err := r.fitPrefix(rest)
		if err != nil {
			return nil, err
		}
		units = append(units, unit{
			text:   rest[:cut],
			start:  offset + cursor,
			end:    offset + cursor + cut,
			tokens: tokens,
		})
		cursor += cut
		rest = rest[cut:]
	}
	return units, nil
}

// fitPrefix binary-searches rune boundaries for the longest prefix of text
// counting at most maxTokens tokens.
func (r *recursiveSplitter) fitPrefix(text string) (cut, tokens int, err error) {
	bounds := runeBoundaries(text)
	lo, hi := 1, len(bounds)-1 // bounds[0] == 0 is the empty prefix

	best := 1
	bestTokens := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		n, err := r.counter.Count(text[:bounds[mid]])
		if err != nil {
			return 0, 0, err
		}
		if n <= r.maxTokens {
			best = mid
			bestTokens = n
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if bestTokens < 0 {
		// Even a single rune exceeds the budget; take it anyway so the
		// split always advances.
		n, err := r.counter.Count(text[:bounds[1]])
		if err != nil {
			return 0, 0, err
		}
		return bounds[1], n, nil
	}
	return bounds[best], bestTokens, nil
}

// runeBoundaries returns every byte offset that starts a rune, plus len(text).
func runeBoundaries(text string) []int {
	bounds := make([]int, 0, len(text)+1)
	for i := range text {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(text))
	return bounds
}
