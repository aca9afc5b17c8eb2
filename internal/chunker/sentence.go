package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/textchunk-mcp/internal/tokenizer"
	"github.com/dshills/textchunk-mcp/pkg/types"
)

// minAbbrevRunes is the abbreviation guard: a terminator whose preceding word
// is shorter than this ("Dr.", "J.") does not end a sentence.
const minAbbrevRunes = 3

// sentenceSplitter splits raw text into offset-tracked sentences. Every byte
// of the input lands in exactly one sentence, so concatenating sentence texts
// reproduces the input.
type sentenceSplitter struct {
	counter    tokenizer.Counter
	delimiters []string // extra terminators beyond . ! ?
	minChars   int      // sentences shorter than this merge forward
}

// split returns the ordered sentences of text. Empty input yields nil.
func (s *sentenceSplitter) split(text string) ([]types.Sentence, error) {
	if text == "" {
		return nil, nil
	}

	spans := s.boundaries(text)
	spans = s.mergeShort(text, spans)

	sentences := make([]types.Sentence, 0, len(spans))
	for _, sp := range spans {
		seg := text[sp[0]:sp[1]]
		n, err := s.counter.Count(seg)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, tokenizer.ErrNegativeCount
		}
		sentences = append(sentences, types.Sentence{
			Text:       seg,
			Start:      sp[0],
			End:        sp[1],
			TokenCount: n,
		})
	}
	return sentences, nil
}

// boundaries scans for sentence-terminal punctuation and returns [start,end)
// spans covering all of text. Trailing whitespace after a terminator stays
// with the sentence it closes.
func (s *sentenceSplitter) boundaries(text string) [][2]int {
	var spans [][2]int
	start := 0
	i := 0
	for i < len(text) {
		dlen := s.terminatorAt(text, i)
		if dlen == 0 {
			_, rlen := utf8.DecodeRuneInString(text[i:])
			i += rlen
			continue
		}
		end := i + dlen
		// Swallow any run of further terminators ("?!", "...").
		for end < len(text) {
			more := s.terminatorAt(text, end)
			if more == 0 {
				break
			}
			end += more
		}
		if !s.endsSentence(text[start:i]) {
			i = end
			continue
		}
		// Attach trailing whitespace to the closing sentence.
		for end < len(text) {
			r, rlen := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(r) {
				break
			}
			end += rlen
		}
		spans = append(spans, [2]int{start, end})
		start = end
		i = end
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// terminatorAt reports the byte length of a sentence terminator beginning at
// position i, or zero.
func (s *sentenceSplitter) terminatorAt(text string, i int) int {
	switch text[i] {
	case '.', '!', '?':
		return 1
	}
	for _, d := range s.delimiters {
		if strings.HasPrefix(text[i:], d) {
			return len(d)
		}
	}
	return 0
}

// endsSentence guards against false boundaries after short pre-terminator
// tokens such as initials and abbreviations.
func (s *sentenceSplitter) endsSentence(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	last := strings.TrimFunc(fields[len(fields)-1], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return utf8.RuneCountInString(last) >= minAbbrevRunes
}

// mergeShort folds spans shorter than minChars into the following span (or
// the preceding one for a short final span).
func (s *sentenceSplitter) mergeShort(text string, spans [][2]int) [][2]int {
	if s.minChars <= 0 || len(spans) < 2 {
		return spans
	}
	merged := make([][2]int, 0, len(spans))
	for _, sp := range spans {
		n := len(merged)
		if n > 0 && sp[0] == merged[n-1][1] && tooShort(text, merged[n-1], s.minChars) {
			merged[n-1][1] = sp[1]
			continue
		}
		merged = append(merged, sp)
	}
	// A short last sentence has no following sentence to join; fold it back.
	if n := len(merged); n >= 2 && tooShort(text, merged[n-1], s.minChars) {
		merged[n-2][1] = merged[n-1][1]
		merged = merged[:n-1]
	}
	return merged
}

func tooShort(text string, span [2]int, minChars int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text[span[0]:span[1]])) < minChars
}
