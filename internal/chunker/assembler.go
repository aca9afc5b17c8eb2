package chunker

import (
	"strings"

	"github.com/dshills/textchunk-mcp/pkg/types"
)

// unit is an atomic piece of a document: a sentence, a hierarchy fragment, or
// a hard-split token run. Units are exact substrings of the source text and
// arrive at the assembler in document order.
type unit struct {
	text     string
	start    int // byte offset into the document (inclusive)
	end      int // byte offset into the document (exclusive)
	tokens   int
	sentence *types.Sentence // set only when the unit is a sentence
}

// assemble greedily merges units into chunks of at most maxTokens tokens.
// Every strategy funnels through this function so merge semantics and the
// reconstruction invariant are identical everywhere. Units over budget must
// have been reduced by a prior recursive step; assemble only merges.
//
// When the final chunk counts fewer than minTokens and merging it backward
// stays within budget, it is folded into its predecessor; otherwise it
// remains as a short terminal chunk.
func assemble(units []unit, maxTokens, minTokens int, docID string) []types.Chunk {
	if len(units) == 0 {
		return nil
	}

	var chunks []types.Chunk
	bufStart := 0
	bufTokens := 0

	flush := func(end int) {
		if end <= bufStart {
			return
		}
		chunks = append(chunks, buildChunk(units[bufStart:end], bufTokens, docID))
		bufStart = end
		bufTokens = 0
	}

	for i, u := range units {
		if bufTokens > 0 && bufTokens+u.tokens > maxTokens {
			flush(i)
		}
		bufTokens += u.tokens
	}
	flush(len(units))

	return mergeShortTail(chunks, maxTokens, minTokens)
}

// buildChunk materializes a chunk from a contiguous run of units. A gap
// between consecutive units is trimmed whitespace from a collapse level, so
// the texts are joined with a single space.
func buildChunk(units []unit, tokens int, docID string) types.Chunk {
	var sb strings.Builder
	var sentences []types.Sentence
	for i, u := range units {
		if i > 0 && u.start > units[i-1].end {
			sb.WriteString(" ")
		}
		sb.WriteString(u.text)
		if u.sentence != nil {
			sentences = append(sentences, *u.sentence)
		}
	}
	c := types.Chunk{
		DocumentID: docID,
		Text:       sb.String(),
		StartIndex: units[0].start,
		EndIndex:   units[len(units)-1].end,
		TokenCount: tokens,
		Sentences:  sentences,
	}
	c.ComputeContentHash()
	return c
}

// mergeShortTail folds an under-minimum final chunk into its predecessor when
// the combined size stays within budget.
func mergeShortTail(chunks []types.Chunk, maxTokens, minTokens int) []types.Chunk {
	n := len(chunks)
	if minTokens <= 0 || n < 2 {
		return chunks
	}
	last, prev := chunks[n-1], chunks[n-2]
	if last.TokenCount >= minTokens || prev.TokenCount+last.TokenCount > maxTokens {
		return chunks
	}

	if last.StartIndex > prev.EndIndex {
		prev.Text += " "
	}
	prev.Text += last.Text
	prev.EndIndex = last.EndIndex
	prev.TokenCount += last.TokenCount
	prev.Sentences = append(prev.Sentences, last.Sentences...)
	prev.ComputeContentHash()
	chunks[n-2] = prev
	return chunks[:n-1]
}
