// Package tokenizer provides the token-counting capability consumed by the
// chunking engine.
//
// The Counter interface is the narrow contract the engine depends on:
//
//	type Counter interface {
//	    Count(text string) (int, error)
//	    Encode(text string) ([]int, error)
//	    Decode(ids []int) (string, error)
//	}
//
// Two implementations are provided:
//
//   - Tiktoken: real BPE tokenization via cl100k_base. Counts match what
//     GPT-style embedding models see, at the cost of loading the vocabulary.
//   - WordCounter: whitespace-delimited word counting. Cheap, deterministic,
//     and convenient in tests where exact budgets matter more than realism.
//
// Counts must be deterministic: the engine treats a counter failure as fatal
// for the document being chunked.
package tokenizer
