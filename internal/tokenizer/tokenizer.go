// Package tokenizer normalizes raw text into index terms. It lower-cases
// input, splits on non-alphanumeric boundaries, and discards empty tokens.
// Query text and document text go through the same function so that query
// normalization always matches indexing normalization.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into a slice of lowercased terms, preserving their
// order of appearance. It applies no stemming and no stop-word removal.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermFrequencies tokenizes text and returns the per-term occurrence counts
// together with the total token count.
func TermFrequencies(text string) (map[string]int, int) {
	tokens := Tokenize(text)
	freqs := make(map[string]int, len(tokens))
	for _, term := range tokens {
		freqs[term]++
	}
	return freqs, len(tokens)
}
