// Package textutil holds the tokenizer and sentence splitter shared by the
// chunkers, the hashing embedder and the summarizer.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordRe    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentEndRe = regexp.MustCompile(`[.!?]+(?: |$)`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Words returns lower-cased word tokens of s.
func Words(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// ContentWords returns Words(s) with stopwords removed.
func ContentWords(s string) []string {
	raw := Words(s)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TokenSet returns the distinct words of s.
func TokenSet(s string) map[string]struct{} {
	tokens := Words(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// Sentences splits text into trimmed sentences. Whitespace runs, including
// the hard line breaks pdftotext emits, are collapsed to single spaces.
// A sentence ends at a run of '.', '!' or '?' followed by a space or the
// end of text, so "3.14" and a leading "..." stay inside their sentence.
func Sentences(text string) []string {
	flat := strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if flat == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentEndRe.FindAllStringIndex(flat, -1) {
		if s := strings.TrimSpace(flat[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(flat[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// EstimateTokens approximates the model token count of s at four characters per token.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "does", "do", "did", "how", "we", "our", "its", "their", "they", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether the lower-cased token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
