package ingest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// minTokenLen is measured in bytes, so a single multi-byte rune still passes.
const minTokenLen = 2

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// DefaultTokenizer returns a tokenizer using the built-in English stopword set.
func DefaultTokenizer() *Tokenizer {
	return NewTokenizer(EnglishStopwords)
}

var defaultTokenizer = DefaultTokenizer()

// Tokenize splits text with the default tokenizer.
func Tokenize(text string) []string {
	return defaultTokenizer.Tokenize(text)
}

// Tokenize splits text into Unicode words (UAX #29), lowercases them and
// drops stopwords and tokens shorter than two bytes. Order and duplicates are
// preserved.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string

	segments := words.FromString(text)
	for segments.Next() {
		seg := segments.Value()
		if !isWord(seg) {
			continue
		}
		word := strings.ToLower(seg)
		if len(word) < minTokenLen || t.isStopword(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// isWord reports whether a segment carries at least one letter or digit;
// whitespace and punctuation segments are skipped.
func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}

// Stopwords returns the current stopword list in sorted order.
func (t *Tokenizer) Stopwords() []string {
	out := make([]string, 0, len(t.stopwords))
	for w := range t.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Shingles returns the character n-grams of the lowercased text.
// Text shorter than n runes yields a single shingle holding the whole text.
func Shingles(text string, n int) []string {
	lower := strings.ToLower(text)
	runes := []rune(lower)
	if n <= 0 || len(runes) < n {
		return []string{lower}
	}

	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

// WordNGrams joins every window of n consecutive tokens with a space.
// Fewer than n tokens yields a single n-gram of all tokens.
func WordNGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return []string{strings.Join(tokens, " ")}
	}

	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}
