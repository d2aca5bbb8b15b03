// Package strsim scores how alike two short strings are, on a 0..1 scale.
package strsim

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// Metric names a similarity function.
type Metric string

const (
	Levenshtein Metric = "levenshtein"
	JaroWinkler Metric = "jaro-winkler"
	Cosine      Metric = "cosine"
)

// Metrics lists every metric in display order.
func Metrics() []Metric {
	return []Metric{Levenshtein, JaroWinkler, Cosine}
}

// ParseMetric accepts metric names and their short aliases.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "levenshtein", "lev":
		return Levenshtein, nil
	case "jaro-winkler", "jaro_winkler", "jw":
		return JaroWinkler, nil
	case "cosine", "cos":
		return Cosine, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q (want levenshtein, jaro-winkler or cosine)", internalerr.ErrInvalidInput, s)
}

// Similarity returns 1 for identical strings and 0 for nothing in common.
func Similarity(a, b string, m Metric) (float64, error) {
	switch m {
	case Levenshtein:
		return levenshtein.Similarity(a, b, nil), nil
	case JaroWinkler:
		return jaroWinkler(a, b), nil
	case Cosine:
		return bigramCosine(a, b), nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", internalerr.ErrInvalidInput, m)
}

// All scores a and b under every metric.
func All(a, b string) map[Metric]float64 {
	out := make(map[Metric]float64, 3)
	for _, m := range Metrics() {
		out[m], _ = Similarity(a, b, m)
	}
	return out
}

func jaro(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}
	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))

	matches := 0
	for i := range a {
		lo := max(0, i-window)
		hi := min(len(b), i+window+1)
		for j := lo; j < hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i], matchedB[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range a {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions)/2)/m) / 3
}

// jaroWinkler boosts the Jaro score by 0.1 per shared leading rune, up
// to four.
func jaroWinkler(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	j := jaro(ra, rb)

	prefix := 0
	for prefix < min(4, len(ra), len(rb)) && ra[prefix] == rb[prefix] {
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

// bigramCosine compares lowercase character bigram counts. Strings too
// short to have a bigram are similar only when equal.
func bigramCosine(a, b string) float64 {
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		if a == b {
			return 1
		}
		return 0
	}

	var dot, na, nb float64
	for k, va := range ba {
		fa := float64(va)
		na += fa * fa
		if vb, ok := bb[k]; ok {
			dot += fa * float64(vb)
		}
	}
	for _, vb := range bb {
		nb += float64(vb) * float64(vb)
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func bigrams(s string) map[string]int {
	lower := strings.ToLower(s)
	if utf8.RuneCountInString(lower) < 2 {
		return nil
	}
	runes := []rune(lower)
	out := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}
