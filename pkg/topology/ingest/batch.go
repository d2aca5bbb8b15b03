package ingest

import "github.com/cognicore/topology/internal/parallel"

// TokenizeAll tokenizes every text with the default tokenizer. Texts are
// independent, so the work fans out across GOMAXPROCS goroutines; each one
// writes only its own slot of the result.
func TokenizeAll(texts []string) [][]string {
	return defaultTokenizer.TokenizeAll(texts)
}

// TokenizeAll is the Tokenizer-bound form of the package function.
func (t *Tokenizer) TokenizeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	parallel.For(len(texts), func(i int) {
		out[i] = t.Tokenize(texts[i])
	})
	return out
}
