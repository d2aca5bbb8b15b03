// Package topics factorizes document-term weights into topics with
// non-negative matrix factorization.
package topics

import (
	"sort"

	"github.com/cognicore/topology/internal/parallel"
	"github.com/cognicore/topology/pkg/topology/corpus"
)

const epsilon = 1e-10

// Result holds the factorization V ≈ W·H.
type Result struct {
	// DocTopics is W, n_docs × k.
	DocTopics [][]float64 `json:"doc_topics"`
	// TopicTerms is H, k × n_terms.
	TopicTerms [][]float64 `json:"topic_terms"`
	Vocabulary []string    `json:"vocabulary"`
	K          int         `json:"k"`
}

// NMF factorizes sparse TF-IDF vectors into k topics with Lee–Seung
// multiplicative updates. The vocabulary is the vocabLimit most
// document-frequent terms (ties by term). Initialization is deterministic,
// so identical input always yields the identical factorization. Empty
// input, an empty vocabulary or k == 0 yield correctly shaped zero
// matrices.
func NMF(vectors []map[string]float64, k, maxIter, vocabLimit int) *Result {
	nDocs := len(vectors)
	vocab := buildVocabulary(vectors, vocabLimit)
	nTerms := len(vocab)

	if nDocs == 0 || nTerms == 0 || k <= 0 {
		k = max(k, 0)
		return &Result{
			DocTopics:  zeros(nDocs, k),
			TopicTerms: zeros(k, nTerms),
			Vocabulary: vocab,
			K:          k,
		}
	}

	termIdx := make(map[string]int, nTerms)
	for i, t := range vocab {
		termIdx[t] = i
	}
	v := zeros(nDocs, nTerms)
	for d, vec := range vectors {
		for term, w := range vec {
			if idx, ok := termIdx[term]; ok {
				v[d][idx] = w
			}
		}
	}

	w := zeros(nDocs, k)
	for i := range w {
		for j := range w[i] {
			w[i][j] = 0.1 + 0.01*float64((i*k+j)%100)/100
		}
	}
	h := zeros(k, nTerms)
	for i := range h {
		for j := range h[i] {
			h[i][j] = 0.1 + 0.01*float64((i*nTerms+j)%100)/100
		}
	}

	for iter := 0; iter < maxIter; iter++ {
		// H ← H ∘ (WᵀV) / (WᵀWH)
		wtv := mulTransA(w, v)
		wtwh := mul(mulTransA(w, w), h)
		for i := range h {
			for j := range h[i] {
				h[i][j] *= wtv[i][j] / (wtwh[i][j] + epsilon)
			}
		}

		// W ← W ∘ (VHᵀ) / (WHHᵀ)
		vht := mulTransB(v, h)
		whht := mulTransB(mul(w, h), h)
		for i := range w {
			for j := range w[i] {
				w[i][j] *= vht[i][j] / (whht[i][j] + epsilon)
			}
		}
	}

	return &Result{DocTopics: w, TopicTerms: h, Vocabulary: vocab, K: k}
}

// TopTerms returns the n highest weighted terms of a topic, or nothing for
// an out-of-range topic.
func (r *Result) TopTerms(topic, n int) []corpus.TermWeight {
	if topic < 0 || topic >= r.K || topic >= len(r.TopicTerms) {
		return []corpus.TermWeight{}
	}
	row := r.TopicTerms[topic]
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] > row[idx[b]]
	})
	if n >= 0 && len(idx) > n {
		idx = idx[:n]
	}

	out := make([]corpus.TermWeight, len(idx))
	for i, j := range idx {
		out[i] = corpus.TermWeight{Term: r.Vocabulary[j], Weight: row[j]}
	}
	return out
}

// DominantTopics returns the highest weighted topic of every document.
// Ties resolve to the lowest topic index.
func (r *Result) DominantTopics() []int {
	out := make([]int, len(r.DocTopics))
	for d, row := range r.DocTopics {
		best := 0
		for t := 1; t < len(row); t++ {
			if row[t] > row[best] {
				best = t
			}
		}
		out[d] = best
	}
	return out
}

func buildVocabulary(vectors []map[string]float64, limit int) []string {
	df := make(map[string]int)
	for _, vec := range vectors {
		for term := range vec {
			df[term]++
		}
	}
	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if df[vocab[i]] != df[vocab[j]] {
			return df[vocab[i]] > df[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if limit >= 0 && len(vocab) > limit {
		vocab = vocab[:limit]
	}
	return vocab
}

func zeros(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// mul returns A·B.
func mul(a, b [][]float64) [][]float64 {
	inner := len(b)
	cols := 0
	if inner > 0 {
		cols = len(b[0])
	}
	out := zeros(len(a), cols)
	parallel.For(len(a), func(i int) {
		for j := 0; j < cols; j++ {
			var sum float64
			for k := 0; k < inner; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	})
	return out
}

// mulTransA returns Aᵀ·B for A (m×n) and B (m×p).
func mulTransA(a, b [][]float64) [][]float64 {
	m := len(a)
	if m == 0 {
		return nil
	}
	n, p := len(a[0]), len(b[0])
	out := zeros(n, p)
	parallel.For(n, func(i int) {
		for j := 0; j < p; j++ {
			var sum float64
			for k := 0; k < m; k++ {
				sum += a[k][i] * b[k][j]
			}
			out[i][j] = sum
		}
	})
	return out
}

// mulTransB returns A·Bᵀ for A (m×n) and B (p×n).
func mulTransB(a, b [][]float64) [][]float64 {
	out := zeros(len(a), len(b))
	parallel.For(len(a), func(i int) {
		for j := range b {
			var sum float64
			for k := 0; k < len(a[i]) && k < len(b[j]); k++ {
				sum += a[i][k] * b[j][k]
			}
			out[i][j] = sum
		}
	})
	return out
}
