package corpus

import (
	"math"
	"sort"

	json "github.com/goccy/go-json"
)

// Standard Okapi BM25 parameters.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Corpus accumulates per-document term counts and global document
// frequencies. It drives IDF, TF-IDF and BM25. A Corpus is append-only and
// not safe for concurrent mutation.
type Corpus struct {
	docTerms []map[string]int
	docLens  []int
	docFreq  map[string]int
	numDocs  int
	avgDL    float64
}

// New creates an empty corpus.
func New() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// FromTokens builds a corpus with one document per token list.
func FromTokens(tokenLists [][]string) *Corpus {
	c := New()
	for _, tokens := range tokenLists {
		c.AddDocument(tokens)
	}
	return c
}

// AddDocument appends a pre-tokenized document and recomputes the average
// document length over the whole corpus.
func (c *Corpus) AddDocument(tokens []string) {
	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}
	for term := range counts {
		c.docFreq[term]++
	}
	c.docTerms = append(c.docTerms, counts)
	c.docLens = append(c.docLens, len(tokens))
	c.numDocs++

	total := 0
	for _, doc := range c.docTerms {
		for _, n := range doc {
			total += n
		}
	}
	c.avgDL = float64(total) / float64(c.numDocs)
}

// NumDocs returns the number of documents added so far.
func (c *Corpus) NumDocs() int { return c.numDocs }

// AvgDocLen returns the running average document length in tokens.
func (c *Corpus) AvgDocLen() float64 { return c.avgDL }

// DocFreq returns how many documents contain term.
func (c *Corpus) DocFreq(term string) int { return c.docFreq[term] }

// IDF computes log((N - df + 0.5) / (df + 0.5) + 1).
func (c *Corpus) IDF(term string) float64 {
	df := float64(c.docFreq[term])
	n := float64(c.numDocs)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// TFIDFVector returns (count/doc_length) * idf for every term of document
// doc. It panics if doc is out of range.
func (c *Corpus) TFIDFVector(doc int) map[string]float64 {
	terms := c.docTerms[doc]
	dl := float64(c.docLens[doc])
	out := make(map[string]float64, len(terms))
	for term, count := range terms {
		out[term] = float64(count) / dl * c.IDF(term)
	}
	return out
}

// TFIDFVectors returns the TF-IDF vector of every document in order.
func (c *Corpus) TFIDFVectors() []map[string]float64 {
	out := make([]map[string]float64, c.numDocs)
	for i := range out {
		out[i] = c.TFIDFVector(i)
	}
	return out
}

// BM25Score scores query terms against document doc with k1=1.2, b=0.75.
func (c *Corpus) BM25Score(doc int, query []string) float64 {
	return c.BM25ScoreParams(doc, query, DefaultK1, DefaultB)
}

// BM25ScoreParams is BM25Score with explicit k1 and b.
func (c *Corpus) BM25ScoreParams(doc int, query []string, k1, b float64) float64 {
	terms := c.docTerms[doc]
	if c.avgDL == 0 {
		return 0
	}
	dl := float64(c.docLens[doc])

	var score float64
	for _, term := range query {
		tf := float64(terms[term])
		if tf == 0 {
			continue
		}
		num := tf * (k1 + 1)
		den := tf + k1*(1-b+b*dl/c.avgDL)
		score += c.IDF(term) * num / den
	}
	return score
}

// TermWeight pairs a term with its weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopTerms returns the n highest TF-IDF terms of document doc.
func (c *Corpus) TopTerms(doc, n int) []TermWeight {
	return SortedTerms(c.TFIDFVector(doc), n)
}

// TokenWeights computes TF-IDF weights for an external token list against
// this corpus' document frequencies.
func (c *Corpus) TokenWeights(tokens []string) map[string]float64 {
	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}
	dl := float64(len(tokens))
	out := make(map[string]float64, len(counts))
	for term, count := range counts {
		out[term] = float64(count) / dl * c.IDF(term)
	}
	return out
}

// SortedTerms orders a weight map by weight descending, breaking ties by
// term, and truncates to n entries (n <= 0 keeps everything).
func SortedTerms(weights map[string]float64, n int) []TermWeight {
	out := make([]TermWeight, 0, len(weights))
	for term, w := range weights {
		out = append(out, TermWeight{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight == out[j].Weight {
			return out[i].Term < out[j].Term
		}
		return out[i].Weight > out[j].Weight
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type snapshot struct {
	DocTerms []map[string]int `json:"doc_terms"`
	DocFreq  map[string]int   `json:"doc_freq"`
	NumDocs  int              `json:"num_docs"`
	AvgDL    float64          `json:"avg_dl"`
}

// MarshalJSON persists the corpus for the artifact cache.
func (c *Corpus) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		DocTerms: c.docTerms,
		DocFreq:  c.docFreq,
		NumDocs:  c.numDocs,
		AvgDL:    c.avgDL,
	})
}

// UnmarshalJSON restores a corpus written by MarshalJSON.
func (c *Corpus) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	c.docTerms = s.DocTerms
	c.docFreq = s.DocFreq
	if c.docFreq == nil {
		c.docFreq = make(map[string]int)
	}
	c.numDocs = s.NumDocs
	c.avgDL = s.AvgDL
	c.docLens = make([]int, len(c.docTerms))
	for i, doc := range c.docTerms {
		for _, n := range doc {
			c.docLens[i] += n
		}
	}
	return nil
}
