// Package dedup groups records that point at the same resource or carry
// near-identical content.
package dedup

import (
	"fmt"
	"strings"

	"github.com/cognicore/topology/internal/parallel"
	"github.com/cognicore/topology/pkg/topology/fingerprint"
	"github.com/cognicore/topology/pkg/topology/ingest"
	"github.com/cognicore/topology/pkg/topology/internalerr"
	"github.com/cognicore/topology/pkg/topology/lsh"
	"github.com/cognicore/topology/pkg/topology/urlnorm"
)

// Strategy selects which duplicate signals are combined.
type Strategy string

const (
	// URL groups records whose canonical URL keys are identical.
	URL Strategy = "url"
	// Fuzzy groups records whose content SimHashes are within the
	// Hamming threshold.
	Fuzzy Strategy = "fuzzy"
	// Combined unions both signals.
	Combined Strategy = "combined"
)

// DefaultThreshold is the maximum Hamming distance for fuzzy duplicates.
const DefaultThreshold = 3

// ParseStrategy maps a case-insensitive name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(s)); st {
	case URL, Fuzzy, Combined:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown dedup strategy %q (want url, fuzzy or combined)", internalerr.ErrInvalidInput, s)
}

func (s Strategy) useURL() bool   { return s == URL || s == Combined }
func (s Strategy) useFuzzy() bool { return s == Fuzzy || s == Combined }

// Options configures Run.
type Options struct {
	Strategy  Strategy
	Threshold int
	// Tokenizer defaults to ingest.DefaultTokenizer.
	Tokenizer *ingest.Tokenizer
}

// Assignment is the duplicate group of one record.
type Assignment struct {
	Group     int  `json:"group"`
	IsPrimary bool `json:"is_primary"`
}

// Run assigns every record a duplicate group. texts and urls are indexed
// by record; urls may be nil for the fuzzy strategy. URLs that fail to
// normalize contribute no URL signal. Group ids are dense and numbered in
// order of first appearance; the first record of each group is its
// primary.
func Run(texts, urls []string, opts Options) ([]Assignment, error) {
	if _, err := ParseStrategy(string(opts.Strategy)); err != nil {
		return nil, err
	}
	if opts.Threshold < 0 || opts.Threshold > 64 {
		return nil, fmt.Errorf("%w: hamming threshold must be in [0,64], got %d", internalerr.ErrInvalidConfig, opts.Threshold)
	}
	n := len(texts)
	if opts.Strategy.useURL() && len(urls) != n {
		return nil, fmt.Errorf("%w: %d texts but %d urls", internalerr.ErrInvalidInput, n, len(urls))
	}

	uf := NewUnionFind(n)

	if opts.Strategy.useURL() {
		first := make(map[string]int)
		for i, raw := range urls {
			key, err := urlnorm.CanonicalKey(raw)
			if err != nil {
				continue
			}
			if j, ok := first[key]; ok {
				uf.Union(j, i)
			} else {
				first[key] = i
			}
		}
	}

	if opts.Strategy.useFuzzy() {
		tok := opts.Tokenizer
		if tok == nil {
			tok = ingest.DefaultTokenizer()
		}
		fps := make([]uint64, n)
		parallel.For(n, func(i int) {
			fps[i] = fingerprint.SimHashUniform(tok.Tokenize(texts[i]))
		})

		idx := lsh.DefaultSimHashIndex()
		for i, fp := range fps {
			idx.Insert(i, fp)
		}
		for _, p := range idx.CandidatePairs() {
			if fingerprint.IsNearDuplicate(fps[p.I], fps[p.J], opts.Threshold) {
				uf.Union(p.I, p.J)
			}
		}
	}

	return assign(uf, n), nil
}

func assign(uf *UnionFind, n int) []Assignment {
	out := make([]Assignment, n)
	groupOf := make(map[int]int)
	for i := 0; i < n; i++ {
		root := uf.Find(i)
		g, seen := groupOf[root]
		if !seen {
			g = len(groupOf)
			groupOf[root] = g
		}
		out[i] = Assignment{Group: g, IsPrimary: !seen}
	}
	return out
}
