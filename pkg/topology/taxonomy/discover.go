package taxonomy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/topology/internal/parallel"
	"github.com/cognicore/topology/pkg/topology/cluster"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/ingest"
	"github.com/cognicore/topology/pkg/topology/internalerr"
	"github.com/cognicore/topology/pkg/topology/sampling"
)

// Name and version stamped on discovered taxonomies.
const (
	DiscoveredName    = "discovered"
	DiscoveredVersion = "auto"
)

// DiscoverConfig controls taxonomy discovery.
type DiscoverConfig struct {
	K                  int             `json:"k" yaml:"k"`
	SampleSize         int             `json:"sample_size" yaml:"sample_size"`
	LabelTerms         int             `json:"label_terms" yaml:"label_terms"`
	KeywordsPerCluster int             `json:"keywords_per_cluster" yaml:"keywords_per_cluster"`
	Linkage            cluster.Linkage `json:"linkage" yaml:"linkage"`
	Seed               uint64          `json:"seed" yaml:"seed"`
}

// DefaultDiscoverConfig returns k=15 over a sample of at most 500 items
// with Ward linkage.
func DefaultDiscoverConfig() DiscoverConfig {
	return DiscoverConfig{
		K:                  15,
		SampleSize:         500,
		LabelTerms:         3,
		KeywordsPerCluster: 20,
		Linkage:            cluster.Ward,
		Seed:               42,
	}
}

// Validate checks the config before any work is done.
func (c DiscoverConfig) Validate() error {
	switch {
	case c.K < 1:
		return fmt.Errorf("%w: discovery k must be >= 1, got %d", internalerr.ErrInvalidConfig, c.K)
	case c.SampleSize < 1:
		return fmt.Errorf("%w: discovery sample size must be >= 1, got %d", internalerr.ErrInvalidConfig, c.SampleSize)
	case c.LabelTerms < 1:
		return fmt.Errorf("%w: label terms must be >= 1, got %d", internalerr.ErrInvalidConfig, c.LabelTerms)
	case c.KeywordsPerCluster < 1:
		return fmt.Errorf("%w: keywords per cluster must be >= 1, got %d", internalerr.ErrInvalidConfig, c.KeywordsPerCluster)
	}
	if _, err := cluster.ParseLinkage(string(c.Linkage)); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// Discover tokenizes texts with the default tokenizer and runs
// DiscoverTokens.
func Discover(texts []string, cfg DiscoverConfig) (*Taxonomy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return DiscoverTokens(ingest.TokenizeAll(texts), cfg)
}

// DiscoverTokens builds a flat taxonomy by clustering documents. Inputs
// larger than cfg.SampleSize are randomly sampled and weighted against a
// corpus of the sample alone. Each cluster becomes a category labelled by
// its top summed TF-IDF terms.
func DiscoverTokens(tokenLists [][]string, cfg DiscoverConfig) (*Taxonomy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(tokenLists)
	if n == 0 {
		return &Taxonomy{Name: DiscoveredName, Version: DiscoveredVersion, Categories: []Category{}}, nil
	}

	sample := tokenLists
	if n > cfg.SampleSize {
		idx := sampling.RandomSample(n, cfg.SampleSize, cfg.Seed)
		sample = make([][]string, len(idx))
		for i, j := range idx {
			sample[i] = tokenLists[j]
		}
	}

	if len(sample) < 2 {
		top := corpus.FromTokens(tokenLists).TopTerms(0, cfg.KeywordsPerCluster)
		return &Taxonomy{
			Name:       DiscoveredName,
			Version:    DiscoveredVersion,
			Categories: []Category{categoryFromTerms(top, cfg.LabelTerms)},
		}, nil
	}

	vectors := corpus.FromTokens(sample).TFIDFVectors()
	groups, err := clusterVectors(vectors, min(cfg.K, len(sample)), cfg.Linkage)
	if err != nil {
		return nil, err
	}

	cats := make([]Category, 0, len(groups))
	for _, g := range groups {
		cats = append(cats, categoryFromTerms(truncate(g.Terms, cfg.KeywordsPerCluster), cfg.LabelTerms))
	}
	return &Taxonomy{Name: DiscoveredName, Version: DiscoveredVersion, Categories: cats}, nil
}

func categoryFromTerms(terms []corpus.TermWeight, labelTerms int) Category {
	keywords := make([]string, len(terms))
	for i, tw := range terms {
		keywords[i] = tw.Term
	}
	return Category{
		Name:     Label(terms, labelTerms, true),
		Keywords: keywords,
	}
}

// Label joins the first n terms with ", ", optionally capitalizing each.
func Label(terms []corpus.TermWeight, n int, capitalize bool) string {
	parts := make([]string, 0, n)
	for _, tw := range truncate(terms, n) {
		if capitalize {
			parts = append(parts, capitalizeFirst(tw.Term))
		} else {
			parts = append(parts, tw.Term)
		}
	}
	return strings.Join(parts, ", ")
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(terms []corpus.TermWeight, n int) []corpus.TermWeight {
	if n >= 0 && len(terms) > n {
		return terms[:n]
	}
	return terms
}

// group is one cut cluster with its members and summed term weights.
type group struct {
	Members []int
	Terms   []corpus.TermWeight
}

// clusterVectors runs HAC over cosine distances, cuts the tree into k
// clusters and summarizes each non-empty one in label order.
func clusterVectors(vectors []map[string]float64, k int, linkage cluster.Linkage) ([]group, error) {
	dend, err := cluster.HAC(cluster.CosineDistanceMatrix(vectors), len(vectors), linkage)
	if err != nil {
		return nil, err
	}
	return groupVectors(vectors, cluster.CutTree(dend, k)), nil
}

func groupVectors(vectors []map[string]float64, labels []int) []group {
	numLabels := 0
	for _, l := range labels {
		numLabels = max(numLabels, l+1)
	}
	members := make([][]int, numLabels)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	groups := make([]group, numLabels)
	parallel.For(numLabels, func(c int) {
		merged := make(map[string]float64)
		for _, i := range members[c] {
			for term, w := range vectors[i] {
				merged[term] += w
			}
		}
		groups[c] = group{Members: members[c], Terms: corpus.SortedTerms(merged, 0)}
	})

	out := groups[:0]
	for _, g := range groups {
		if len(g.Members) > 0 {
			out = append(out, g)
		}
	}
	return out
}
