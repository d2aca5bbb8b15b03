package taxonomy

import (
	"fmt"

	"github.com/cognicore/topology/pkg/topology/cluster"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/ingest"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// GeneratedName names every generated taxonomy.
const GeneratedName = "generated"

// GenerateConfig controls Generate.
type GenerateConfig struct {
	Depth   int             `json:"depth" yaml:"depth"`
	Linkage cluster.Linkage `json:"linkage" yaml:"linkage"`
	TopN    int             `json:"top_n" yaml:"top_n"`
}

// DefaultGenerateConfig cuts into at most 10 Ward clusters with 5 weighted
// keywords each.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Depth: 10, Linkage: cluster.Ward, TopN: 5}
}

// Validate checks the config before any work is done.
func (c GenerateConfig) Validate() error {
	if c.Depth < 1 {
		return fmt.Errorf("%w: generate depth must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Depth)
	}
	if c.TopN < 0 {
		return fmt.Errorf("%w: top_n must be >= 0, got %d", internalerr.ErrInvalidConfig, c.TopN)
	}
	if _, err := cluster.ParseLinkage(string(c.Linkage)); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// GeneratedCategory is one cluster of a generated taxonomy.
type GeneratedCategory struct {
	ID       int                 `json:"id" yaml:"id"`
	Label    string              `json:"label" yaml:"label"`
	Size     int                 `json:"size" yaml:"size"`
	Keywords []corpus.TermWeight `json:"keywords" yaml:"keywords"`
	Members  []int               `json:"members" yaml:"members"`
}

// Generated is a flat taxonomy built over every input item.
type Generated struct {
	Name        string              `json:"name" yaml:"name"`
	NumClusters int                 `json:"num_clusters" yaml:"num_clusters"`
	NumItems    int                 `json:"num_items" yaml:"num_items"`
	Linkage     cluster.Linkage     `json:"linkage" yaml:"linkage"`
	Categories  []GeneratedCategory `json:"categories" yaml:"categories"`
}

// Generate tokenizes texts with the default tokenizer and runs
// GenerateTokens.
func Generate(texts []string, cfg GenerateConfig) (*Generated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return GenerateTokens(ingest.TokenizeAll(texts), cfg)
}

// GenerateTokens clusters every document (no sampling) into at most
// cfg.Depth clusters and reports weighted keywords and members for each.
func GenerateTokens(tokenLists [][]string, cfg GenerateConfig) (*Generated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(tokenLists)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 items to generate a taxonomy, got %d", internalerr.ErrTooFewItems, n)
	}

	vectors := corpus.FromTokens(tokenLists).TFIDFVectors()
	dend, err := cluster.HAC(cluster.CosineDistanceMatrix(vectors), n, cfg.Linkage)
	if err != nil {
		return nil, err
	}
	return GenerateFromDendrogram(vectors, dend, cfg)
}

// GenerateFromDendrogram cuts a dendrogram already built over vectors with
// cfg.Linkage. It lets callers reuse one tree across depths.
func GenerateFromDendrogram(vectors []map[string]float64, dend *cluster.Dendrogram, cfg GenerateConfig) (*Generated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(vectors)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 items to generate a taxonomy, got %d", internalerr.ErrTooFewItems, n)
	}
	if dend == nil || dend.N != n {
		return nil, fmt.Errorf("%w: dendrogram does not cover %d items", internalerr.ErrInvalidInput, n)
	}

	groups := groupVectors(vectors, cluster.CutTree(dend, min(cfg.Depth, n)))

	cats := make([]GeneratedCategory, len(groups))
	for i, g := range groups {
		keywords := truncate(g.Terms, cfg.TopN)
		cats[i] = GeneratedCategory{
			ID:       i,
			Label:    Label(keywords, 3, false),
			Size:     len(g.Members),
			Keywords: keywords,
			Members:  g.Members,
		}
	}

	return &Generated{
		Name:        GeneratedName,
		NumClusters: len(groups),
		NumItems:    n,
		Linkage:     cfg.Linkage,
		Categories:  cats,
	}, nil
}
