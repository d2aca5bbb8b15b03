package taxonomy

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topology/pkg/topology/cluster"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/ingest"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

var topicPairs = []string{
	"rust systems memory safety ownership borrow checker compiler",
	"rust performance zero cost abstractions concurrent safe compile",
	"cooking recipe pasta italian sauce ingredients kitchen chef",
	"cooking baking bread flour dessert restaurant dinner menu",
	"astronomy telescope star galaxy nebula planet cosmos universe",
	"astronomy observatory comet asteroid space sky solar orbit",
}

func TestDiscoverSeparatesTopics(t *testing.T) {
	cfg := DefaultDiscoverConfig()
	cfg.K = 3
	cfg.SampleSize = 100
	cfg.KeywordsPerCluster = 15

	tax, err := Discover(topicPairs, cfg)
	require.NoError(t, err)

	assert.Equal(t, DiscoveredName, tax.Name)
	assert.Equal(t, DiscoveredVersion, tax.Version)
	require.GreaterOrEqual(t, len(tax.Categories), 2)
	for _, cat := range tax.Categories {
		assert.NotEmpty(t, cat.Name)
		assert.NotEmpty(t, cat.Keywords)
		assert.LessOrEqual(t, len(cat.Keywords), 15)
	}

	// each pair shares exactly one term, so the three pairs form the clusters
	require.Len(t, tax.Categories, 3)
	assert.True(t, strings.HasPrefix(tax.Categories[0].Name, "Rust, "), tax.Categories[0].Name)
	assert.True(t, strings.HasPrefix(tax.Categories[1].Name, "Cooking, "), tax.Categories[1].Name)
	assert.True(t, strings.HasPrefix(tax.Categories[2].Name, "Astronomy, "), tax.Categories[2].Name)
	assert.Equal(t, "rust", tax.Categories[0].Keywords[0])

	data, err := json.Marshal(tax)
	require.NoError(t, err)
	reparsed, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, reparsed.Categories, len(tax.Categories))
}

func TestDiscoverDeterministic(t *testing.T) {
	cfg := DefaultDiscoverConfig()
	cfg.K = 3
	a, err := Discover(topicPairs, cfg)
	require.NoError(t, err)
	b, err := Discover(topicPairs, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDiscoverEmptyInput(t *testing.T) {
	tax, err := Discover(nil, DefaultDiscoverConfig())
	require.NoError(t, err)
	assert.Empty(t, tax.Categories)
}

func TestDiscoverSingleItem(t *testing.T) {
	tax, err := Discover([]string{"rust programming language"}, DefaultDiscoverConfig())
	require.NoError(t, err)
	require.Len(t, tax.Categories, 1)
	assert.ElementsMatch(t, []string{"rust", "programming", "language"}, tax.Categories[0].Keywords)
}

func TestDiscoverSampled(t *testing.T) {
	texts := make([]string, 30)
	for i := range texts {
		switch i % 3 {
		case 0:
			texts[i] = fmt.Sprintf("alpha bravo charlie delta echo %d", i)
		case 1:
			texts[i] = fmt.Sprintf("foxtrot golf hotel india juliet %d", i)
		default:
			texts[i] = fmt.Sprintf("kilo lima mike november oscar %d", i)
		}
	}

	cfg := DefaultDiscoverConfig()
	cfg.K = 3
	cfg.SampleSize = 12

	tax, err := Discover(texts, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, tax.Categories)
	assert.LessOrEqual(t, len(tax.Categories), 3)
	for _, cat := range tax.Categories {
		assert.NotEmpty(t, cat.Keywords)
	}
}

func TestDiscoverInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DiscoverConfig)
	}{
		{name: "zero k", mutate: func(c *DiscoverConfig) { c.K = 0 }},
		{name: "zero sample", mutate: func(c *DiscoverConfig) { c.SampleSize = 0 }},
		{name: "zero label terms", mutate: func(c *DiscoverConfig) { c.LabelTerms = 0 }},
		{name: "zero keywords", mutate: func(c *DiscoverConfig) { c.KeywordsPerCluster = 0 }},
		{name: "bad linkage", mutate: func(c *DiscoverConfig) { c.Linkage = "centroid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDiscoverConfig()
			tt.mutate(&cfg)
			_, err := Discover(topicPairs, cfg)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestClassifyWithThreshold(t *testing.T) {
	tax := &Taxonomy{
		Name:    "test",
		Version: "1.0",
		Categories: []Category{
			{Name: "Rust", Keywords: []string{"rust", "systems", "memory", "safety"}},
		},
	}
	texts := []string{
		"rust systems programming memory safety",
		"completely unrelated gibberish xyzzy plugh",
	}

	results := Classify(texts, tax, 0)
	require.Len(t, results, 2)
	assert.Equal(t, "Rust", results[0].Category)
	assert.Equal(t, "Rust", results[0].Path)
	assert.Greater(t, results[0].Confidence, results[1].Confidence)
	assert.Equal(t, Classification{Category: Uncategorized, Path: Uncategorized}, results[1])

	high := Classify(texts[:1], tax, 1e6)
	assert.Equal(t, Uncategorized, high[0].Category)
	assert.Equal(t, 0.0, high[0].Confidence)
}

func TestClassifyNestedUsesLeafName(t *testing.T) {
	tax := &Taxonomy{
		Name:    "t",
		Version: "1",
		Categories: []Category{{
			Name:     "Food",
			Keywords: []string{"dinner"},
			Children: []Category{{Name: "Baking", Keywords: []string{"bread", "flour", "oven"}}},
		}},
	}
	got := Classify([]string{"fresh bread from the oven with flour"}, tax, 0.1)
	assert.Equal(t, "Baking", got[0].Category)
	assert.Equal(t, "Food > Baking", got[0].Path)
}

func TestClassifyTieKeepsFirst(t *testing.T) {
	tax := &Taxonomy{
		Name:    "t",
		Version: "1",
		Categories: []Category{
			{Name: "First", Keywords: []string{"rust", "memory"}},
			{Name: "Second", Keywords: []string{"rust", "memory"}},
		},
	}
	got := Classify([]string{"rust memory"}, tax, 0)
	assert.Equal(t, "First", got[0].Category)
}

func TestGenerate(t *testing.T) {
	cfg := DefaultGenerateConfig()
	cfg.Depth = 3
	cfg.TopN = 4

	gen, err := Generate(topicPairs, cfg)
	require.NoError(t, err)

	assert.Equal(t, GeneratedName, gen.Name)
	assert.Equal(t, 3, gen.NumClusters)
	assert.Equal(t, len(topicPairs), gen.NumItems)
	assert.Equal(t, cluster.Ward, gen.Linkage)
	require.Len(t, gen.Categories, 3)

	seen := make(map[int]bool)
	for i, cat := range gen.Categories {
		assert.Equal(t, i, cat.ID)
		assert.Equal(t, len(cat.Members), cat.Size)
		assert.LessOrEqual(t, len(cat.Keywords), 4)
		for _, m := range cat.Members {
			assert.False(t, seen[m])
			seen[m] = true
		}
	}
	assert.Len(t, seen, len(topicPairs))

	assert.Equal(t, []int{0, 1}, gen.Categories[0].Members)
	assert.True(t, strings.HasPrefix(gen.Categories[0].Label, "rust, "), gen.Categories[0].Label)
}

func TestGenerateFromDendrogramReusesTree(t *testing.T) {
	vectors := corpus.FromTokens(ingest.TokenizeAll(topicPairs)).TFIDFVectors()
	dend, err := cluster.HAC(cluster.CosineDistanceMatrix(vectors), len(vectors), cluster.Ward)
	require.NoError(t, err)

	for depth := 1; depth <= len(topicPairs); depth++ {
		cfg := DefaultGenerateConfig()
		cfg.Depth = depth
		fromTree, err := GenerateFromDendrogram(vectors, dend, cfg)
		require.NoError(t, err)
		direct, err := Generate(topicPairs, cfg)
		require.NoError(t, err)
		assert.Equal(t, direct, fromTree, "depth %d", depth)
	}

	_, err = GenerateFromDendrogram(vectors[:3], dend, DefaultGenerateConfig())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
	_, err = GenerateFromDendrogram(vectors, nil, DefaultGenerateConfig())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestGenerateTooFewItems(t *testing.T) {
	_, err := Generate([]string{"only one"}, DefaultGenerateConfig())
	assert.True(t, errors.Is(err, internalerr.ErrTooFewItems))
}

func TestGenerateDepthBeyondItems(t *testing.T) {
	gen, err := Generate([]string{"rust memory", "cooking pasta"}, DefaultGenerateConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.NumClusters)
}

func TestLabel(t *testing.T) {
	tax, err := Discover([]string{"élan vital energy"}, DefaultDiscoverConfig())
	require.NoError(t, err)
	require.Len(t, tax.Categories, 1)
	assert.Contains(t, tax.Categories[0].Name, "Élan")
}
