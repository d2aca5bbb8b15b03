package ops

import (
	"github.com/cognicore/topology/pkg/topology/strsim"
	"github.com/cognicore/topology/pkg/topology/urlnorm"
)

// URLResult is the output of NormalizeURL.
type URLResult struct {
	Original     string `json:"original"`
	Normalized   string `json:"normalized"`
	CanonicalKey string `json:"canonical_key"`
}

// NormalizeURL canonicalizes a single URL. Unlike batch dedup, an
// unparsable URL is an error.
func NormalizeURL(raw string) (URLResult, error) {
	normalized, err := urlnorm.Normalize(raw)
	if err != nil {
		return URLResult{}, err
	}
	key, err := urlnorm.CanonicalKey(raw)
	if err != nil {
		return URLResult{}, err
	}
	return URLResult{Original: raw, Normalized: normalized, CanonicalKey: key}, nil
}

// SimilarityResult is the output of Similarity. Scores holds one entry
// per computed metric.
type SimilarityResult struct {
	A      string             `json:"a"`
	B      string             `json:"b"`
	Scores map[string]float64 `json:"scores"`
}

// Similarity scores a against b under metric, or under every metric when
// metric is empty.
func Similarity(a, b, metric string) (SimilarityResult, error) {
	res := SimilarityResult{A: a, B: b, Scores: make(map[string]float64)}
	if metric == "" {
		for m, s := range strsim.All(a, b) {
			res.Scores[string(m)] = s
		}
		return res, nil
	}

	m, err := strsim.ParseMetric(metric)
	if err != nil {
		return SimilarityResult{}, err
	}
	s, err := strsim.Similarity(a, b, m)
	if err != nil {
		return SimilarityResult{}, err
	}
	res.Scores[string(m)] = s
	return res, nil
}
