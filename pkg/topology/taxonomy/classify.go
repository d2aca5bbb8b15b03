package taxonomy

import (
	"github.com/cognicore/topology/internal/parallel"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/ingest"
)

// Uncategorized is assigned when no category scores above the threshold.
const Uncategorized = "Uncategorized"

// Classification is the best category for one text.
type Classification struct {
	Category   string  `json:"category"`
	Path       string  `json:"path"`
	Confidence float64 `json:"confidence"`
}

// Classify tokenizes texts with the default tokenizer and runs
// ClassifyTokens.
func Classify(texts []string, tax *Taxonomy, threshold float64) []Classification {
	return ClassifyTokens(ingest.TokenizeAll(texts), tax, threshold)
}

// ClassifyTokens scores every document against every flattened category
// with BM25, treating each category's keyword list as a document. The
// first category in flatten order with the strictly highest positive score
// wins; a winner below threshold yields Uncategorized with confidence 0.
func ClassifyTokens(tokenLists [][]string, tax *Taxonomy, threshold float64) []Classification {
	flat := tax.Flatten()
	keywordDocs := make([][]string, len(flat))
	for i, f := range flat {
		keywordDocs[i] = f.Keywords
	}
	c := corpus.FromTokens(keywordDocs)

	out := make([]Classification, len(tokenLists))
	parallel.For(len(tokenLists), func(i int) {
		best, bestScore := -1, 0.0
		for doc := range flat {
			if score := c.BM25Score(doc, tokenLists[i]); score > bestScore {
				best, bestScore = doc, score
			}
		}
		if best < 0 || bestScore < threshold {
			out[i] = Classification{Category: Uncategorized, Path: Uncategorized}
			return
		}
		out[i] = Classification{
			Category:   flat[best].Leaf(),
			Path:       flat[best].Path,
			Confidence: bestScore,
		}
	})
	return out
}
