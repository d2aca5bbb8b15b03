package cluster

import (
	"math"
	"sort"

	"github.com/cognicore/topology/internal/parallel"
)

type sparseVec struct {
	terms   []string
	weights []float64
	norm    float64
}

func toSparse(v map[string]float64) sparseVec {
	terms := make([]string, 0, len(v))
	for t := range v {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	sv := sparseVec{terms: terms, weights: make([]float64, len(terms))}
	var sq float64
	for i, t := range terms {
		w := v[t]
		sv.weights[i] = w
		sq += w * w
	}
	sv.norm = math.Sqrt(sq)
	return sv
}

func dot(a, b sparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i] == b.terms[j]:
			sum += a.weights[i] * b.weights[j]
			i++
			j++
		case a.terms[i] < b.terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// CosineDistanceMatrix returns the condensed 1 - cosine similarity matrix of
// sparse term vectors. A vector with zero norm has similarity 0 to every
// other vector. Fewer than two vectors yield an empty matrix.
func CosineDistanceMatrix(vectors []map[string]float64) []float64 {
	n := len(vectors)
	if n <= 1 {
		return []float64{}
	}

	sparse := make([]sparseVec, n)
	parallel.For(n, func(i int) {
		sparse[i] = toSparse(vectors[i])
	})

	out := make([]float64, n*(n-1)/2)
	parallel.For(n-1, func(i int) {
		for j := i + 1; j < n; j++ {
			var sim float64
			if sparse[i].norm > 0 && sparse[j].norm > 0 {
				sim = dot(sparse[i], sparse[j]) / (sparse[i].norm * sparse[j].norm)
			}
			out[CondensedIndex(i, j, n)] = 1 - sim
		}
	})
	return out
}
