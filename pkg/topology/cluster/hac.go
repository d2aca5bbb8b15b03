// Package cluster implements hierarchical agglomerative clustering over
// condensed distance matrices.
//
// HAC keeps a full n×n working matrix and scans it for the closest active
// pair on every step, which is O(n³) time and O(n²) memory. Callers are
// expected to sample large inputs down before clustering.
package cluster

import (
	"fmt"
	"math"
	"strings"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// Linkage selects the Lance–Williams update rule.
type Linkage string

const (
	Single   Linkage = "single"
	Complete Linkage = "complete"
	Average  Linkage = "average"
	Ward     Linkage = "ward"
)

// ParseLinkage maps a case-insensitive name to a Linkage.
func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(strings.ToLower(s)); l {
	case Single, Complete, Average, Ward:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown linkage %q (want single, complete, average or ward)", internalerr.ErrInvalidInput, s)
}

// Merge is one step of the dendrogram. Cluster ids below N are leaves;
// the merge at position m creates id N+m.
type Merge struct {
	A        int     `json:"cluster_a"`
	B        int     `json:"cluster_b"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Dendrogram records the n-1 merges of a clustering over N leaves.
// Merge distances are not guaranteed to be monotonic.
type Dendrogram struct {
	Merges []Merge `json:"merges"`
	N      int     `json:"n"`
}

// CondensedIndex returns the position of pair (i, j), i < j, in a condensed
// upper-triangular matrix over n items.
func CondensedIndex(i, j, n int) int {
	return i*n - i*(i+1)/2 + j - i - 1
}

// HAC clusters n items given their condensed pairwise distances.
// Among equal minimum distances the pair scanned first in row-major order
// (lowest i, then lowest j) is merged.
func HAC(distances []float64, n int, linkage Linkage) (*Dendrogram, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: clustering needs at least 2 items, got %d", internalerr.ErrTooFewItems, n)
	}
	if want := n * (n - 1) / 2; len(distances) != want {
		return nil, fmt.Errorf("%w: expected %d condensed distances for %d items, got %d", internalerr.ErrInvalidInput, want, n, len(distances))
	}
	update, err := updateRule(linkage)
	if err != nil {
		return nil, err
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := distances[CondensedIndex(i, j, n)]
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	sizes := make([]int, n)
	ids := make([]int, n)
	for i := range active {
		active[i] = true
		sizes[i] = 1
		ids[i] = i
	}

	merges := make([]Merge, 0, n-1)
	nextID := n
	for step := 0; step < n-1; step++ {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if bi < 0 || dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}

		size := sizes[bi] + sizes[bj]
		merges = append(merges, Merge{A: ids[bi], B: ids[bj], Distance: best, Size: size})

		ni, nj := float64(sizes[bi]), float64(sizes[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			d := update(dist[bi][k], dist[bj][k], best, ni, nj, float64(sizes[k]))
			dist[bi][k] = d
			dist[k][bi] = d
		}

		active[bj] = false
		sizes[bi] = size
		ids[bi] = nextID
		nextID++
	}

	return &Dendrogram{Merges: merges, N: n}, nil
}

type lanceWilliams func(dik, djk, dij, ni, nj, nk float64) float64

func updateRule(l Linkage) (lanceWilliams, error) {
	switch l {
	case Single:
		return func(dik, djk, _, _, _, _ float64) float64 {
			return math.Min(dik, djk)
		}, nil
	case Complete:
		return func(dik, djk, _, _, _, _ float64) float64 {
			return math.Max(dik, djk)
		}, nil
	case Average:
		return func(dik, djk, _, ni, nj, _ float64) float64 {
			return (ni*dik + nj*djk) / (ni + nj)
		}, nil
	case Ward:
		return func(dik, djk, dij, ni, nj, nk float64) float64 {
			return ((ni+nk)*dik + (nj+nk)*djk - nk*dij) / (ni + nj + nk)
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown linkage %q", internalerr.ErrInvalidInput, l)
}

// CutTree applies the first N-k merges and labels each leaf by its
// resulting cluster. Labels are 0..k-1, assigned in order of first
// appearance by leaf index. k >= N labels every leaf separately.
func CutTree(d *Dendrogram, k int) []int {
	n := d.N
	labels := make([]int, n)
	if k >= n {
		for i := range labels {
			labels[i] = i
		}
		return labels
	}

	numMerges := min(max(n-k, 0), len(d.Merges))
	parent := make([]int, n+numMerges)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for m, merge := range d.Merges[:numMerges] {
		id := n + m
		parent[find(merge.A)] = id
		parent[find(merge.B)] = id
	}

	next := 0
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(i)
		label, ok := seen[root]
		if !ok {
			label = next
			seen[root] = label
			next++
		}
		labels[i] = label
	}
	return labels
}
