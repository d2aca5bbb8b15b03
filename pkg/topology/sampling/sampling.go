// Package sampling selects reproducible subsets of item indices. Every
// strategy is seeded, returns indices in ascending order, and returns the
// whole population when the requested size is at least its length.
package sampling

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// Strategy names a sampling method.
type Strategy string

const (
	Random     Strategy = "random"
	Stratified Strategy = "stratified"
	Systematic Strategy = "systematic"
	Reservoir  Strategy = "reservoir"
)

// ParseStrategy maps a case-insensitive name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(s)); st {
	case Random, Stratified, Systematic, Reservoir:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown sampling strategy %q (want random, stratified, systematic or reservoir)", internalerr.ErrInvalidInput, s)
}

// Sample dispatches to the named strategy. strata is only consulted by
// Stratified, where it maps stratum key to member indices.
func Sample(strategy Strategy, total, size int, seed uint64, strata map[string][]int) ([]int, error) {
	switch strategy {
	case Random:
		return RandomSample(total, size, seed), nil
	case Systematic:
		return SystematicSample(total, size, seed), nil
	case Reservoir:
		return ReservoirSample(total, size, seed), nil
	case Stratified:
		if strata == nil {
			return nil, fmt.Errorf("%w: stratified sampling needs strata", internalerr.ErrInvalidInput)
		}
		return StratifiedSample(strata, size, seed), nil
	}
	return nil, fmt.Errorf("%w: unknown sampling strategy %q", internalerr.ErrInvalidInput, strategy)
}

// RandomSample picks size distinct indices from [0,total) with a partial
// Fisher-Yates shuffle.
func RandomSample(total, size int, seed uint64) []int {
	if size >= total {
		return identity(total)
	}
	if size <= 0 {
		return []int{}
	}
	idx := identity(total)
	rng := newLCG(seed)
	for i := 0; i < size; i++ {
		j := i + int(rng.next()%uint64(total-i))
		idx[i], idx[j] = idx[j], idx[i]
	}
	idx = idx[:size]
	sort.Ints(idx)
	return idx
}

// SystematicSample takes every k-th index (k = total/size) from a seeded
// fractional offset in [0,k).
func SystematicSample(total, size int, seed uint64) []int {
	if size >= total {
		return identity(total)
	}
	if size <= 0 {
		return []int{}
	}
	k := float64(total) / float64(size)
	rng := newLCG(seed)
	start := float64(rng.next()) / float64(math.MaxUint64) * k

	out := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if idx := int(start + float64(i)*k); idx < total {
			out = append(out, idx)
		}
	}
	return out
}

// StratifiedSample allocates size proportionally across strata, visited in
// key order. Each stratum is randomly sampled with its own derived seed and
// the last stratum absorbs whatever allocation remains.
func StratifiedSample(strata map[string][]int, size int, seed uint64) []int {
	total := 0
	keys := make([]string, 0, len(strata))
	for k, members := range strata {
		total += len(members)
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if size >= total {
		all := make([]int, 0, total)
		for _, k := range keys {
			all = append(all, strata[k]...)
		}
		sort.Ints(all)
		return all
	}

	out := make([]int, 0, size)
	remaining := size
	for i, k := range keys {
		members := strata[k]
		var n int
		if i == len(keys)-1 {
			n = remaining
		} else {
			proportion := float64(len(members)) / float64(total)
			n = min(int(math.Round(proportion*float64(size))), remaining, len(members))
		}
		for _, local := range RandomSample(len(members), n, seed+uint64(i)) {
			out = append(out, members[local])
		}
		remaining = max(remaining-n, 0)
	}

	sort.Ints(out)
	return out
}

// ReservoirSample selects size indices in a single pass (Algorithm R).
func ReservoirSample(total, size int, seed uint64) []int {
	if size >= total {
		return identity(total)
	}
	if size <= 0 {
		return []int{}
	}
	reservoir := identity(size)
	rng := newLCG(seed)
	for i := size; i < total; i++ {
		if j := int(rng.next() % uint64(i+1)); j < size {
			reservoir[j] = i
		}
	}
	sort.Ints(reservoir)
	return reservoir
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// lcg is a 64-bit linear congruential generator with the Numerical Recipes
// constants.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed + 1}
}

func (r *lcg) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}
