// Package lsh provides banded locality-sensitive hashing indexes over
// MinHash signatures and SimHash fingerprints. Both are recall-oriented
// candidate filters: callers must re-verify every candidate pair.
package lsh

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

const bandSalt = 0xCAFEBABE

// Pair is an unordered candidate pair with I < J.
type Pair struct {
	I, J int
}

// MinHashIndex buckets MinHash signatures by bands of consecutive rows.
type MinHashIndex struct {
	bands   int
	rows    int
	buckets []map[uint64][]int
}

// NewMinHashIndex creates an index with the given number of bands and rows
// per band.
func NewMinHashIndex(bands, rows int) (*MinHashIndex, error) {
	if bands <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: bands and rows must be positive (got %d, %d)", internalerr.ErrInvalidConfig, bands, rows)
	}
	return &MinHashIndex{
		bands:   bands,
		rows:    rows,
		buckets: newBuckets(bands),
	}, nil
}

// Bands returns the band count.
func (x *MinHashIndex) Bands() int { return x.bands }

// Rows returns the rows per band.
func (x *MinHashIndex) Rows() int { return x.rows }

// Threshold approximates the Jaccard similarity at which a pair becomes a
// candidate with probability 1/2: (1/b)^(1/r).
func (x *MinHashIndex) Threshold() float64 {
	return math.Pow(1/float64(x.bands), 1/float64(x.rows))
}

// Insert adds a signature under id.
func (x *MinHashIndex) Insert(id int, sig []uint64) error {
	if err := x.checkLen(sig); err != nil {
		return err
	}
	for band := 0; band < x.bands; band++ {
		h := x.bandHash(band, sig)
		x.buckets[band][h] = append(x.buckets[band][h], id)
	}
	return nil
}

// Query returns the ids sharing at least one band with sig, ascending.
func (x *MinHashIndex) Query(sig []uint64) ([]int, error) {
	if err := x.checkLen(sig); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	for band := 0; band < x.bands; band++ {
		for _, id := range x.buckets[band][x.bandHash(band, sig)] {
			seen[id] = struct{}{}
		}
	}
	return sortedIDs(seen), nil
}

// CandidatePairs returns every pair co-occurring in some bucket,
// deduplicated and sorted.
func (x *MinHashIndex) CandidatePairs() []Pair {
	return candidatePairs(x.buckets)
}

func (x *MinHashIndex) checkLen(sig []uint64) error {
	if len(sig) < x.bands*x.rows {
		return fmt.Errorf("%w: signature length %d < bands*rows %d", internalerr.ErrInvalidInput, len(sig), x.bands*x.rows)
	}
	return nil
}

func (x *MinHashIndex) bandHash(band int, sig []uint64) uint64 {
	d := xxhash.NewWithSeed(uint64(band) ^ bandSalt)
	var buf [8]byte
	for _, v := range sig[band*x.rows : (band+1)*x.rows] {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// SimHashIndex buckets 64-bit fingerprints by contiguous bit groups.
type SimHashIndex struct {
	bands   int
	bits    int
	buckets []map[uint64][]int
}

// NewSimHashIndex creates an index of bands groups of bitsPerBand bits.
// bands*bitsPerBand must not exceed 64.
func NewSimHashIndex(bands, bitsPerBand int) (*SimHashIndex, error) {
	if bands <= 0 || bitsPerBand <= 0 || bands*bitsPerBand > 64 {
		return nil, fmt.Errorf("%w: need bands*bitsPerBand <= 64 (got %d*%d)", internalerr.ErrInvalidConfig, bands, bitsPerBand)
	}
	return &SimHashIndex{
		bands:   bands,
		bits:    bitsPerBand,
		buckets: newBuckets(bands),
	}, nil
}

// DefaultSimHashIndex splits the fingerprint into 16 bands of 4 bits.
func DefaultSimHashIndex() *SimHashIndex {
	idx, _ := NewSimHashIndex(16, 4)
	return idx
}

// Insert adds a fingerprint under id.
func (x *SimHashIndex) Insert(id int, fp uint64) {
	for band := 0; band < x.bands; band++ {
		v := x.bandValue(fp, band)
		x.buckets[band][v] = append(x.buckets[band][v], id)
	}
}

// Query returns the ids sharing at least one band with fp, ascending.
func (x *SimHashIndex) Query(fp uint64) []int {
	seen := make(map[int]struct{})
	for band := 0; band < x.bands; band++ {
		for _, id := range x.buckets[band][x.bandValue(fp, band)] {
			seen[id] = struct{}{}
		}
	}
	return sortedIDs(seen)
}

// CandidatePairs returns every pair co-occurring in some bucket,
// deduplicated and sorted.
func (x *SimHashIndex) CandidatePairs() []Pair {
	return candidatePairs(x.buckets)
}

func (x *SimHashIndex) bandValue(fp uint64, band int) uint64 {
	mask := uint64(1)<<uint(x.bits) - 1
	return (fp >> uint(band*x.bits)) & mask
}

func newBuckets(n int) []map[uint64][]int {
	b := make([]map[uint64][]int, n)
	for i := range b {
		b[i] = make(map[uint64][]int)
	}
	return b
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func candidatePairs(buckets []map[uint64][]int) []Pair {
	seen := make(map[Pair]struct{})
	for _, bucket := range buckets {
		for _, ids := range bucket {
			if len(ids) < 2 {
				continue
			}
			for i := 0; i < len(ids); i++ {
				for j := i + 1; j < len(ids); j++ {
					a, b := ids[i], ids[j]
					if a == b {
						continue
					}
					if a > b {
						a, b = b, a
					}
					seen[Pair{I: a, J: b}] = struct{}{}
				}
			}
		}
	}

	pairs := make([]Pair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].I != pairs[j].I {
			return pairs[i].I < pairs[j].I
		}
		return pairs[i].J < pairs[j].J
	})
	return pairs
}
