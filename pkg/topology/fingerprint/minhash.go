package fingerprint

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// DefaultNumPerm is the signature length used when none is given.
const DefaultNumPerm = 128

// MinHasher produces fixed-length MinHash signatures. Every position uses
// its own keyed hash function, derived deterministically from the position.
type MinHasher struct {
	seeds []uint64
}

// NewMinHasher returns a hasher with k hash functions. k <= 0 selects
// DefaultNumPerm.
func NewMinHasher(k int) *MinHasher {
	if k <= 0 {
		k = DefaultNumPerm
	}
	seeds := make([]uint64, k)
	for i := range seeds {
		a := uint64(i)*6364136223846793005 + 1
		b := uint64(i)*1442695040888963407 + 7
		seeds[i] = a ^ bits.RotateLeft64(b, 32)
	}
	return &MinHasher{seeds: seeds}
}

// NumPerm returns the signature length.
func (m *MinHasher) NumPerm() int { return len(m.seeds) }

// Signature returns, per hash function, the minimum hash over tokens.
// Empty input yields a signature of all math.MaxUint64.
func (m *MinHasher) Signature(tokens []string) []uint64 {
	sig := make([]uint64, len(m.seeds))
	for i := range sig {
		sig[i] = math.MaxUint64
	}

	d := xxhash.NewWithSeed(0)
	for _, tok := range tokens {
		for i, seed := range m.seeds {
			d.ResetWithSeed(seed)
			_, _ = d.WriteString(tok)
			if h := d.Sum64(); h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}

// Jaccard estimates set similarity as the fraction of equal positions.
func Jaccard(a, b []uint64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: signature lengths differ (%d vs %d)", internalerr.ErrInvalidInput, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty signature", internalerr.ErrInvalidInput)
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a)), nil
}
