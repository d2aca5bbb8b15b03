package fingerprint

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const simhashBits = 64

// SimHash computes a 64-bit fingerprint from tokens. Each token's hash adds
// its weight to the accumulator of every set bit and subtracts it from every
// clear bit; the fingerprint has bit i set iff accumulator i ends positive.
// Tokens missing from weights count as 1.0. Empty input yields 0.
func SimHash(tokens []string, weights map[string]float64) uint64 {
	var acc [simhashBits]float64

	for _, tok := range tokens {
		w, ok := weights[tok]
		if !ok {
			w = 1.0
		}
		h := xxhash.Sum64String(tok)
		for i := 0; i < simhashBits; i++ {
			if (h>>i)&1 == 1 {
				acc[i] += w
			} else {
				acc[i] -= w
			}
		}
	}

	var fp uint64
	for i := 0; i < simhashBits; i++ {
		if acc[i] > 0 {
			fp |= 1 << i
		}
	}
	return fp
}

// SimHashUniform is SimHash with every token weighted 1.0.
func SimHashUniform(tokens []string) uint64 {
	return SimHash(tokens, nil)
}

// Hamming returns the number of differing bits between two fingerprints.
func Hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// IsNearDuplicate reports whether Hamming(a, b) <= threshold.
func IsNearDuplicate(a, b uint64, threshold int) bool {
	return Hamming(a, b) <= threshold
}

// ToHex formats a fingerprint as 16 lowercase hex characters.
func ToHex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

// FromHex parses a hex fingerprint written by ToHex.
func FromHex(s string) (uint64, error) {
	fp, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", s, err)
	}
	return fp, nil
}
