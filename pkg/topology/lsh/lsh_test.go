package lsh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topology/pkg/topology/fingerprint"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

func TestMinHashIndexIdenticalSignatures(t *testing.T) {
	idx, err := NewMinHashIndex(4, 2)
	require.NoError(t, err)

	sig := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, idx.Insert(0, sig))
	require.NoError(t, idx.Insert(1, sig))

	assert.Equal(t, []Pair{{I: 0, J: 1}}, idx.CandidatePairs())
}

func TestMinHashIndexDisjointSignatures(t *testing.T) {
	idx, err := NewMinHashIndex(4, 2)
	require.NoError(t, err)

	require.NoError(t, idx.Insert(0, []uint64{1, 2, 3, 4, 5, 6, 7, 8}))
	require.NoError(t, idx.Insert(1, []uint64{100, 200, 300, 400, 500, 600, 700, 800}))

	assert.Empty(t, idx.CandidatePairs())
}

func TestMinHashIndexBandKeyedByPosition(t *testing.T) {
	idx, err := NewMinHashIndex(2, 2)
	require.NoError(t, err)

	// same values, but in different bands
	require.NoError(t, idx.Insert(0, []uint64{1, 2, 9, 9}))
	require.NoError(t, idx.Insert(1, []uint64{7, 7, 1, 2}))

	assert.Empty(t, idx.CandidatePairs())
}

func TestMinHashIndexQuery(t *testing.T) {
	idx, err := NewMinHashIndex(4, 2)
	require.NoError(t, err)

	sig := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, idx.Insert(0, sig))
	require.NoError(t, idx.Insert(3, []uint64{1, 2, 0, 0, 0, 0, 0, 0}))

	got, err := idx.Query(sig)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, got)
}

func TestMinHashIndexValidation(t *testing.T) {
	_, err := NewMinHashIndex(0, 4)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	idx, err := NewMinHashIndex(4, 4)
	require.NoError(t, err)
	err = idx.Insert(0, []uint64{1, 2, 3})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
	_, err = idx.Query([]uint64{1})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestMinHashIndexThreshold(t *testing.T) {
	idx, err := NewMinHashIndex(16, 8)
	require.NoError(t, err)
	th := idx.Threshold()
	assert.Greater(t, th, 0.6)
	assert.Less(t, th, 0.8)
}

func TestMinHashIndexWithSignatures(t *testing.T) {
	mh := fingerprint.NewMinHasher(128)
	idx, err := NewMinHashIndex(32, 4)
	require.NoError(t, err)

	base := []string{"rust", "ownership", "borrow", "checker", "lifetime", "trait", "generic", "macro"}
	near := append(append([]string{}, base...), "async")
	far := []string{"garlic", "onion", "saute", "butter", "pasta", "sauce", "basil", "tomato"}

	require.NoError(t, idx.Insert(0, mh.Signature(base)))
	require.NoError(t, idx.Insert(1, mh.Signature(near)))
	require.NoError(t, idx.Insert(2, mh.Signature(far)))

	pairs := idx.CandidatePairs()
	assert.Contains(t, pairs, Pair{I: 0, J: 1})
	assert.NotContains(t, pairs, Pair{I: 0, J: 2})
}

func TestSimHashIndexIdentical(t *testing.T) {
	idx := DefaultSimHashIndex()
	idx.Insert(0, 0xDEADBEEF12345678)
	idx.Insert(1, 0xDEADBEEF12345678)
	assert.Equal(t, []Pair{{I: 0, J: 1}}, idx.CandidatePairs())
}

func TestSimHashIndexNearDuplicate(t *testing.T) {
	idx := DefaultSimHashIndex()
	fp := uint64(0xDEADBEEF12345678)
	idx.Insert(0, fp)
	idx.Insert(1, fp^0x3)

	assert.Contains(t, idx.CandidatePairs(), Pair{I: 0, J: 1})
	assert.Equal(t, []int{0, 1}, idx.Query(fp))
}

func TestSimHashIndexComplement(t *testing.T) {
	idx := DefaultSimHashIndex()
	idx.Insert(0, 0)
	idx.Insert(1, ^uint64(0))
	assert.Empty(t, idx.CandidatePairs())
}

func TestSimHashIndexPairsSorted(t *testing.T) {
	idx := DefaultSimHashIndex()
	for _, id := range []int{5, 2, 9} {
		idx.Insert(id, 42)
	}
	assert.Equal(t, []Pair{{I: 2, J: 5}, {I: 2, J: 9}, {I: 5, J: 9}}, idx.CandidatePairs())
}

func TestNewSimHashIndexValidation(t *testing.T) {
	_, err := NewSimHashIndex(16, 5)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	idx, err := NewSimHashIndex(1, 64)
	require.NoError(t, err)
	idx.Insert(0, 123)
	idx.Insert(1, 123)
	idx.Insert(2, 124)
	assert.Equal(t, []Pair{{I: 0, J: 1}}, idx.CandidatePairs())
}
