package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/internal/version"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/cache/memstore"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

type payload struct {
	Names  []string           `json:"names"`
	Scores map[string]float64 `json:"scores"`
}

func TestParseKind(t *testing.T) {
	for _, k := range cache.Kinds() {
		got, err := cache.ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := cache.ParseKind(" Corpus ")
	require.NoError(t, err)
	assert.Equal(t, cache.KindCorpus, got)

	_, err = cache.ParseKind("embeddings")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestNewMeta(t *testing.T) {
	a := cache.NewMeta(1, 2, 3)
	b := cache.NewMeta(1, 2, 3)

	assert.Len(t, a.ID, 26)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, version.Version, a.Version)
	assert.Equal(t, 3, a.RowCount)
	assert.Zero(t, a.CreatedAt.Nanosecond())
}

func TestIsValid(t *testing.T) {
	m := cache.NewMeta(10, 20, 1)
	assert.True(t, cache.IsValid(m, 10, 20))
	assert.False(t, cache.IsValid(m, 11, 20))
	assert.False(t, cache.IsValid(m, 10, 21))

	m.Version = "0.0.0-other"
	assert.False(t, cache.IsValid(m, 10, 20))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, uint64(0), cache.ContentHash(nil))
	assert.Equal(t, uint64(0), cache.ContentHash([][]string{{}, {}}))

	a := [][]string{{"rust", "ownership"}, {"pasta", "garlic"}}
	b := [][]string{{"pasta", "garlic"}, {"rust", "ownership"}}
	c := [][]string{{"telescope", "galaxy"}, {"nebula", "orbit"}}

	assert.Equal(t, cache.ContentHash(a), cache.ContentHash(a))
	// uniform SimHash ignores order
	assert.Equal(t, cache.ContentHash(a), cache.ContentHash(b))
	assert.NotEqual(t, cache.ContentHash(a), cache.ContentHash(c))
}

func TestExactContentHash(t *testing.T) {
	assert.Equal(t, cache.ExactContentHash([]string{"a", "b"}), cache.ExactContentHash([]string{"a", "b"}))
	assert.NotEqual(t, cache.ExactContentHash([]string{"ab", "c"}), cache.ExactContentHash([]string{"a", "bc"}))
	assert.NotEqual(t, cache.ExactContentHash([]string{"a", "b"}), cache.ExactContentHash([]string{"b", "a"}))
}

func TestArgsHash(t *testing.T) {
	type args struct {
		K       int    `json:"k"`
		Linkage string `json:"linkage"`
	}
	h1, err := cache.ArgsHash(args{K: 15, Linkage: "ward"})
	require.NoError(t, err)
	h2, err := cache.ArgsHash(args{K: 15, Linkage: "ward"})
	require.NoError(t, err)
	h3, err := cache.ArgsHash(args{K: 16, Linkage: "ward"})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)

	m1, err := cache.ArgsHash(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	m2, err := cache.ArgsHash(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	_, err = cache.ArgsHash(make(chan int))
	assert.Error(t, err)
}

func TestCodecRoundTrip(t *testing.T) {
	in := payload{Names: []string{"rust", "cooking"}, Scores: map[string]float64{"rust": 1.5}}
	data, err := cache.Encode(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, cache.Decode(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, cache.Decode([]byte("not zstd"), &out))
}

func TestFetchSave(t *testing.T) {
	ctx := context.Background()
	c := cache.New(memstore.New(), zerolog.Nop())

	_, ok := cache.Fetch[payload](ctx, c, cache.KindTaxonomy, 1, 2)
	assert.False(t, ok)

	in := payload{Names: []string{"a"}}
	c.Save(ctx, cache.KindTaxonomy, 1, 2, 1, in)

	got, ok := cache.Fetch[payload](ctx, c, cache.KindTaxonomy, 1, 2)
	require.True(t, ok)
	assert.Equal(t, in.Names, got.Names)

	_, ok = cache.Fetch[payload](ctx, c, cache.KindTaxonomy, 1, 3)
	assert.False(t, ok)
	_, ok = cache.Fetch[payload](ctx, c, cache.KindCorpus, 1, 2)
	assert.False(t, ok)
}

func TestFetchStaleVersion(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	c := cache.New(st, zerolog.Nop())

	data, err := cache.Encode(payload{Names: []string{"old"}})
	require.NoError(t, err)
	meta := cache.NewMeta(5, 6, 1)
	meta.Version = "0.0.1-ancient"
	require.NoError(t, st.Put(ctx, cache.Artifact{Kind: cache.KindCorpus, Meta: meta, Payload: data}))

	_, ok := cache.Fetch[payload](ctx, c, cache.KindCorpus, 5, 6)
	assert.False(t, ok)
}

func TestFetchCorruptPayload(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	c := cache.New(st, zerolog.Nop())

	require.NoError(t, st.Put(ctx, cache.Artifact{
		Kind:    cache.KindDendrogram,
		Meta:    cache.NewMeta(7, 8, 1),
		Payload: []byte{0x01, 0x02},
	}))

	before := testutil.ToFloat64(metrics.CacheErrorsTotal.WithLabelValues("dendrogram", "decode"))
	_, ok := cache.Fetch[payload](ctx, c, cache.KindDendrogram, 7, 8)
	assert.False(t, ok)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CacheErrorsTotal.WithLabelValues("dendrogram", "decode")))
}

type brokenStore struct{ memstore.Store }

func (*brokenStore) Get(context.Context, cache.Kind, uint64, uint64) (cache.Artifact, bool, error) {
	return cache.Artifact{}, false, internalerr.ErrStoreUnavailable
}

func (*brokenStore) Put(context.Context, cache.Artifact) error {
	return internalerr.ErrStoreUnavailable
}

func TestFailSoft(t *testing.T) {
	ctx := context.Background()
	c := cache.New(&brokenStore{}, zerolog.Nop())

	before := testutil.ToFloat64(metrics.CacheErrorsTotal.WithLabelValues("fingerprints", "put"))
	c.Save(ctx, cache.KindFingerprints, 1, 1, 1, []string{"x"})
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CacheErrorsTotal.WithLabelValues("fingerprints", "put")))

	_, ok := cache.Fetch[[]string](ctx, c, cache.KindFingerprints, 1, 1)
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *cache.Cache
	assert.Nil(t, cache.New(nil, zerolog.Nop()))
	assert.Nil(t, c.Store())

	c.Save(context.Background(), cache.KindCorpus, 1, 1, 1, "x")
	_, ok := cache.Fetch[string](context.Background(), c, cache.KindCorpus, 1, 1)
	assert.False(t, ok)
}
