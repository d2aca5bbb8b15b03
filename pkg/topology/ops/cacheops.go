package ops

import (
	"context"
	"fmt"

	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// CacheReport describes the artifact cache.
type CacheReport struct {
	Artifacts []cache.Info `json:"artifacts"`
	// Counts is the number of artifacts per kind, including empty kinds.
	Counts       map[cache.Kind]int `json:"counts"`
	PayloadBytes int64              `json:"payload_bytes"`
	SizeBytes    int64              `json:"size_bytes"`
}

// CacheInfo lists cached artifacts, newest first, with storage totals.
func (e *Engine) CacheInfo(ctx context.Context) (*CacheReport, error) {
	st := e.cache.Store()
	if st == nil {
		return nil, fmt.Errorf("%w: no cache configured", internalerr.ErrStoreUnavailable)
	}

	infos, err := st.Info(ctx)
	if err != nil {
		return nil, err
	}
	size, err := st.SizeBytes(ctx)
	if err != nil {
		return nil, err
	}

	rep := &CacheReport{
		Artifacts: infos,
		Counts:    make(map[cache.Kind]int),
		SizeBytes: size,
	}
	if rep.Artifacts == nil {
		rep.Artifacts = []cache.Info{}
	}
	for _, k := range cache.Kinds() {
		rep.Counts[k] = 0
	}
	for _, info := range infos {
		rep.Counts[info.Kind]++
		rep.PayloadBytes += info.SizeBytes
	}
	return rep, nil
}

// CacheCleared reports a CacheClear.
type CacheCleared struct {
	Kind    string `json:"kind"`
	Removed int64  `json:"removed"`
}

// CacheClear removes artifacts of kind, or all of them when kind is nil.
func (e *Engine) CacheClear(ctx context.Context, kind *cache.Kind) (CacheCleared, error) {
	st := e.cache.Store()
	if st == nil {
		return CacheCleared{}, fmt.Errorf("%w: no cache configured", internalerr.ErrStoreUnavailable)
	}

	n, err := st.Invalidate(ctx, kind)
	if err != nil {
		return CacheCleared{}, err
	}
	res := CacheCleared{Kind: "all", Removed: n}
	if kind != nil {
		res.Kind = string(*kind)
	}
	e.log.Info().Str("kind", res.Kind).Int64("removed", n).Msg("cache cleared")
	return res, nil
}
