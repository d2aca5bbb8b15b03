package ops

import (
	"context"

	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/internal/parallel"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/fingerprint"
)

// Fingerprint adds a 16-hex-digit SimHash of field to every record. With
// weighted set, tokens are weighted by their TF-IDF in a corpus built over
// the batch; otherwise every occurrence counts equally.
func (e *Engine) Fingerprint(ctx context.Context, rows []Record, field string, weighted bool) ([]Record, error) {
	defer metrics.Stage("fingerprint")()

	out := cloneRows(rows)
	if len(rows) == 0 {
		return out, nil
	}

	b := e.prepare(rows, field)
	args := struct {
		Weighted bool `json:"weighted"`
	}{weighted}
	fits := func(fps []uint64) bool { return len(fps) == len(rows) }

	fps, err := cached(ctx, e, cache.KindFingerprints, b, args, fits, func() ([]uint64, error) {
		return e.fingerprints(ctx, b, weighted)
	})
	if err != nil {
		return nil, err
	}

	for i, fp := range fps {
		out[i][FieldFingerprint] = fingerprint.ToHex(fp)
	}
	e.log.Debug().Int("rows", len(rows)).Bool("weighted", weighted).Msg("fingerprinted records")
	return out, nil
}

func (e *Engine) fingerprints(ctx context.Context, b batch, weighted bool) ([]uint64, error) {
	fps := make([]uint64, len(b.tokens))
	if !weighted {
		parallel.For(len(b.tokens), func(i int) {
			fps[i] = fingerprint.SimHashUniform(b.tokens[i])
		})
		return fps, nil
	}

	c, err := e.corpusFor(ctx, b)
	if err != nil {
		return nil, err
	}
	parallel.For(len(b.tokens), func(i int) {
		fps[i] = fingerprint.SimHash(b.tokens[i], c.TokenWeights(b.tokens[i]))
	})
	return fps, nil
}
