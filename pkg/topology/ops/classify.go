package ops

import (
	"context"

	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/taxonomy"
)

// Discover clusters the batch into a flat taxonomy. The result is cached
// under the taxonomy kind.
func (e *Engine) Discover(ctx context.Context, rows []Record, field string, cfg taxonomy.DiscoverConfig) (*taxonomy.Taxonomy, error) {
	defer metrics.Stage("discover")()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return e.discover(ctx, e.prepare(rows, field), cfg)
}

func (e *Engine) discover(ctx context.Context, b batch, cfg taxonomy.DiscoverConfig) (*taxonomy.Taxonomy, error) {
	fits := func(t *taxonomy.Taxonomy) bool { return t != nil }
	return cached(ctx, e, cache.KindTaxonomy, b, cfg, fits, func() (*taxonomy.Taxonomy, error) {
		tax, err := taxonomy.DiscoverTokens(b.tokens, cfg)
		if err != nil {
			return nil, err
		}
		e.log.Info().
			Int("rows", len(b.tokens)).
			Int("categories", len(tax.Categories)).
			Msg("discovered taxonomy")
		return tax, nil
	})
}

// Classify labels every record with its best-matching category. With tax
// nil a taxonomy is first discovered from the batch itself using cfg.
// Records scoring below threshold get taxonomy.Uncategorized and zero
// confidence.
func (e *Engine) Classify(ctx context.Context, rows []Record, field string, tax *taxonomy.Taxonomy, cfg taxonomy.DiscoverConfig, threshold float64) ([]Record, error) {
	defer metrics.Stage("classify")()

	if tax == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	out := cloneRows(rows)
	if len(rows) == 0 {
		return out, nil
	}

	b := e.prepare(rows, field)
	if tax == nil {
		var err error
		if tax, err = e.discover(ctx, b, cfg); err != nil {
			return nil, err
		}
	}

	for i, c := range taxonomy.ClassifyTokens(b.tokens, tax, threshold) {
		out[i][FieldCategory] = c.Category
		out[i][FieldHierarchy] = c.Path
		out[i][FieldConfidence] = c.Confidence
	}
	return out, nil
}

// Tags adds the count highest TF-IDF terms of each record as _tags.
func (e *Engine) Tags(ctx context.Context, rows []Record, field string, count int) ([]Record, error) {
	defer metrics.Stage("tags")()

	out := cloneRows(rows)
	if len(rows) == 0 {
		return out, nil
	}

	c, err := e.corpusFor(ctx, e.prepare(rows, field))
	if err != nil {
		return nil, err
	}
	for i := range out {
		top := c.TopTerms(i, count)
		tags := make([]string, len(top))
		for j, tw := range top {
			tags[j] = tw.Term
		}
		out[i][FieldTags] = tags
	}
	return out, nil
}
