package ops

import (
	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/pkg/topology/dedup"
)

// Dedup marks duplicate records with _dup_group and _is_primary. URLs are
// read from urlField; records whose URL is missing or unparsable give no
// URL signal.
func (e *Engine) Dedup(rows []Record, field, urlField string, strategy dedup.Strategy, threshold int) ([]Record, error) {
	defer metrics.Stage("dedup")()

	urls := make([]string, len(rows))
	for i, r := range rows {
		if s, ok := r[urlField].(string); ok {
			urls[i] = s
		}
	}

	groups, err := dedup.Run(e.texts(rows, field), urls, dedup.Options{
		Strategy:  strategy,
		Threshold: threshold,
		Tokenizer: e.tok,
	})
	if err != nil {
		return nil, err
	}

	out := cloneRows(rows)
	dups := 0
	for i, g := range groups {
		out[i][FieldDupGroup] = g.Group
		out[i][FieldIsPrimary] = g.IsPrimary
		if !g.IsPrimary {
			dups++
		}
	}
	e.log.Debug().Int("rows", len(rows)).Int("duplicates", dups).Str("strategy", string(strategy)).Msg("dedup done")
	return out, nil
}
