package ops

import (
	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/pkg/topology/sampling"
)

// UnknownStratum groups records whose stratify field is empty.
const UnknownStratum = "unknown"

// SampleOptions configures Sample.
type SampleOptions struct {
	Size     int
	Strategy sampling.Strategy
	// Field is the stratify key; required for the stratified strategy.
	Field string
	Seed  uint64
}

// Sample selects up to opts.Size records in the order the strategy yields
// their indices.
func (e *Engine) Sample(rows []Record, opts SampleOptions) ([]Record, error) {
	defer metrics.Stage("sample")()

	strategy, err := sampling.ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	var strata map[string][]int
	if strategy == sampling.Stratified && opts.Field != "" {
		strata = make(map[string][]int)
		for i, r := range rows {
			key := GetText(r, opts.Field)
			if key == "" {
				key = UnknownStratum
			}
			strata[key] = append(strata[key], i)
		}
	}

	idx, err := sampling.Sample(strategy, len(rows), opts.Size, opts.Seed, strata)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(rows) {
			out = append(out, rows[i])
		}
	}
	return cloneRows(out), nil
}
