package ops

import (
	"sort"

	json "github.com/goccy/go-json"

	"github.com/cognicore/topology/internal/metrics"
)

// Analysis summarizes a batch column by column.
type Analysis struct {
	TotalRows  int                     `json:"total_rows"`
	Columns    []string                `json:"columns"`
	NumColumns int                     `json:"num_columns"`
	Fields     map[string]FieldSummary `json:"fields"`
}

// FieldSummary holds the statistics of one column. Lengths are measured
// in bytes of the value's text form (strings as-is, other values as
// JSON).
type FieldSummary struct {
	NonNull     int          `json:"non_null"`
	NullCount   int          `json:"null_count"`
	Cardinality int          `json:"cardinality"`
	Uniqueness  float64      `json:"uniqueness"`
	AvgLength   float64      `json:"avg_length"`
	MinLength   int          `json:"min_length"`
	MaxLength   int          `json:"max_length"`
	Types       []TypeCount  `json:"types"`
	TopValues   []ValueCount `json:"top_values"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

const topValues = 5

// Analyze reports per-field statistics. With field empty every key of
// the first record is analyzed, in sorted order.
func (e *Engine) Analyze(rows []Record, field string) Analysis {
	defer metrics.Stage("analyze")()

	if len(rows) == 0 {
		return Analysis{Columns: []string{}, Fields: map[string]FieldSummary{}}
	}

	var columns []string
	if field != "" {
		columns = []string{field}
	} else {
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	fields := make(map[string]FieldSummary, len(columns))
	for _, col := range columns {
		fields[col] = summarize(rows, col)
	}
	return Analysis{
		TotalRows:  len(rows),
		Columns:    columns,
		NumColumns: len(columns),
		Fields:     fields,
	}
}

func summarize(rows []Record, col string) FieldSummary {
	var (
		s        FieldSummary
		totalLen int
		types    = make(map[string]int)
		freq     = make(map[string]int)
	)
	s.MinLength = -1

	for _, r := range rows {
		v, ok := r[col]
		if !ok || v == nil {
			s.NullCount++
			continue
		}
		types[typeName(v)]++

		text := textForm(v)
		n := len(text)
		totalLen += n
		if s.MinLength < 0 || n < s.MinLength {
			s.MinLength = n
		}
		s.MaxLength = max(s.MaxLength, n)
		freq[text]++
	}

	s.NonNull = len(rows) - s.NullCount
	if s.MinLength < 0 {
		s.MinLength = 0
	}
	s.Cardinality = len(freq)
	if s.NonNull > 0 {
		s.Uniqueness = float64(s.Cardinality) / float64(s.NonNull)
		s.AvgLength = float64(totalLen) / float64(s.NonNull)
	}

	s.Types = make([]TypeCount, 0, len(types))
	for t, c := range types {
		s.Types = append(s.Types, TypeCount{Type: t, Count: c})
	}
	sort.Slice(s.Types, func(i, j int) bool {
		if s.Types[i].Count != s.Types[j].Count {
			return s.Types[i].Count > s.Types[j].Count
		}
		return s.Types[i].Type < s.Types[j].Type
	})

	s.TopValues = make([]ValueCount, 0, len(freq))
	for v, c := range freq {
		s.TopValues = append(s.TopValues, ValueCount{Value: v, Count: c})
	}
	sort.Slice(s.TopValues, func(i, j int) bool {
		if s.TopValues[i].Count != s.TopValues[j].Count {
			return s.TopValues[i].Count > s.TopValues[j].Count
		}
		return s.TopValues[i].Value < s.TopValues[j].Value
	})
	if len(s.TopValues) > topValues {
		s.TopValues = s.TopValues[:topValues]
	}
	return s
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, float32, int, int64, json.Number:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func textForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
