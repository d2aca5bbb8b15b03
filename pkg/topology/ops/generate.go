package ops

import (
	"context"
	"fmt"

	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/cluster"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/internalerr"
	"github.com/cognicore/topology/pkg/topology/taxonomy"
	"github.com/cognicore/topology/pkg/topology/topics"
)

// Generate builds a flat taxonomy from the whole batch with HAC. The
// dendrogram is cached per linkage, so regenerating at another depth or
// keyword count reuses the tree.
func (e *Engine) Generate(ctx context.Context, rows []Record, field string, cfg taxonomy.GenerateConfig) (*taxonomy.Generated, error) {
	defer metrics.Stage("generate")()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 items to generate a taxonomy, got %d", internalerr.ErrTooFewItems, len(rows))
	}

	b := e.prepare(rows, field)
	c, err := e.corpusFor(ctx, b)
	if err != nil {
		return nil, err
	}
	vectors := c.TFIDFVectors()

	args := struct {
		Linkage cluster.Linkage `json:"linkage"`
	}{cfg.Linkage}
	fits := func(d *cluster.Dendrogram) bool { return d != nil && d.N == len(vectors) }
	dend, err := cached(ctx, e, cache.KindDendrogram, b, args, fits, func() (*cluster.Dendrogram, error) {
		done := metrics.Stage("hac")
		defer done()
		return cluster.HAC(cluster.CosineDistanceMatrix(vectors), len(vectors), cfg.Linkage)
	})
	if err != nil {
		return nil, err
	}

	return taxonomy.GenerateFromDendrogram(vectors, dend, cfg)
}

// TopicsOptions configures Topics.
type TopicsOptions struct {
	K          int
	Terms      int
	MaxIter    int
	VocabLimit int
}

// Topic is one extracted topic.
type Topic struct {
	ID      int                 `json:"id"`
	Label   string              `json:"label"`
	Size    int                 `json:"size"`
	Terms   []corpus.TermWeight `json:"terms"`
	Members []int               `json:"members"`
}

// TopicAssignment maps a record to its dominant topic.
type TopicAssignment struct {
	Item  int `json:"item"`
	Topic int `json:"topic"`
}

// TopicsResult is the output of Topics.
type TopicsResult struct {
	NumTopics   int               `json:"num_topics"`
	NumItems    int               `json:"num_items"`
	Topics      []Topic           `json:"topics"`
	Assignments []TopicAssignment `json:"assignments"`
}

// Topics factorizes the batch's TF-IDF matrix into opts.K topics and
// assigns each record its dominant topic.
func (e *Engine) Topics(ctx context.Context, rows []Record, field string, opts TopicsOptions) (*TopicsResult, error) {
	defer metrics.Stage("topics")()

	switch {
	case opts.K < 1:
		return nil, fmt.Errorf("%w: topics k must be >= 1, got %d", internalerr.ErrInvalidConfig, opts.K)
	case opts.MaxIter < 0:
		return nil, fmt.Errorf("%w: max iterations must be >= 0, got %d", internalerr.ErrInvalidConfig, opts.MaxIter)
	case opts.VocabLimit < 1:
		return nil, fmt.Errorf("%w: vocabulary limit must be >= 1, got %d", internalerr.ErrInvalidConfig, opts.VocabLimit)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: need at least 1 item for topic modeling", internalerr.ErrTooFewItems)
	}

	c, err := e.corpusFor(ctx, e.prepare(rows, field))
	if err != nil {
		return nil, err
	}
	res := topics.NMF(c.TFIDFVectors(), opts.K, opts.MaxIter, opts.VocabLimit)
	dominant := res.DominantTopics()

	members := make([][]int, opts.K)
	assignments := make([]TopicAssignment, len(dominant))
	for i, t := range dominant {
		members[t] = append(members[t], i)
		assignments[i] = TopicAssignment{Item: i, Topic: t}
	}

	out := &TopicsResult{
		NumTopics:   opts.K,
		NumItems:    len(rows),
		Topics:      make([]Topic, opts.K),
		Assignments: assignments,
	}
	for t := range out.Topics {
		terms := res.TopTerms(t, opts.Terms)
		m := members[t]
		if m == nil {
			m = []int{}
		}
		out.Topics[t] = Topic{
			ID:      t,
			Label:   taxonomy.Label(terms, 3, false),
			Size:    len(m),
			Terms:   terms,
			Members: m,
		}
	}
	return out, nil
}
