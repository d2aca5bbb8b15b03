// Package ops implements the record-level batch operations shared by every
// front end. Each operation takes records, never mutates them, and returns
// new records or a summary value.
package ops

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cognicore/topology/internal/records"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/corpus"
	"github.com/cognicore/topology/pkg/topology/ingest"
)

// Record is one flat JSON object.
type Record = records.Record

// Output fields added to records.
const (
	FieldFingerprint = "_fingerprint"
	FieldCategory    = "_category"
	FieldHierarchy   = "_hierarchy"
	FieldConfidence  = "_confidence"
	FieldDupGroup    = "_dup_group"
	FieldIsPrimary   = "_is_primary"
	FieldTags        = "_tags"
	FieldOutputPath  = "_output_path"
)

// Options configures an Engine.
type Options struct {
	// Cache may be nil; every operation then computes directly.
	Cache     *cache.Cache
	Logger    zerolog.Logger
	Tokenizer *ingest.Tokenizer
	StripHTML bool
	// ExactContentHash keys artifacts by ExactContentHash instead of the
	// SimHash-based ContentHash.
	ExactContentHash bool
}

// Engine runs operations with a shared tokenizer and artifact cache.
type Engine struct {
	cache     *cache.Cache
	log       zerolog.Logger
	tok       *ingest.Tokenizer
	stripHTML bool
	exactHash bool
	// textSig changes whenever tokenization settings change, so it is
	// part of every artifact's args hash.
	textSig uint64
	group   singleflight.Group
}

// New builds an Engine. A nil Tokenizer selects ingest.DefaultTokenizer.
func New(opts Options) *Engine {
	tok := opts.Tokenizer
	if tok == nil {
		tok = ingest.DefaultTokenizer()
	}

	d := xxhash.New()
	_, _ = d.WriteString(strconv.FormatBool(opts.StripHTML))
	for _, w := range tok.Stopwords() {
		_, _ = d.WriteString("\x00" + w)
	}

	return &Engine{
		cache:     opts.Cache,
		log:       opts.Logger,
		tok:       tok,
		stripHTML: opts.StripHTML,
		exactHash: opts.ExactContentHash,
		textSig:   d.Sum64(),
	}
}

// GetText reads field from rec. Missing and null values read as "";
// numbers and booleans are stringified; other values read as "".
func GetText(rec Record, field string) string {
	switch v := rec[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func (e *Engine) texts(rows []Record, field string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		t := GetText(r, field)
		if e.stripHTML {
			t = ingest.StripHTML(t)
		}
		out[i] = t
	}
	return out
}

// batch is the tokenized form of one operation's input.
type batch struct {
	texts  []string
	tokens [][]string
}

func (e *Engine) prepare(rows []Record, field string) batch {
	texts := e.texts(rows, field)
	return batch{texts: texts, tokens: e.tok.TokenizeAll(texts)}
}

func (e *Engine) contentHash(b batch) uint64 {
	if e.exactHash {
		return cache.ExactContentHash(b.texts)
	}
	return cache.ContentHash(b.tokens)
}

// cloneRows copies every record shallowly so output fields never touch
// the caller's maps.
func cloneRows(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		c := make(Record, len(r)+2)
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// cached returns the artifact of kind for (b, args), computing and storing
// it on a miss. Concurrent identical requests share one computation. A
// loaded artifact that fails fits (e.g. it covers a different number of
// rows) is discarded and recomputed.
func cached[T any](ctx context.Context, e *Engine, kind cache.Kind, b batch, args any, fits func(T) bool, compute func() (T, error)) (T, error) {
	if e.cache == nil {
		return compute()
	}

	argsHash, err := cache.ArgsHash(struct {
		Args    any    `json:"args"`
		TextSig uint64 `json:"text_sig"`
	}{args, e.textSig})
	if err != nil {
		e.log.Warn().Err(err).Str("kind", string(kind)).Msg("uncacheable arguments")
		return compute()
	}
	contentHash := e.contentHash(b)

	if v, ok := cache.Fetch[T](ctx, e.cache, kind, contentHash, argsHash); ok {
		if fits == nil || fits(v) {
			return v, nil
		}
		e.log.Debug().Str("kind", string(kind)).Msg("cached artifact does not fit batch")
	}

	key := fmt.Sprintf("%s/%016x/%016x", kind, contentHash, argsHash)
	v, err, _ := e.group.Do(key, func() (any, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		e.cache.Save(ctx, kind, contentHash, argsHash, len(b.texts), v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// corpusFor builds (or loads) the corpus over the batch.
func (e *Engine) corpusFor(ctx context.Context, b batch) (*corpus.Corpus, error) {
	fits := func(c *corpus.Corpus) bool { return c != nil && c.NumDocs() == len(b.tokens) }
	return cached(ctx, e, cache.KindCorpus, b, struct{}{}, fits, func() (*corpus.Corpus, error) {
		return corpus.FromTokens(b.tokens), nil
	})
}
