// Package config loads the topology configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/dedup"
	"github.com/cognicore/topology/pkg/topology/ingest"
	"github.com/cognicore/topology/pkg/topology/internalerr"
	"github.com/cognicore/topology/pkg/topology/sampling"
	"github.com/cognicore/topology/pkg/topology/taxonomy"
)

// Config is the root configuration.
type Config struct {
	Text        TextConfig              `yaml:"text"`
	Fingerprint FingerprintConfig       `yaml:"fingerprint"`
	Discovery   taxonomy.DiscoverConfig `yaml:"discovery"`
	Generate    taxonomy.GenerateConfig `yaml:"generate"`
	Classify    ClassifyConfig          `yaml:"classify"`
	Dedup       DedupConfig             `yaml:"dedup"`
	Topics      TopicsConfig            `yaml:"topics"`
	Sampling    SamplingConfig          `yaml:"sampling"`
	Tags        TagsConfig              `yaml:"tags"`
	Organize    OrganizeConfig          `yaml:"organize"`
	Cache       CacheConfig             `yaml:"cache"`
	Logging     LoggingConfig           `yaml:"logging"`
}

// TextConfig controls which record fields are read and how text is
// tokenized.
type TextConfig struct {
	Field         string   `yaml:"field"`
	URLField      string   `yaml:"url_field"`
	StripHTML     bool     `yaml:"strip_html"`
	StopwordsFile string   `yaml:"stopwords_file"`
	Stopwords     []string `yaml:"stopwords"`
}

// FingerprintConfig controls SimHash fingerprints.
type FingerprintConfig struct {
	// Weighted uses corpus TF-IDF token weights instead of uniform ones.
	Weighted bool `yaml:"weighted"`
}

// ClassifyConfig controls taxonomy classification.
type ClassifyConfig struct {
	TaxonomyFile string  `yaml:"taxonomy_file"`
	Threshold    float64 `yaml:"threshold"`
}

// DedupConfig controls duplicate grouping.
type DedupConfig struct {
	Strategy  dedup.Strategy `yaml:"strategy"`
	Threshold int            `yaml:"threshold"`
}

// TopicsConfig controls NMF topic extraction.
type TopicsConfig struct {
	K          int `yaml:"k"`
	Terms      int `yaml:"terms"`
	MaxIter    int `yaml:"max_iter"`
	VocabLimit int `yaml:"vocab_limit"`
}

// SamplingConfig controls record sampling.
type SamplingConfig struct {
	Strategy      sampling.Strategy `yaml:"strategy"`
	Size          int               `yaml:"size"`
	Seed          uint64            `yaml:"seed"`
	StratifyField string            `yaml:"stratify_field"`
}

// TagsConfig controls per-record tag extraction.
type TagsConfig struct {
	Count int `yaml:"count"`
}

// OrganizeConfig controls output path assignment.
type OrganizeConfig struct {
	Format        string `yaml:"format"`
	OutputDir     string `yaml:"output_dir"`
	CategoryField string `yaml:"category_field"`
	NameField     string `yaml:"name_field"`
}

// CacheConfig controls the artifact cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// ExactContentHash keys artifacts by an exact hash of the input texts
	// instead of the approximate SimHash of their tokens. Defaults to true.
	ExactContentHash bool `yaml:"exact_content_hash"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a config with every default applied.
func Default() Config {
	return Config{
		Text:      TextConfig{Field: "content", URLField: "url"},
		Discovery: taxonomy.DefaultDiscoverConfig(),
		Generate:  taxonomy.DefaultGenerateConfig(),
		Classify:  ClassifyConfig{Threshold: 0.5},
		Dedup:     DedupConfig{Strategy: dedup.Combined, Threshold: dedup.DefaultThreshold},
		Topics:    TopicsConfig{K: 5, Terms: 10, MaxIter: 200, VocabLimit: 5000},
		Sampling:  SamplingConfig{Strategy: sampling.Random, Size: 100, Seed: 42},
		Tags:      TagsConfig{Count: 5},
		Organize: OrganizeConfig{
			Format:        "folders",
			OutputDir:     "./organized",
			CategoryField: "_category",
			NameField:     "id",
		},
		Cache:   CacheConfig{Path: "topology-cache.db", ExactContentHash: true},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file over Default and validates it. Keys absent
// from the file keep their defaults; explicit values, including zero and
// negative numbers, are kept as written and checked by Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config: %v", internalerr.ErrInvalidConfig, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty string fields, where "" never means anything
// but "unset". Numeric fields are left alone.
func (c *Config) ApplyDefaults() {
	d := Default()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.Text.Field, d.Text.Field)
	fill(&c.Text.URLField, d.Text.URLField)
	fill((*string)(&c.Discovery.Linkage), string(d.Discovery.Linkage))
	fill((*string)(&c.Generate.Linkage), string(d.Generate.Linkage))
	fill((*string)(&c.Dedup.Strategy), string(d.Dedup.Strategy))
	fill((*string)(&c.Sampling.Strategy), string(d.Sampling.Strategy))
	fill(&c.Organize.Format, d.Organize.Format)
	fill(&c.Organize.OutputDir, d.Organize.OutputDir)
	fill(&c.Organize.CategoryField, d.Organize.CategoryField)
	fill(&c.Organize.NameField, d.Organize.NameField)
	fill(&c.Cache.Path, d.Cache.Path)
	fill(&c.Logging.Level, d.Logging.Level)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Generate.Validate(); err != nil {
		return err
	}
	if c.Classify.Threshold < 0 {
		return fmt.Errorf("%w: classify.threshold must be >= 0, got %v", internalerr.ErrInvalidConfig, c.Classify.Threshold)
	}
	if _, err := dedup.ParseStrategy(string(c.Dedup.Strategy)); err != nil {
		return fmt.Errorf("%w: dedup.strategy: %v", internalerr.ErrInvalidConfig, err)
	}
	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 64 {
		return fmt.Errorf("%w: dedup.threshold must be between 0 and 64, got %d", internalerr.ErrInvalidConfig, c.Dedup.Threshold)
	}
	switch {
	case c.Topics.K < 1:
		return fmt.Errorf("%w: topics.k must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Topics.K)
	case c.Topics.Terms < 1:
		return fmt.Errorf("%w: topics.terms must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Topics.Terms)
	case c.Topics.MaxIter < 0:
		return fmt.Errorf("%w: topics.max_iter must be >= 0, got %d", internalerr.ErrInvalidConfig, c.Topics.MaxIter)
	case c.Topics.VocabLimit < 1:
		return fmt.Errorf("%w: topics.vocab_limit must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Topics.VocabLimit)
	case c.Sampling.Size < 1:
		return fmt.Errorf("%w: sampling.size must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Sampling.Size)
	case c.Tags.Count < 1:
		return fmt.Errorf("%w: tags.count must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Tags.Count)
	}
	if _, err := sampling.ParseStrategy(string(c.Sampling.Strategy)); err != nil {
		return fmt.Errorf("%w: sampling.strategy: %v", internalerr.ErrInvalidConfig, err)
	}
	switch c.Organize.Format {
	case "folders", "flat", "nested":
		// ok
	default:
		return fmt.Errorf("%w: organize.format must be folders, flat or nested, got %q", internalerr.ErrInvalidConfig, c.Organize.Format)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("%w: cache.path is required when the cache is enabled", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Tokenizer builds the tokenizer described by the text section: the
// built-in stopwords plus any from Stopwords and StopwordsFile.
func (c *Config) Tokenizer() (*ingest.Tokenizer, error) {
	tok := ingest.DefaultTokenizer()
	for _, w := range c.Text.Stopwords {
		tok.AddStopword(w)
	}
	if c.Text.StopwordsFile != "" {
		sl, err := LoadStoplist(c.Text.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		for _, w := range sl.Terms {
			tok.AddStopword(w)
		}
	}
	return tok, nil
}

// CacheKind is a helper for flags that name a cache kind.
func CacheKind(s string) (*cache.Kind, error) {
	if s == "" {
		return nil, nil
	}
	k, err := cache.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
