// Package cli wires the topology operations to a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognicore/topology/internal/logger"
	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/internal/records"
	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/cache/sqlite"
	"github.com/cognicore/topology/pkg/topology/config"
	"github.com/cognicore/topology/pkg/topology/ops"
)

// EnvPrefix prefixes every environment override, e.g. TOPOLOGY_TEXT_FIELD.
const EnvPrefix = "TOPOLOGY"

// binding maps a persistent flag onto its dotted config key.
type binding struct {
	flag string
	key  string
}

var globalBindings = []binding{
	{flag: "config", key: "config"},
	{flag: "field", key: "text.field"},
	{flag: "strip-html", key: "text.strip_html"},
	{flag: "log-level", key: "logging.level"},
	{flag: "log-pretty", key: "logging.pretty"},
	{flag: "cache", key: "cache.path"},
	{flag: "no-cache", key: "cache.disabled"},
	{flag: "lines", key: "output.lines"},
	{flag: "metrics-file", key: "metrics.file"},
}

// app is the state shared by every command of one invocation.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log zerolog.Logger

	store  cache.Store
	engine *ops.Engine

	lines       bool
	metricsFile string
}

func newApp() *app {
	return &app{v: viper.New(), log: zerolog.Nop()}
}

// setup resolves configuration with precedence flag > env > config file >
// defaults and configures logging. The cache is opened lazily.
func (a *app) setup(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	for _, b := range globalBindings {
		if f := cmd.Flags().Lookup(b.flag); f != nil {
			_ = a.v.BindPFlag(b.key, f)
		}
	}

	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	a.overlayString("text.field", &cfg.Text.Field)
	a.overlayString("text.url_field", &cfg.Text.URLField)
	a.overlayBool("text.strip_html", &cfg.Text.StripHTML)
	a.overlayString("logging.level", &cfg.Logging.Level)
	a.overlayBool("logging.pretty", &cfg.Logging.Pretty)
	a.overlayBool("cache.enabled", &cfg.Cache.Enabled)
	if a.v.IsSet("cache.path") {
		cfg.Cache.Path = a.v.GetString("cache.path")
		cfg.Cache.Enabled = cfg.Cache.Path != ""
	}
	if a.v.GetBool("cache.disabled") {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.lines = a.v.GetBool("output.lines")
	a.metricsFile = a.v.GetString("metrics.file")
	a.log = logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Pretty)
	return nil
}

func (a *app) overlayString(key string, dst *string) {
	if a.v.IsSet(key) {
		*dst = a.v.GetString(key)
	}
}

func (a *app) overlayBool(key string, dst *bool) {
	if a.v.IsSet(key) {
		*dst = a.v.GetBool(key)
	}
}

// Engine returns the operation engine, opening the cache on first use.
// A cache that cannot be opened is logged and skipped.
func (a *app) Engine(ctx context.Context) (*ops.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	tok, err := a.cfg.Tokenizer()
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if a.cfg.Cache.Enabled {
		st, err := sqlite.OpenSQLite(ctx, a.cfg.Cache.Path)
		if err != nil {
			a.log.Warn().Err(err).Str("path", a.cfg.Cache.Path).Msg("cache unavailable, computing without it")
		} else {
			a.store = st
			c = cache.New(st, a.log)
		}
	}

	a.engine = ops.New(ops.Options{
		Cache:            c,
		Logger:           a.log,
		Tokenizer:        tok,
		StripHTML:        a.cfg.Text.StripHTML,
		ExactContentHash: a.cfg.Cache.ExactContentHash,
	})
	return a.engine, nil
}

// close releases the cache and writes metrics when requested.
func (a *app) close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = fmt.Errorf("close cache: %w", err)
		}
		a.store = nil
	}
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, metrics.Registry); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write metrics: %w", err)
		}
	}
	return firstErr
}

// readRecords reads the batch from args[0], or from stdin when no path
// (or "-") is given.
func (a *app) readRecords(cmd *cobra.Command, args []string) ([]records.Record, error) {
	if len(args) == 0 || args[0] == "-" {
		return records.Read(cmd.InOrStdin(), a.log)
	}
	return records.ReadFile(args[0], a.log)
}

func (a *app) write(cmd *cobra.Command, v any) error {
	return records.Write(cmd.OutOrStdout(), v, a.lines)
}

// writeFile writes v as indented JSON to path, or to out when path is "".
func writeFile(out io.Writer, path string, v any) error {
	if path == "" {
		return records.Write(out, v, false)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return records.Write(f, v, false)
}
