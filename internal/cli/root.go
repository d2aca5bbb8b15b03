package cli

import (
	"github.com/spf13/cobra"
)

const rootLongDesc string = `Topology finds structure in batches of JSON records.

Records are read as a JSON array or JSON Lines from a file argument or
stdin, and results are written to stdout as JSON. Operations:
  topology fingerprint   Add SimHash content fingerprints
  topology sample        Select a reproducible subset
  topology analyze       Summarize fields
  topology discover      Cluster records into a flat taxonomy
  topology classify      Label records with taxonomy categories
  topology tags          Add per-record TF-IDF tags
  topology dedup         Group duplicate records
  topology generate      Build a taxonomy over every record with HAC
  topology topics        Extract NMF topics
  topology organize      Assign output paths from categories

Configuration is read from --config (YAML) and may be overridden with
TOPOLOGY_* environment variables (TOPOLOGY_TEXT_FIELD, TOPOLOGY_CACHE_PATH,
TOPOLOGY_LOGGING_LEVEL, ...) and flags.`

const rootShortDesc string = "Topology - content similarity and taxonomy discovery"

// NewRootCmd builds the topology command tree.
func NewRootCmd() *cobra.Command {
	a := newApp()

	cmd := &cobra.Command{
		Use:           "topology",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Path to a YAML config file")
	pf.StringP("field", "f", "", `Record field holding the text (default "content")`)
	pf.Bool("strip-html", false, "Strip HTML markup before tokenizing")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("log-pretty", false, "Write human-readable logs")
	pf.String("cache", "", "Path to the SQLite artifact cache; setting it enables caching")
	pf.Bool("no-cache", false, "Disable the artifact cache")
	pf.Bool("lines", false, "Write records as JSON Lines instead of an indented array")
	pf.String("metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	cmd.AddCommand(
		newFingerprintCmd(a),
		newSampleCmd(a),
		newAnalyzeCmd(a),
		newDiscoverCmd(a),
		newClassifyCmd(a),
		newTagsCmd(a),
		newDedupCmd(a),
		newGenerateCmd(a),
		newTopicsCmd(a),
		newOrganizeCmd(a),
		newNormalizeURLCmd(),
		newSimilarityCmd(),
		newCacheCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// The flag helpers copy a flag into dst only when the user set it, so
// config values survive unchanged flags.

func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func uint64Flag(cmd *cobra.Command, name string, dst *uint64) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetUint64(name)
	}
}

func floatFlag(cmd *cobra.Command, name string, dst *float64) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}
