package cli

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/topology/pkg/topology/dedup"
	"github.com/cognicore/topology/pkg/topology/ops"
	"github.com/cognicore/topology/pkg/topology/sampling"
)

func newFingerprintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint [file]",
		Short: "Add a 64-bit SimHash fingerprint to every record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weighted := a.cfg.Fingerprint.Weighted
			boolFlag(cmd, "weighted", &weighted)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Fingerprint(cmd.Context(), rows, a.cfg.Text.Field, weighted)
			if err != nil {
				return err
			}
			return a.write(cmd, out)
		},
	}
	cmd.Flags().Bool("weighted", false, "Weight tokens by batch TF-IDF")
	return cmd
}

func newSampleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample [file]",
		Short: "Select a reproducible subset of records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Sampling
			strategy := string(sc.Strategy)
			stringFlag(cmd, "strategy", &strategy)
			intFlag(cmd, "size", &sc.Size)
			uint64Flag(cmd, "seed", &sc.Seed)
			stringFlag(cmd, "stratify-field", &sc.StratifyField)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Sample(rows, ops.SampleOptions{
				Size:     sc.Size,
				Strategy: sampling.Strategy(strategy),
				Field:    sc.StratifyField,
				Seed:     sc.Seed,
			})
			if err != nil {
				return err
			}
			a.log.Info().Int("input", len(rows)).Int("sampled", len(out)).Str("strategy", strategy).Msg("sampled records")
			return a.write(cmd, out)
		},
	}
	cmd.Flags().String("strategy", "", "random, stratified, systematic or reservoir")
	cmd.Flags().IntP("size", "n", 0, "Number of records to keep")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().String("stratify-field", "", "Field to stratify on")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Summarize record fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			return a.write(cmd, e.Analyze(rows, column))
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Analyze only this field (default all fields of the first record)")
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags [file]",
		Short: "Add the top TF-IDF terms of each record as tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := a.cfg.Tags.Count
			intFlag(cmd, "count", &count)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Tags(cmd.Context(), rows, a.cfg.Text.Field, count)
			if err != nil {
				return err
			}
			return a.write(cmd, out)
		},
	}
	cmd.Flags().IntP("count", "n", 0, "Tags per record")
	return cmd
}

func newDedupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup [file]",
		Short: "Group duplicate records by canonical URL and content similarity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc := a.cfg.Dedup
			strategy := string(dc.Strategy)
			stringFlag(cmd, "strategy", &strategy)
			intFlag(cmd, "threshold", &dc.Threshold)
			urlField := a.cfg.Text.URLField
			stringFlag(cmd, "url-field", &urlField)

			st, err := dedup.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Dedup(rows, a.cfg.Text.Field, urlField, st, dc.Threshold)
			if err != nil {
				return err
			}
			return a.write(cmd, out)
		},
	}
	cmd.Flags().String("strategy", "", "url, fuzzy or combined")
	cmd.Flags().Int("threshold", 0, "Maximum Hamming distance for fuzzy duplicates")
	cmd.Flags().String("url-field", "", `Record field holding the URL (default "url")`)
	return cmd
}

func newOrganizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize [file]",
		Short: "Assign every record an output path from its category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oc := a.cfg.Organize
			stringFlag(cmd, "format", &oc.Format)
			stringFlag(cmd, "output-dir", &oc.OutputDir)
			stringFlag(cmd, "category-field", &oc.CategoryField)
			stringFlag(cmd, "name-field", &oc.NameField)

			layout, err := ops.ParseLayout(oc.Format)
			if err != nil {
				return err
			}
			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Organize(rows, ops.OrganizeOptions{
				Layout:        layout,
				OutputDir:     oc.OutputDir,
				CategoryField: oc.CategoryField,
				NameField:     oc.NameField,
			})
			if err != nil {
				return err
			}
			return a.write(cmd, out)
		},
	}
	cmd.Flags().String("format", "", "folders, flat or nested")
	cmd.Flags().StringP("output-dir", "o", "", "Root directory of the output paths")
	cmd.Flags().String("category-field", "", "Field holding the category")
	cmd.Flags().String("name-field", "", "Field naming each record")
	return cmd
}
