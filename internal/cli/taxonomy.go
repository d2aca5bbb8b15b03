package cli

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/topology/pkg/topology/cluster"
	"github.com/cognicore/topology/pkg/topology/ops"
	"github.com/cognicore/topology/pkg/topology/taxonomy"
)

func newDiscoverCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "discover [file]",
		Short: "Cluster records into a flat taxonomy",
		Long: `Discover samples the batch, clusters it with agglomerative clustering
and names each cluster after its top terms. With --output the taxonomy is
saved as YAML (.yaml, .yml) or JSON and can be passed to classify.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := discoverConfig(cmd, a)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			tax, err := e.Discover(cmd.Context(), rows, a.cfg.Text.Field, cfg)
			if err != nil {
				return err
			}
			if output != "" {
				if err := tax.Save(output); err != nil {
					return err
				}
				a.log.Info().Str("path", output).Int("categories", len(tax.Categories)).Msg("taxonomy saved")
				return nil
			}
			return a.write(cmd, tax)
		},
	}
	addDiscoverFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save the taxonomy to this file instead of stdout")
	return cmd
}

func newClassifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Label records with their best-matching taxonomy category",
		Long: `Classify scores every record against each category's keywords with BM25.
Without --taxonomy a taxonomy is first discovered from the batch itself.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := a.cfg.Classify
			stringFlag(cmd, "taxonomy", &cc.TaxonomyFile)
			floatFlag(cmd, "threshold", &cc.Threshold)
			cfg := discoverConfig(cmd, a)

			var tax *taxonomy.Taxonomy
			if cc.TaxonomyFile != "" {
				var err error
				if tax, err = taxonomy.Load(cc.TaxonomyFile); err != nil {
					return err
				}
			}

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			out, err := e.Classify(cmd.Context(), rows, a.cfg.Text.Field, tax, cfg, cc.Threshold)
			if err != nil {
				return err
			}
			return a.write(cmd, out)
		},
	}
	addDiscoverFlags(cmd)
	cmd.Flags().StringP("taxonomy", "t", "", "Taxonomy file (YAML or JSON)")
	cmd.Flags().Float64("threshold", 0, "Minimum BM25 score for a category match")
	return cmd
}

func addDiscoverFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("k", "k", 0, "Number of clusters")
	cmd.Flags().Int("sample-size", 0, "Maximum records clustered")
	cmd.Flags().String("linkage", "", "ward, average, complete or single")
}

func discoverConfig(cmd *cobra.Command, a *app) taxonomy.DiscoverConfig {
	cfg := a.cfg.Discovery
	intFlag(cmd, "k", &cfg.K)
	intFlag(cmd, "sample-size", &cfg.SampleSize)
	linkage := string(cfg.Linkage)
	stringFlag(cmd, "linkage", &linkage)
	cfg.Linkage = cluster.Linkage(linkage)
	return cfg
}

func newGenerateCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Build a taxonomy over every record with hierarchical clustering",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Generate
			intFlag(cmd, "depth", &cfg.Depth)
			intFlag(cmd, "top-terms", &cfg.TopN)
			linkage := string(cfg.Linkage)
			stringFlag(cmd, "linkage", &linkage)
			cfg.Linkage = cluster.Linkage(linkage)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := e.Generate(cmd.Context(), rows, a.cfg.Text.Field, cfg)
			if err != nil {
				return err
			}
			return writeFile(cmd.OutOrStdout(), output, gen)
		},
	}
	cmd.Flags().Int("depth", 0, "Maximum number of clusters")
	cmd.Flags().Int("top-terms", 0, "Keywords per cluster")
	cmd.Flags().String("linkage", "", "ward, average, complete or single")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the taxonomy to this file instead of stdout")
	return cmd
}

func newTopicsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics [file]",
		Short: "Extract topics with non-negative matrix factorization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := a.cfg.Topics
			intFlag(cmd, "k", &tc.K)
			intFlag(cmd, "terms", &tc.Terms)
			intFlag(cmd, "max-iter", &tc.MaxIter)
			intFlag(cmd, "vocab-limit", &tc.VocabLimit)

			rows, err := a.readRecords(cmd, args)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := e.Topics(cmd.Context(), rows, a.cfg.Text.Field, ops.TopicsOptions{
				K:          tc.K,
				Terms:      tc.Terms,
				MaxIter:    tc.MaxIter,
				VocabLimit: tc.VocabLimit,
			})
			if err != nil {
				return err
			}
			return a.write(cmd, res)
		},
	}
	cmd.Flags().IntP("k", "k", 0, "Number of topics")
	cmd.Flags().Int("terms", 0, "Terms listed per topic")
	cmd.Flags().Int("max-iter", 0, "NMF iterations")
	cmd.Flags().Int("vocab-limit", 0, "Vocabulary size by document frequency")
	return cmd
}
