package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/topology/internal/records"
	"github.com/cognicore/topology/internal/version"
	"github.com/cognicore/topology/pkg/topology/config"
	"github.com/cognicore/topology/pkg/topology/ops"
)

func newNormalizeURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-url <url>",
		Short: "Print the canonical form of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ops.NormalizeURL(args[0])
			if err != nil {
				return err
			}
			return records.Write(cmd.OutOrStdout(), res, false)
		},
	}
}

func newSimilarityCmd() *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "similarity <a> <b>",
		Short: "Score two strings with edit-distance and n-gram metrics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ops.Similarity(args[0], args[1], metric)
			if err != nil {
				return err
			}
			return records.Write(cmd.OutOrStdout(), res, false)
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", "", "levenshtein, jaro-winkler or cosine (default all)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the artifact cache",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "List cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := e.CacheInfo(cmd.Context())
			if err != nil {
				return err
			}
			return records.Write(cmd.OutOrStdout(), rep, false)
		},
	}

	var kind string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := config.CacheKind(kind)
			if err != nil {
				return err
			}
			e, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := e.CacheClear(cmd.Context(), k)
			if err != nil {
				return err
			}
			return records.Write(cmd.OutOrStdout(), res, false)
		},
	}
	clearCmd.Flags().StringVar(&kind, "kind", "", "Only clear this kind: corpus, dendrogram, taxonomy or fingerprints")

	cmd.AddCommand(info, clearCmd)
	return cmd
}
