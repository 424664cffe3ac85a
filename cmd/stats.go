package cmd

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkSentry/internal/output"
)

func newStatsCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scan analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeStore, err := g.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			snap := a.AnalyticsSnapshot()
			if asJSON {
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			pr := output.NewPrinter(cmd.OutOrStdout(), a.GetSettings().Theme, g.cfg.Analyzer.SafeThreshold)
			pr.Header("Analytics")
			pr.Snapshot(snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print analytics as JSON")
	return cmd
}
