package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkSentry/internal/output"
)

type historyOptions struct {
	clear bool
	jsonl string
	html  string
	limit int
}

func newHistoryCmd(g *globals) *cobra.Command {
	var opts historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, export or clear the scan history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeStore, err := g.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if opts.clear {
				n := len(a.HistoryAll())
				a.HistoryClear()
				fmt.Fprintf(out, "[*] Cleared %d history entries\n", n)
				return nil
			}

			all := a.HistoryAll()
			if opts.jsonl != "" {
				if err := output.WriteJSONLFile(opts.jsonl, output.BuildRecords(all)); err != nil {
					return fmt.Errorf("write JSONL: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "[write] JSONL history -> %s\n", opts.jsonl)
			}
			if opts.html != "" {
				s := a.GetSettings()
				params := map[string]string{
					"scan_depth":     string(s.ScanDepth),
					"safe_threshold": strconv.Itoa(g.cfg.Analyzer.SafeThreshold),
					"storage":        g.cfg.Storage.Backend,
					"entries":        strconv.Itoa(len(all)),
				}
				page := output.BuildPage("LinkSentry History Report", all, a.AnalyticsSnapshot(), params, time.Now().UTC())
				if err := output.WriteHTMLFile(opts.html, page); err != nil {
					return fmt.Errorf("write HTML: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "[write] HTML report -> %s\n", opts.html)
			}
			if opts.jsonl != "" || opts.html != "" {
				return nil
			}

			if len(all) == 0 {
				fmt.Fprintln(out, "[*] History is empty")
				return nil
			}
			// Newest first.
			shown := 0
			pr := output.NewPrinter(out, a.GetSettings().Theme, g.cfg.Analyzer.SafeThreshold)
			for i := len(all) - 1; i >= 0; i-- {
				if opts.limit > 0 && shown == opts.limit {
					break
				}
				pr.Verdict(all[i])
				shown++
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.clear, "clear", false, "delete every history entry")
	f.StringVar(&opts.jsonl, "jsonl", "", "export history to this JSONL file")
	f.StringVar(&opts.html, "html", "", "render history to this HTML report")
	f.IntVarP(&opts.limit, "limit", "n", 0, "show at most this many entries (0 shows all)")
	cmd.MarkFlagsMutuallyExclusive("clear", "jsonl")
	cmd.MarkFlagsMutuallyExclusive("clear", "html")
	return cmd
}
