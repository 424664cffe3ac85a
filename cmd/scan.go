package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/output"
)

type scanOptions struct {
	file         string
	jsonl        string
	quiet        bool
	failOnThreat bool
}

func newScanCmd(g *globals) *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Analyze one or more URLs",
		Long: `Analyze URLs with the heuristics enabled by the current scan depth.

A single URL is scanned on its own. Several URLs, or a --file with one URL
per line, are scanned as a batch in input order.`,
		Example: `  linksentry scan http://192.168.1.1/login-secure-verify
  linksentry scan -f urls.txt --jsonl results.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, g, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read URLs from file, one per line (# starts a comment)")
	f.StringVarP(&opts.jsonl, "jsonl", "o", "", "also write verdicts to this JSONL file")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print verdicts")
	f.BoolVar(&opts.failOnThreat, "fail-on-threat", false, "exit non-zero when any URL is unsafe")
	return cmd
}

func runScan(cmd *cobra.Command, g *globals, opts scanOptions, args []string) error {
	urls := append([]string(nil), args...)
	if opts.file != "" {
		fromFile, err := loadURLs(opts.file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return errors.New("provide at least one URL or --file")
	}

	a, closeStore, err := g.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	if !opts.quiet {
		g.printBanner(cmd)
	}

	var verdicts []model.Verdict
	if len(urls) == 1 && opts.file == "" {
		v, ok := a.Submit(urls[0])
		if !ok {
			return errors.New("URL is empty")
		}
		verdicts = []model.Verdict{v}
	} else {
		verdicts = a.SubmitBatch(urls)
	}

	if !opts.quiet {
		pr := output.NewPrinter(cmd.OutOrStdout(), a.GetSettings().Theme, g.cfg.Analyzer.SafeThreshold)
		pr.Verdicts(verdicts)
	}
	if opts.jsonl != "" {
		if err := output.WriteJSONLFile(opts.jsonl, output.BuildRecords(verdicts)); err != nil {
			return fmt.Errorf("write JSONL: %w", err)
		}
	}

	if opts.failOnThreat {
		threats := 0
		for _, v := range verdicts {
			if output.DetermineType(v) == output.ResultTypeThreat {
				threats++
			}
		}
		if threats > 0 {
			return fmt.Errorf("%d unsafe URL(s) detected", threats)
		}
	}
	return nil
}

// loadURLs reads one URL per line, skipping blank lines and # comments.
func loadURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list %q: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("URL list read error: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("URL list %q is empty", path)
	}
	return urls, nil
}
