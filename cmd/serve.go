package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/api"
)

func newServeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, g)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address (default from server.addr)")
	f.Float64("rate-limit", 0, "requests per second across all clients, 0 disables (default from server.rate_limit)")
	_ = g.v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = g.v.BindPFlag("server.rate_limit", f.Lookup("rate-limit"))
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, g *globals) error {
	a, closeStore, err := g.openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	g.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	g.printBanner(cmd)

	sc := g.cfg.Server
	srv := api.New(api.Config{
		Addr:            sc.Addr,
		RateLimit:       sc.RateLimit,
		Burst:           sc.Burst,
		MaxBatch:        sc.MaxBatch,
		ShutdownTimeout: sc.ShutdownTimeout,
	}, a, g.registry, g.logger)

	g.logger.Info("starting API server", zap.String("addr", sc.Addr), zap.Strings("rules", a.Rules()))
	return srv.Run(ctx)
}
