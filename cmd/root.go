// Package cmd implements the linksentry command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/app"
	"github.com/selimozcann/LinkSentry/internal/banner"
	"github.com/selimozcann/LinkSentry/internal/config"
	"github.com/selimozcann/LinkSentry/internal/notify"
	"github.com/selimozcann/LinkSentry/internal/observability"
	"github.com/selimozcann/LinkSentry/internal/store"
)

// globals is the state shared by every subcommand of one root command.
type globals struct {
	cfgFile  string
	envFile  string
	noBanner bool
	v        *viper.Viper
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{v: viper.New(), registry: prometheus.NewRegistry()}

	root := &cobra.Command{
		Use:           "linksentry",
		Short:         "LinkSentry scores URLs for phishing and abuse using offline heuristics.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.initialize()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.cfgFile, "config", "c", "", "config file (default ./linksentry.yaml, then ~/.linksentry/linksentry.yaml)")
	pf.StringVar(&g.envFile, "env-file", "", "dotenv file with LINKSENTRY_* variables (default ./.env when present)")
	pf.BoolVar(&g.noBanner, "no-banner", false, "do not print the banner")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("storage", "", "storage backend: memory, file, postgres")
	pf.String("data-dir", "", "directory used by the file backend")
	pf.String("database-url", "", "PostgreSQL connection string used by the postgres backend")
	for key, flag := range map[string]string{
		"logger.level":         "log-level",
		"storage.backend":      "storage",
		"storage.dir":          "data-dir",
		"storage.database_url": "database-url",
	} {
		_ = g.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newScanCmd(g),
		newHistoryCmd(g),
		newStatsCmd(g),
		newSettingsCmd(g),
		newServeCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := NewRootCmd().Execute()
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "[-] Error:", err)
		os.Exit(1)
	}
}

func (g *globals) initialize() error {
	config.SetDefaults(g.v)
	if err := g.readConfig(); err != nil {
		return err
	}
	cfg, err := config.NewConfigFromViper(g.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	g.cfg = cfg

	observability.InitializeLogger(cfg.Logger)
	g.logger = observability.GetLogger()
	g.logger.Debug("configuration loaded",
		zap.String("config_file", g.v.ConfigFileUsed()),
		zap.String("storage", cfg.Storage.Backend))
	return nil
}

// readConfig reads the config file and LINKSENTRY_* environment variables.
// A missing default config file or .env is not an error. Variables already
// set in the environment win over the dotenv file.
func (g *globals) readConfig() error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil {
			return fmt.Errorf("error reading env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if g.cfgFile != "" {
		g.v.SetConfigFile(g.cfgFile)
	} else {
		g.v.SetConfigName("linksentry")
		g.v.SetConfigType("yaml")
		g.v.AddConfigPath(".")
		g.v.AddConfigPath(config.DefaultDataDir())
	}

	g.v.SetEnvPrefix("LINKSENTRY")
	g.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	g.v.AutomaticEnv()

	if err := g.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if g.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// openApp opens the configured store and builds the application over it.
// Notifications go to stderr so stdout stays machine readable.
func (g *globals) openApp(ctx context.Context, cmd *cobra.Command) (*app.App, func(), error) {
	kv, closeStore := store.Open(ctx, g.cfg.Storage, g.logger)
	a, err := app.New(ctx, app.Options{
		Config:     g.cfg,
		Store:      kv,
		Notifier:   notify.NewConsole(cmd.ErrOrStderr()),
		Registerer: g.registry,
		Logger:     g.logger,
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return a, closeStore, nil
}

func (g *globals) printBanner(cmd *cobra.Command) {
	if !g.noBanner {
		banner.Fprint(cmd.ErrOrStderr(), Version)
	}
}
