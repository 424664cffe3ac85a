package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/output"
)

// settingKeys maps a CLI key to its getter and setter.
var settingKeys = map[string]struct {
	get func(model.Settings) string
	set func(*model.Settings, string) error
}{
	"auto_save": {
		get: func(s model.Settings) string { return strconv.FormatBool(s.AutoSave) },
		set: func(s *model.Settings, v string) (err error) { s.AutoSave, err = strconv.ParseBool(v); return },
	},
	"notifications": {
		get: func(s model.Settings) string { return strconv.FormatBool(s.Notifications) },
		set: func(s *model.Settings, v string) (err error) { s.Notifications, err = strconv.ParseBool(v); return },
	},
	"theme": {
		get: func(s model.Settings) string { return string(s.Theme) },
		set: func(s *model.Settings, v string) error { s.Theme = model.Theme(strings.ToLower(v)); return nil },
	},
	"scan_depth": {
		get: func(s model.Settings) string { return string(s.ScanDepth) },
		set: func(s *model.Settings, v string) error { s.ScanDepth = model.ScanDepth(strings.ToLower(v)); return nil },
	},
}

func knownSettingKeys() string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func newSettingsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeStore, err := g.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			pr := output.NewPrinter(cmd.OutOrStdout(), a.GetSettings().Theme, g.cfg.Analyzer.SafeThreshold)
			pr.Header("Settings")
			pr.Settings(a.GetSettings(), a.Rules())
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting (" + knownSettingKeys() + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := settingKeys[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown setting %q (known: %s)", args[0], knownSettingKeys())
			}
			a, closeStore, err := g.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			fmt.Fprintln(cmd.OutOrStdout(), key.get(a.GetSettings()))
			return nil
		},
	}

	set := &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Change one setting",
		Example: "  linksentry settings set scan_depth deep\n  linksentry settings set notifications false",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := settingKeys[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown setting %q (known: %s)", args[0], knownSettingKeys())
			}
			a, closeStore, err := g.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			next := a.GetSettings()
			if err := key.set(&next, args[1]); err != nil {
				return fmt.Errorf("invalid value %q for %s: %w", args[1], args[0], err)
			}
			if err := a.SetSettings(cmd.Context(), next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[*] %s = %s\n", strings.ToLower(args[0]), key.get(a.GetSettings()))
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
