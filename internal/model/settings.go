package model

import "fmt"

// Theme selects the console palette.
type Theme string

const (
	ThemeCyberpunk Theme = "cyberpunk"
	ThemeDark      Theme = "dark"
	ThemeLight     Theme = "light"
	ThemeMono      Theme = "mono"
)

// ScanDepth widens or narrows the set of heuristics the analyzer runs.
type ScanDepth string

const (
	ScanQuick    ScanDepth = "quick"
	ScanStandard ScanDepth = "standard"
	ScanDeep     ScanDepth = "deep"
)

// Settings are the user-facing preferences persisted across sessions.
type Settings struct {
	AutoSave      bool      `json:"autoSave" yaml:"auto_save"`
	Notifications bool      `json:"notifications" yaml:"notifications"`
	Theme         Theme     `json:"theme" yaml:"theme"`
	ScanDepth     ScanDepth `json:"scanDepth" yaml:"scan_depth"`
}

// DefaultSettings mirrors the preferences a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		AutoSave:      true,
		Notifications: true,
		Theme:         ThemeCyberpunk,
		ScanDepth:     ScanStandard,
	}
}

// Validate rejects unknown enum values.
func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeCyberpunk, ThemeDark, ThemeLight, ThemeMono:
	default:
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	switch s.ScanDepth {
	case ScanQuick, ScanStandard, ScanDeep:
	default:
		return fmt.Errorf("unknown scan depth %q", s.ScanDepth)
	}
	return nil
}
