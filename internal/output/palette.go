package output

import (
	"github.com/fatih/color"

	"github.com/selimozcann/LinkSentry/internal/model"
)

// Palette is the set of console colors a theme uses.
type Palette struct {
	Safe   *color.Color
	Threat *color.Color
	Error  *color.Color
	Accent *color.Color
	Muted  *color.Color
	Low    *color.Color
	Medium *color.Color
	High   *color.Color
}

// PaletteFor returns the palette for theme. Unknown themes fall back to
// cyberpunk.
func PaletteFor(theme model.Theme) Palette {
	switch theme {
	case model.ThemeDark:
		return Palette{
			Safe:   color.New(color.FgGreen),
			Threat: color.New(color.FgRed, color.Bold),
			Error:  color.New(color.FgRed),
			Accent: color.New(color.FgBlue, color.Bold),
			Muted:  color.New(color.FgHiBlack),
			Low:    color.New(color.FgCyan),
			Medium: color.New(color.FgYellow),
			High:   color.New(color.FgRed),
		}
	case model.ThemeLight:
		return Palette{
			Safe:   color.New(color.FgGreen),
			Threat: color.New(color.FgRed),
			Error:  color.New(color.FgMagenta),
			Accent: color.New(color.FgBlue),
			Muted:  color.New(color.FgBlack),
			Low:    color.New(color.FgBlue),
			Medium: color.New(color.FgYellow),
			High:   color.New(color.FgRed, color.Underline),
		}
	case model.ThemeMono:
		plain := func() *color.Color {
			c := color.New()
			c.DisableColor()
			return c
		}
		return Palette{
			Safe: plain(), Threat: plain(), Error: plain(), Accent: plain(),
			Muted: plain(), Low: plain(), Medium: plain(), High: plain(),
		}
	default:
		return Palette{
			Safe:   color.New(color.FgHiGreen, color.Bold),
			Threat: color.New(color.FgHiMagenta, color.Bold),
			Error:  color.New(color.FgHiRed),
			Accent: color.New(color.FgHiCyan, color.Bold),
			Muted:  color.New(color.FgHiBlack),
			Low:    color.New(color.FgHiCyan),
			Medium: color.New(color.FgHiYellow),
			High:   color.New(color.FgHiMagenta, color.Bold),
		}
	}
}

// Severity returns the color for a flag severity.
func (p Palette) Severity(s model.Severity) *color.Color {
	switch s {
	case model.SeverityHigh:
		return p.High
	case model.SeverityMedium:
		return p.Medium
	default:
		return p.Low
	}
}

// Score colors a risk score against the threshold it is judged by.
func (p Palette) Score(score, threshold int) *color.Color {
	switch {
	case score >= threshold:
		return p.Threat
	case score > 0:
		return p.Medium
	default:
		return p.Safe
	}
}
