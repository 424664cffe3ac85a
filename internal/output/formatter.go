package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/selimozcann/LinkSentry/internal/model"
)

// Printer renders verdicts and counters to a terminal.
type Printer struct {
	w         io.Writer
	p         Palette
	threshold int
}

// NewPrinter returns a Printer using theme's palette. threshold only
// affects score coloring.
func NewPrinter(w io.Writer, theme model.Theme, threshold int) *Printer {
	return &Printer{w: w, p: PaletteFor(theme), threshold: threshold}
}

// Header prints a section title.
func (pr *Printer) Header(title string) {
	fmt.Fprintf(pr.w, "\n%s\n", pr.p.Accent.Sprintf("[*] %s", title))
}

// Verdict prints one verdict and its flags.
func (pr *Printer) Verdict(v model.Verdict) {
	switch DetermineType(v) {
	case ResultTypeError:
		fmt.Fprintf(pr.w, "%s %s %s\n", pr.p.Error.Sprint("[-] ERROR "), v.URL, pr.p.Muted.Sprint(v.Error))
		return
	case ResultTypeSafe:
		fmt.Fprintf(pr.w, "%s %s", pr.p.Safe.Sprint("[+] SAFE  "), v.URL)
	default:
		fmt.Fprintf(pr.w, "%s %s", pr.p.Threat.Sprint("[!] THREAT"), v.URL)
	}
	fmt.Fprintf(pr.w, " %s\n", pr.p.Score(v.RiskScore, pr.threshold).Sprintf("(score %d)", v.RiskScore))
	for _, f := range v.Flags {
		fmt.Fprintf(pr.w, "      %s %s %s\n",
			pr.p.Severity(f.Severity).Sprintf("%-6s", f.Severity),
			pr.p.Muted.Sprint(f.Rule),
			f.Detail)
	}
}

// Verdicts prints each verdict in order.
func (pr *Printer) Verdicts(vs []model.Verdict) {
	for _, v := range vs {
		pr.Verdict(v)
	}
}

// Snapshot prints the analytics counters.
func (pr *Printer) Snapshot(s model.Snapshot) {
	rows := []struct {
		label string
		value string
	}{
		{"Total scans", fmt.Sprint(s.TotalScans)},
		{"Safe URLs", pr.p.Safe.Sprint(s.SafeURLs)},
		{"Threats detected", pr.p.Threat.Sprint(s.ThreatsDetected)},
		{"Failed scans", pr.p.Error.Sprint(s.Errors)},
		{"Accuracy", fmt.Sprintf("%d%%", s.Accuracy)},
	}
	for _, r := range rows {
		fmt.Fprintf(pr.w, "  %-18s %s\n", r.label, r.value)
	}
}

// Settings prints the user settings and the active rules.
func (pr *Printer) Settings(s model.Settings, rules []string) {
	fmt.Fprintf(pr.w, "  %-18s %t\n", "auto_save", s.AutoSave)
	fmt.Fprintf(pr.w, "  %-18s %t\n", "notifications", s.Notifications)
	fmt.Fprintf(pr.w, "  %-18s %s\n", "theme", s.Theme)
	fmt.Fprintf(pr.w, "  %-18s %s\n", "scan_depth", s.ScanDepth)
	fmt.Fprintf(pr.w, "  %-18s %s\n", "rules", pr.p.Muted.Sprint(strings.Join(rules, ", ")))
}
