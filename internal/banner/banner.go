package banner

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Tagline is printed under the figure.
const Tagline = "Heuristic URL safety analyzer | offline, no lookups"

// Fprint writes the LinkSentry banner to w. With color disabled the figure
// is printed plain.
func Fprint(w io.Writer, version string) {
	fig := figure.NewFigure("LINKSENTRY", "doom", true)

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	accent := color.New(color.FgHiMagenta)

	fmt.Fprint(w, accent.Sprint(fig.String()))
	fmt.Fprintln(w, cyan.Sprint("════════════════════════════════════════════════"))
	fmt.Fprintln(w, green.Sprintf("    %s | %s", Tagline, version))
	fmt.Fprintln(w, cyan.Sprint("════════════════════════════════════════════════"))
}
