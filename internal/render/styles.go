package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"codeberg.org/mutker/hwtop/internal/severity"
)

// palette holds the styles of the dashboard. Styles come from a
// per-renderer lipgloss renderer so plain mode can force the ASCII profile
// and every Render call degrades to the bare text.
type palette struct {
	Red     lipgloss.Style
	Green   lipgloss.Style
	Magenta lipgloss.Style
	Cyan    lipgloss.Style
	Sky     lipgloss.Style
	Blue    lipgloss.Style
	Dim     lipgloss.Style
}

// newPalette builds the palette on the given writer. The profile is pinned
// rather than auto-detected: colored modes always emit the 16-color SGR
// sequences, plain mode passes text through unchanged.
func newPalette(w io.Writer, color bool) palette {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return palette{
		Red:     r.NewStyle().Foreground(lipgloss.Color("1")),
		Green:   r.NewStyle().Foreground(lipgloss.Color("2")),
		Magenta: r.NewStyle().Foreground(lipgloss.Color("5")),
		Cyan:    r.NewStyle().Foreground(lipgloss.Color("6")),
		Sky:     r.NewStyle().Foreground(lipgloss.Color("14")),
		Blue:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Dim:     r.NewStyle().Faint(true),
	}
}

// tierStyle maps a severity tier to its color. The Normal tier splits into
// blue and sky on the raw percent so idle and moderate load stay visually
// distinct.
func (p palette) tierStyle(tier severity.Tier, pct int) lipgloss.Style {
	switch tier {
	case severity.Critical:
		return p.Red
	case severity.Elevated:
		return p.Magenta
	case severity.Unknown:
		return p.Dim
	default:
		if pct >= 35 {
			return p.Sky
		}
		return p.Blue
	}
}

// percentStyle maps a 0-100 value to its load color via the classifier.
func (p palette) percentStyle(pct int) lipgloss.Style {
	return p.tierStyle(severity.ClassifyPercent(float64(pct)), pct)
}

// unavailableStyle is the Unknown tier's rendering, used for every missing
// reading placeholder.
func (p palette) unavailableStyle() lipgloss.Style {
	return p.tierStyle(severity.Unknown, 0)
}

// pct renders a value with its load color.
func (p palette) pct(format string, pct int) string {
	return p.percentStyle(pct).Render(fmt.Sprintf(format, pct))
}
