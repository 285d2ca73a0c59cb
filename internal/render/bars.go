package render

import (
	"fmt"
	"math"
	"strings"

	"codeberg.org/mutker/hwtop/internal/history"
)

// Eighth-step glyph ramps. Bars grow bottom-up, sliders left-to-right.
var (
	barGlyphs    = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	sliderGlyphs = []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}
)

const gapGlyph = "·"

// glyphFor picks the eighth-step glyph for a 0-100 value.
func glyphFor(glyphs []string, pct int) string {
	switch {
	case pct <= 12:
		return glyphs[0]
	case pct <= 25:
		return glyphs[1]
	case pct <= 37:
		return glyphs[2]
	case pct <= 50:
		return glyphs[3]
	case pct <= 62:
		return glyphs[4]
	case pct <= 75:
		return glyphs[5]
	case pct <= 87:
		return glyphs[6]
	default:
		return glyphs[7]
	}
}

func percentBar(pct int) string {
	return glyphFor(barGlyphs, pct)
}

func percentSlider(pct int) string {
	return glyphFor(sliderGlyphs, pct)
}

// bars renders one colored bar glyph per value, forming a per-core strip.
func bars(pal palette, percents []int) string {
	var b strings.Builder
	for _, pct := range percents {
		b.WriteString(pal.percentStyle(pct).Render(percentBar(pct)))
	}

	return b.String()
}

// memBar renders a bracketed fill bar with a fractional slider at the edge,
// followed by used/total sizes.
func memBar(pal palette, used, total uint64, width int) string {
	ratio := 0.0
	if total > 0 {
		ratio = math.Min(float64(used)/float64(total), 1.0)
	}
	pct := int(math.Round(ratio * 100))
	style := pal.percentStyle(pct)
	full := int(ratio * float64(width))
	usage := memUsage(pal, used, total)

	if full >= width {
		return fmt.Sprintf("[%s] %s", style.Render(strings.Repeat("█", width)), usage)
	}

	frac := ratio*float64(width) - float64(full)
	remainder := percentSlider(int(math.Round(frac * 100)))
	empty := strings.Repeat(" ", width-full-1)

	return fmt.Sprintf("[%s%s] %s", style.Render(strings.Repeat("█", full)+remainder), empty, usage)
}

// memUsage renders "used/total" with both sides colored by the usage ratio.
func memUsage(pal palette, used, total uint64) string {
	style := pal.percentStyle(ratioPercent(float64(used), float64(total)))
	return style.Render(formatSize(used)) + "/" + style.Render(formatSize(total))
}

// sparkline renders a history window as a strip of bar glyphs scaled to
// maxValue. Gaps draw as a dim dot so dropouts stay visible in the timeline.
func sparkline(pal palette, window []float64, maxValue float64) string {
	if maxValue <= 0 {
		maxValue = 100
	}

	var b strings.Builder
	for _, v := range window {
		if history.IsGap(v) {
			b.WriteString(pal.Dim.Render(gapGlyph))
			continue
		}
		pct := int(math.Round(v / maxValue * 100))
		if pct > 100 {
			pct = 100
		}
		b.WriteString(pal.percentStyle(pct).Render(percentBar(pct)))
	}

	return b.String()
}
