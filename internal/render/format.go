package render

import (
	"fmt"
	"math"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
	tib = 1 << 40
)

// formatSize renders a byte count compactly: whole units up to mebibytes,
// one decimal for gibibytes under 100G and for tebibytes under 100T.
func formatSize(bytes uint64) string {
	f := float64(bytes)
	switch {
	case bytes < kib:
		return fmt.Sprintf("%dB", bytes)
	case bytes < mib:
		return fmt.Sprintf("%.0fK", f/kib)
	case bytes < gib:
		return fmt.Sprintf("%.0fM", f/mib)
	case bytes < tib:
		if bytes >= 100*gib {
			return fmt.Sprintf("%.0fG", f/gib)
		}
		return fmt.Sprintf("%gG", math.Round(f/gib*10)/10)
	default:
		if bytes >= 100*tib {
			return fmt.Sprintf("%.0fT", f/tib)
		}
		return fmt.Sprintf("%.1fT", f/tib)
	}
}

// ratioPercent converts used/total to a rounded percentage, clamped to 100.
func ratioPercent(used, total float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(used / total * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	return pct
}
