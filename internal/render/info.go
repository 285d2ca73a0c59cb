package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codeberg.org/mutker/hwtop/internal/metric"
	"codeberg.org/mutker/hwtop/internal/source"
)

const (
	treeBranch = "├─"
	treeLeaf   = "└─"
)

// InfoFrame renders the static hardware inventory as a tree: one headline
// per device group with its identity details as branches. This is the whole
// output of the info mode; no readings are involved.
func (r *Renderer) InfoFrame(inv *Inventory, details []source.DeviceDetail) string {
	pal := r.pal
	byDevice := make(map[metric.DeviceID][]source.Attr)
	for _, d := range details {
		byDevice[d.Device] = append(byDevice[d.Device], d.Attrs...)
	}

	var b strings.Builder

	if inv.CPU != nil {
		fmt.Fprintf(&b, "%s %s %s\n",
			pal.Sky.Render("CPU"), inv.CPU.Name,
			pal.Blue.Render(fmt.Sprintf("x%d Cores", len(inv.Cores))))
	}

	for i := range inv.GPUs {
		g := &inv.GPUs[i]
		fmt.Fprintf(&b, "%s %s\n", pal.Magenta.Render("GPU"), g.Device.Name)
		writeTree(&b, pal.Magenta, attrLines(pal, byDevice[g.Device.ID]))
	}

	mobo := attrValue(byDevice[source.ThermalInfoID], "Motherboard")
	if mobo != "" || len(inv.Components) > 0 {
		fmt.Fprintf(&b, "%s %s\n", pal.Red.Render("MOBO"), mobo)
		writeTree(&b, pal.Red, componentNames(inv))
	}

	if len(inv.Nets) > 0 {
		fmt.Fprintf(&b, "%s\n", pal.Cyan.Render("Networks"))
		var lines []string
		for _, d := range inv.Nets {
			line := pal.Blue.Render(d.Name)
			for _, attr := range byDevice[d.ID] {
				line += fmt.Sprintf(" %s[%s]", attr.Label, pal.Dim.Render(attr.Value))
			}
			lines = append(lines, line)
		}
		writeTree(&b, pal.Cyan, lines)
	}

	return b.String()
}

// writeTree emits lines with branch glyphs, the last line getting the leaf.
func writeTree(b *strings.Builder, accent lipgloss.Style, lines []string) {
	for i, line := range lines {
		glyph := treeBranch
		if i == len(lines)-1 {
			glyph = treeLeaf
		}
		fmt.Fprintf(b, "%s %s\n", accent.Render(glyph), line)
	}
}

func attrLines(pal palette, attrs []source.Attr) []string {
	var lines []string
	for _, a := range attrs {
		lines = append(lines, pal.Dim.Render(a.Label)+" "+pal.Blue.Render(a.Value))
	}

	return lines
}

func attrValue(attrs []source.Attr, label string) string {
	for _, a := range attrs {
		if a.Label == label {
			return a.Value
		}
	}

	return ""
}

// componentNames returns the distinct secondary component names, sorted,
// with near-duplicates (one name prefixing another) collapsed.
func componentNames(inv *Inventory) []string {
	var names []string
	for _, d := range inv.Components {
		if d.Name == "Motherboard" {
			continue
		}
		dup := false
		for _, existing := range names {
			if strings.HasPrefix(existing, d.Name) || strings.HasPrefix(d.Name, existing) {
				dup = true
				break
			}
		}
		if !dup {
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)

	return names
}
