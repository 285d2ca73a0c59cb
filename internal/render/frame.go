package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codeberg.org/mutker/hwtop/internal/config"
	"codeberg.org/mutker/hwtop/internal/history"
	"codeberg.org/mutker/hwtop/internal/metric"
)

const (
	memBarWidth = 14

	// sparkWidth is the width of the utilization sparklines on the CPU and
	// GPU summary lines. sparkReserve is the room the headline cells to
	// their left need (label, percent, temperature, power).
	sparkWidth   = 30
	sparkReserve = 28

	unavailable = "--"
)

// Renderer turns one snapshot into one frame of text. It holds no mutable
// state beyond layout parameters; Frame is a pure function of its inputs so
// a frame can be rebuilt or tested without a terminal.
type Renderer struct {
	mode   config.Mode
	pal    palette
	width  int
	height int
}

func New(mode config.Mode, w io.Writer, width, height int, noColor bool) *Renderer {
	return &Renderer{
		mode:   mode,
		pal:    newPalette(w, mode.Color() && !noColor),
		width:  width,
		height: height,
	}
}

// Frame renders the dashboard for one snapshot. When the terminal is too
// short for the full layout it falls back to the compact summary rows.
func (r *Renderer) Frame(inv *Inventory, snap *metric.Snapshot, hist *history.Store) string {
	var b strings.Builder

	r.writeSummary(&b, inv, snap, hist)
	r.writeMemory(&b, inv, snap)

	if r.compact() {
		return b.String()
	}

	r.writeCores(&b, inv, snap)
	for i := range inv.GPUs {
		r.writeGPUDetail(&b, &inv.GPUs[i], snap)
	}
	r.writeNetwork(&b, inv, snap)
	r.writeDrives(&b, inv, snap)

	if r.mode.ShowExtra() {
		r.writeComponents(&b, inv, snap)
	}

	return b.String()
}

// sparkCols fits the sparkline to the terminal width, keeping room for the
// headline cells on its left.
func (r *Renderer) sparkCols() int {
	cols := sparkWidth
	if r.width > 0 && r.width-sparkReserve < cols {
		cols = r.width - sparkReserve
	}
	if cols < 0 {
		cols = 0
	}

	return cols
}

// compact reports whether the full layout would overflow the terminal.
func (r *Renderer) compact() bool {
	if r.mode == config.ModePlain {
		return false
	}

	return r.height > 0 && r.height < 12
}

// writeSummary emits the CPU and GPU headline rows with their utilization
// sparklines.
func (r *Renderer) writeSummary(b *strings.Builder, inv *Inventory, snap *metric.Snapshot, hist *history.Store) {
	pal := r.pal

	cpuLine := " " + pal.Green.Render("CPU")
	if inv.CPU != nil {
		cpuLine += r.percentCell(snap, inv.CPU.ID, metric.Utilization, "%3d%%")
		cpuLine += r.tempCell(snap, inv)
		if hist != nil {
			cpuLine += " " + sparkline(pal, hist.Window(inv.CPU.ID, metric.Utilization, r.sparkCols()), 100)
		}
	}
	b.WriteString(cpuLine + "\n")

	for i := range inv.GPUs {
		g := &inv.GPUs[i]
		line := " " + pal.Magenta.Render("GPU")
		line += r.percentCell(snap, g.Device.ID, metric.Utilization, "%3d%%")
		if temp, ok := snap.Value(g.Device.ID, metric.Temperature); ok {
			line += pal.pct("%4d°C", int(math.Round(temp)))
		} else {
			line += " " + pal.unavailableStyle().Render(unavailable)
		}
		line += r.powerCell(snap, g)
		if hist != nil {
			line += " " + sparkline(pal, hist.Window(g.Device.ID, metric.Utilization, r.sparkCols()), 100)
		}
		b.WriteString(line + "\n")
	}
}

// writeMemory emits the RAM bar with swap usage, then one VRAM bar per GPU.
func (r *Renderer) writeMemory(b *strings.Builder, inv *Inventory, snap *metric.Snapshot) {
	pal := r.pal

	if inv.RAM != nil {
		line := " " + pal.Red.Render("RAM") + " " + r.memBarCell(snap, inv.RAM.ID)
		if inv.Swap != nil {
			used, uok := snap.Value(inv.Swap.ID, metric.MemoryUsed)
			total, tok := snap.Value(inv.Swap.ID, metric.MemoryTotal)
			if uok && tok {
				line += "  " + memUsage(pal, uint64(used), uint64(total))
			}
		}
		b.WriteString(line + "\n")
	}

	for i := range inv.GPUs {
		g := &inv.GPUs[i]
		if !g.Device.Has(metric.MemoryUsed) {
			continue
		}
		line := pal.Red.Render("VRAM") + " " + r.memBarCell(snap, g.Device.ID)
		if used, uok := snap.Value(g.Device.ID, metric.MemoryUsed); uok {
			total := g.Device.Limit(metric.MemoryTotal)
			line += "   " + pal.pct("%3d%%", ratioPercent(used, total))
		}
		b.WriteString(line + "\n")
	}
}

// writeCores emits the per-core strips: utilization, frequency as a percent
// of each core's rated maximum, and core temperatures.
func (r *Renderer) writeCores(b *strings.Builder, inv *Inventory, snap *metric.Snapshot) {
	if len(inv.Cores) == 0 {
		return
	}
	pal := r.pal

	var utils, freqs []int
	maxUtil, maxFreqPct := 0, 0
	minRated, maxRated := 0.0, 0.0
	for _, core := range inv.Cores {
		pct := 0
		if v, ok := snap.Value(core.ID, metric.Utilization); ok {
			pct = int(math.Round(v))
		}
		utils = append(utils, pct)
		if pct > maxUtil {
			maxUtil = pct
		}

		rated := core.Limit(metric.FrequencyCore)
		if rated > 0 && (minRated == 0 || rated < minRated) {
			minRated = rated
		}
		if rated > maxRated {
			maxRated = rated
		}
		fp := 0
		if v, ok := snap.Value(core.ID, metric.FrequencyCore); ok && rated > 0 {
			fp = ratioPercent(v, rated)
		}
		freqs = append(freqs, fp)
		if fp > maxFreqPct {
			maxFreqPct = fp
		}
	}

	fmt.Fprintf(b, "%s %s%s\n",
		pal.Blue.Render("CORE"), bars(pal, utils), pal.pct("%6d%%", maxUtil))

	rating := ""
	if minRated > 0 {
		if minRated == maxRated {
			rating = fmt.Sprintf("%.0fMHz", minRated)
		} else {
			rating = fmt.Sprintf("%.0f-%.0fMHz", minRated, maxRated)
		}
	}
	fmt.Fprintf(b, "%s %s%s %s\n",
		pal.Blue.Render("FREQ"), bars(pal, freqs), pal.pct("%6d%%", maxFreqPct), pal.Dim.Render(rating))

	var temps []int
	maxTemp := 0
	for _, ct := range inv.CoreTemps {
		t := 0
		if v, ok := snap.Value(ct.ID, metric.Temperature); ok {
			t = int(math.Round(v))
		}
		temps = append(temps, t)
		if t > maxTemp {
			maxTemp = t
		}
	}
	if len(temps) > 0 {
		pad := 6 + len(utils) - len(temps)
		fmt.Fprintf(b, "%s %s%s\n",
			pal.Blue.Render("TEMP"), bars(pal, temps), pal.pct("%"+fmt.Sprint(pad)+"dC", maxTemp))
	}
}

// writeGPUDetail emits the clock, fan and PCIe rows for one GPU.
func (r *Renderer) writeGPUDetail(b *strings.Builder, g *GPU, snap *metric.Snapshot) {
	pal := r.pal

	clocks := []struct {
		label string
		kind  metric.Kind
	}{
		{"GFX", metric.FrequencyGraphics},
		{"MEM", metric.FrequencyMemory},
		{"SM", metric.FrequencySM},
		{"VID", metric.FrequencyVideo},
	}
	line := pal.Blue.Render("CLCK")
	wrote := false
	for _, c := range clocks {
		if !g.Device.Has(c.kind) {
			continue
		}
		line += " " + pal.Dim.Render(c.label) + r.clockCell(snap, g.Device, c.kind) + " "
		wrote = true
	}
	if wrote {
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	if len(g.Fans) > 0 {
		var cells []string
		for _, fan := range g.Fans {
			if v, ok := snap.Value(fan.ID, metric.FanSpeed); ok {
				cells = append(cells, pal.pct("%d%%", int(math.Round(v))))
			} else {
				cells = append(cells, pal.unavailableStyle().Render(unavailable))
			}
		}
		fmt.Fprintf(b, "%s %s\n", pal.Sky.Render("FANS"), strings.Join(cells, ", "))
	}

	if g.Device.Has(metric.PcieRx) {
		b.WriteString(r.pcieRow(snap, g) + "\n")
	}
}

// pcieRow renders PCIe throughput in MB/s against the link capacity.
func (r *Renderer) pcieRow(snap *metric.Snapshot, g *GPU) string {
	pal := r.pal
	capacity := g.Device.Limit(metric.PcieRx)

	cell := func(kind metric.Kind) string {
		v, ok := snap.Value(g.Device.ID, kind)
		if !ok {
			return pal.unavailableStyle().Render(unavailable)
		}
		mb := int(math.Round(v / 1e6))
		pct := 0
		if capacity > 0 {
			pct = ratioPercent(v, capacity)
		}
		return pal.percentStyle(pct).Render(fmt.Sprintf("%4dM", mb))
	}

	row := fmt.Sprintf("%s %s%s  %s%s",
		pal.Sky.Render("PCIE"),
		pal.Green.Render("▼"), cell(metric.PcieRx),
		pal.Magenta.Render("▲"), cell(metric.PcieTx))
	if capacity > 0 {
		row += fmt.Sprintf("   %s", pal.Dim.Render(fmt.Sprintf("%.1fGB/s", capacity/1e9)))
	}

	return row
}

// writeNetwork emits one row for the busiest interface this tick.
func (r *Renderer) writeNetwork(b *strings.Builder, inv *Inventory, snap *metric.Snapshot) {
	if len(inv.Nets) == 0 {
		return
	}
	pal := r.pal

	var busiest *metric.Device
	busiestRate := -1.0
	for i := range inv.Nets {
		d := &inv.Nets[i]
		rx, _ := snap.Value(d.ID, metric.NetworkRx)
		tx, _ := snap.Value(d.ID, metric.NetworkTx)
		if rx+tx > busiestRate {
			busiestRate = rx + tx
			busiest = d
		}
	}
	if busiest == nil {
		return
	}

	rate := func(kind metric.Kind) string {
		if v, ok := snap.Value(busiest.ID, kind); ok {
			return pal.Blue.Render(fmt.Sprintf("%4.0fK", v/1024))
		}
		return pal.unavailableStyle().Render(unavailable)
	}
	pkts := func(kind metric.Kind) float64 {
		v, _ := snap.Value(busiest.ID, kind)
		return v
	}

	fmt.Fprintf(b, "%s %s%s  %s%s %s/%s %s  %s\n",
		pal.Sky.Render("NETW"),
		pal.Green.Render("▼"), rate(metric.NetworkRx),
		pal.Magenta.Render("▲"), rate(metric.NetworkTx),
		pal.Green.Render(fmt.Sprintf("%4.0f", pkts(metric.NetworkRxPackets))),
		pal.Magenta.Render(fmt.Sprintf("%-4.0f", pkts(metric.NetworkTxPackets))),
		pal.Cyan.Render("pkt/s"),
		pal.Dim.Render(busiest.Name))
}

// writeDrives emits one aligned row per drive: usage, current read/write
// rates, and lifetime totals.
func (r *Renderer) writeDrives(b *strings.Builder, inv *Inventory, snap *metric.Snapshot) {
	if len(inv.Drives) == 0 {
		return
	}
	pal := r.pal

	sized := func(kind metric.Kind, style lipgloss.Style, id metric.DeviceID) string {
		if v, ok := snap.Value(id, kind); ok {
			return style.Render(formatSize(uint64(math.Max(v, 0))))
		}
		return pal.unavailableStyle().Render(unavailable)
	}

	var rows []string
	for _, d := range inv.Drives {
		total := d.Limit(metric.MemoryTotal)
		usage := pal.unavailableStyle().Render(unavailable)
		if used, ok := snap.Value(d.ID, metric.MemoryUsed); ok && total > 0 {
			usage = memUsage(pal, uint64(used), uint64(total))
		}
		rw := sized(metric.DriveRead, pal.Green, d.ID) + "/" + sized(metric.DriveWrite, pal.Magenta, d.ID)
		totals := sized(metric.DriveReadTotal, pal.Green, d.ID) + "/" + sized(metric.DriveWriteTotal, pal.Magenta, d.ID)
		rows = append(rows, fmt.Sprintf("%s;%s;%s;Tot %s", pal.Sky.Render(d.Name), usage, rw, totals))
	}

	b.WriteString(alignRows(rows))
}

// writeComponents emits the secondary temperature rows, grouped by component
// name with one cell per sensor.
func (r *Renderer) writeComponents(b *strings.Builder, inv *Inventory, snap *metric.Snapshot) {
	if len(inv.Components) == 0 {
		return
	}
	pal := r.pal

	grouped := make(map[string][]string)
	var order []string
	for _, d := range inv.Components {
		cell := pal.unavailableStyle().Render(unavailable)
		if v, ok := snap.Value(d.ID, metric.Temperature); ok {
			t := int(math.Round(v))
			cell = pal.pct("%d°C", t)
		}
		if _, seen := grouped[d.Name]; !seen {
			order = append(order, d.Name)
		}
		grouped[d.Name] = append(grouped[d.Name], cell)
	}

	var rows []string
	for _, name := range order {
		rows = append(rows, pal.Blue.Render(name)+" ;"+strings.Join(grouped[name], ", "))
	}
	b.WriteString(alignRows(rows))
}

// percentCell renders a percent reading, dim when unavailable.
func (r *Renderer) percentCell(snap *metric.Snapshot, id metric.DeviceID, kind metric.Kind, format string) string {
	if v, ok := snap.Value(id, kind); ok {
		return r.pal.pct(format, int(math.Round(v)))
	}

	return " " + r.pal.unavailableStyle().Render(unavailable)
}

// tempCell renders the CPU package temperature from the thermal source.
func (r *Renderer) tempCell(snap *metric.Snapshot, inv *Inventory) string {
	if inv.CPUTemp == nil {
		return ""
	}
	if v, ok := snap.Value(inv.CPUTemp.ID, metric.Temperature); ok {
		return r.pal.pct("%4d°C", int(math.Round(v)))
	}

	return " " + r.pal.unavailableStyle().Render(unavailable)
}

// powerCell renders "draw/limit" watts colored by percent of limit.
func (r *Renderer) powerCell(snap *metric.Snapshot, g *GPU) string {
	if !g.Device.Has(metric.Power) {
		return ""
	}
	v, ok := snap.Value(g.Device.ID, metric.Power)
	if !ok {
		return " " + r.pal.unavailableStyle().Render(unavailable)
	}
	limit := g.Device.Limit(metric.Power)
	pct := ratioPercent(v, limit)
	style := r.pal.percentStyle(pct)
	cell := " " + style.Render(fmt.Sprintf("%3.0fW", v))
	if limit > 0 {
		cell += r.pal.Dim.Render("/") + style.Render(fmt.Sprintf("%.0fW", limit))
	}

	return cell
}

// memBarCell renders the fill bar for a device carrying memory readings.
func (r *Renderer) memBarCell(snap *metric.Snapshot, id metric.DeviceID) string {
	used, uok := snap.Value(id, metric.MemoryUsed)
	total, tok := snap.Value(id, metric.MemoryTotal)
	if !uok || !tok {
		return "[" + strings.Repeat(" ", memBarWidth) + "] " + r.pal.unavailableStyle().Render(unavailable)
	}

	return memBar(r.pal, uint64(used), uint64(total), memBarWidth)
}

// clockCell renders one clock as a bar of its percent-of-max. The ratio is
// squared before coloring so idle clocks read cool.
func (r *Renderer) clockCell(snap *metric.Snapshot, d metric.Device, kind metric.Kind) string {
	v, ok := snap.Value(d.ID, kind)
	maxClock := d.Limit(kind)
	if !ok || maxClock <= 0 {
		return " " + r.pal.unavailableStyle().Render(gapGlyph)
	}
	ratio := v / maxClock
	pct := int(math.Round(ratio * ratio * 100))
	if pct > 100 {
		pct = 100
	}

	return " " + r.pal.percentStyle(pct).Render(percentBar(pct))
}
