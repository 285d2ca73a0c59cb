package render

import (
	"sort"
	"strings"

	"codeberg.org/mutker/hwtop/internal/metric"
)

// GPU groups a GPU device with its fan devices.
type GPU struct {
	Device metric.Device
	Fans   []metric.Device
}

// Inventory is the device set grouped the way the dashboard lays it out.
// It is built once from the enumerated devices and reused every frame.
type Inventory struct {
	CPU   *metric.Device
	Cores []metric.Device

	GPUs []GPU

	RAM  *metric.Device
	Swap *metric.Device

	Nets   []metric.Device
	Drives []metric.Device

	CPUTemp   *metric.Device
	CoreTemps []metric.Device

	// Components are the remaining temperature sources (drives, radios,
	// motherboard), shown by the extra view.
	Components []metric.Device
}

func BuildInventory(devices []metric.Device) *Inventory {
	inv := &Inventory{}
	gpus := make(map[int]*GPU)
	var gpuOrder []int

	for _, d := range devices {
		d := d
		switch d.Vendor {
		case metric.VendorCPU:
			if d.ID == "cpu" {
				inv.CPU = &d
			} else {
				inv.Cores = append(inv.Cores, d)
			}
		case metric.VendorNvidia:
			if strings.Contains(string(d.ID), ":fan:") {
				g := gpuFor(gpus, &gpuOrder, gpuIndexOf(d.ID))
				g.Fans = append(g.Fans, d)
			} else {
				g := gpuFor(gpus, &gpuOrder, d.Index)
				g.Device = d
			}
		case metric.VendorSystem:
			if d.ID == "swap" {
				inv.Swap = &d
			} else {
				inv.RAM = &d
			}
		case metric.VendorNetwork:
			inv.Nets = append(inv.Nets, d)
		case metric.VendorDrive:
			inv.Drives = append(inv.Drives, d)
		case metric.VendorThermal:
			switch {
			case d.ID == "thermal:cpu":
				inv.CPUTemp = &d
			case strings.HasPrefix(string(d.ID), "thermal:core:"):
				inv.CoreTemps = append(inv.CoreTemps, d)
			default:
				inv.Components = append(inv.Components, d)
			}
		}
	}

	sort.Ints(gpuOrder)
	for _, i := range gpuOrder {
		inv.GPUs = append(inv.GPUs, *gpus[i])
	}

	return inv
}

func gpuFor(gpus map[int]*GPU, order *[]int, index int) *GPU {
	g, ok := gpus[index]
	if !ok {
		g = &GPU{}
		gpus[index] = g
		*order = append(*order, index)
	}

	return g
}

// gpuIndexOf extracts the GPU index from a fan device ID of the form
// "gpu:<n>:fan:<m>".
func gpuIndexOf(id metric.DeviceID) int {
	parts := strings.Split(string(id), ":")
	if len(parts) < 2 {
		return 0
	}

	n := 0
	for _, c := range parts[1] {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}

	return n
}
