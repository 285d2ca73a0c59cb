package config

import "codeberg.org/mutker/hwtop/internal/errors"

// Mode selects the rendering behavior for the process lifetime. It is fixed
// at startup; there is no runtime mode switching.
type Mode string

const (
	// ModeSensors is the default live dashboard on the alternate screen.
	ModeSensors Mode = "sensors"

	// ModeInfo prints a static hardware inventory and exits.
	ModeInfo Mode = "info"

	// ModeExtra is the sensors dashboard plus secondary sections.
	ModeExtra Mode = "extra"

	// ModePlain is the live dashboard without terminal control sequences or
	// color, suitable for pipes and dumb terminals.
	ModePlain Mode = "plain"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSensors, ModeInfo, ModeExtra, ModePlain:
		return Mode(s), nil
	default:
		return "", errors.WithData(errors.ErrInvalidMode, s)
	}
}

// Live reports whether the mode repeats rendering every tick.
func (m Mode) Live() bool {
	return m != ModeInfo
}

// Color reports whether the mode styles its output.
func (m Mode) Color() bool {
	return m == ModeSensors || m == ModeExtra
}

// AltScreen reports whether the mode drives the terminal alternate screen.
func (m Mode) AltScreen() bool {
	return m == ModeSensors || m == ModeExtra
}

// ShowExtra reports whether secondary sections are included.
func (m Mode) ShowExtra() bool {
	return m == ModeExtra
}

func (m Mode) String() string {
	return string(m)
}
