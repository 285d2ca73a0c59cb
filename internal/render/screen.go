package render

import (
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"codeberg.org/mutker/hwtop/internal/config"
	"codeberg.org/mutker/hwtop/internal/errors"
)

// Fallback dimensions for plain mode when the output is not a terminal.
const (
	fallbackWidth  = 100
	fallbackHeight = 40
)

// Screen owns the terminal control sequences around frames. In plain mode
// every control method is a no-op and frames are appended as ordinary lines,
// which keeps piped output clean.
type Screen struct {
	out     *termenv.Output
	mode    config.Mode
	managed bool
	raw     bool
}

// NewScreen wraps the writer for a mode. raw reports whether the tty is in
// raw mode, where the kernel no longer turns LF into CR+LF and the screen
// has to emit the carriage returns itself.
func NewScreen(w io.Writer, mode config.Mode, raw bool) *Screen {
	return &Screen{
		out:     termenv.NewOutput(w),
		mode:    mode,
		managed: mode.AltScreen(),
		raw:     raw,
	}
}

// Enter switches to the alternate screen and hides the cursor.
func (s *Screen) Enter() {
	if !s.managed {
		return
	}
	s.out.AltScreen()
	s.out.HideCursor()
}

// Exit restores the main screen and cursor. Safe to call more than once.
func (s *Screen) Exit() {
	if !s.managed {
		return
	}
	s.out.ShowCursor()
	s.out.ExitAltScreen()
}

// Draw writes one frame. Managed modes repaint in place; plain mode appends
// the frame followed by a separator line.
func (s *Screen) Draw(frame string) {
	newline := "\n"
	if s.raw {
		frame = strings.ReplaceAll(frame, "\n", "\r\n")
		newline = "\r\n"
	}

	if s.managed {
		s.out.MoveCursor(1, 1)
		s.out.ClearScreen()
		io.WriteString(s.out, frame)
		return
	}

	io.WriteString(s.out, frame)
	io.WriteString(s.out, newline)
}

// Dimensions returns the terminal size. Managed modes require a real
// terminal; plain mode falls back to fixed dimensions so it works in a pipe.
func Dimensions(mode config.Mode) (width, height int, err error) {
	width, height, sizeErr := term.GetSize(int(os.Stdout.Fd()))
	if sizeErr == nil && width > 0 {
		return width, height, nil
	}

	if mode.AltScreen() {
		return 0, 0, errors.Wrap(ErrNotTerminal, sizeErr)
	}

	return fallbackWidth, fallbackHeight, nil
}
