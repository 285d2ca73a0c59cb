package render

import "codeberg.org/mutker/hwtop/internal/errors"

const (
	ErrNotTerminal = errors.ErrorCode("render_not_a_terminal")
)
