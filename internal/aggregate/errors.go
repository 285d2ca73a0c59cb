package aggregate

import "codeberg.org/mutker/hwtop/internal/errors"

const (
	ErrNoSources = errors.ErrorCode("aggregate_no_sources")
	ErrNoData    = errors.ErrorCode("aggregate_no_data")
)
