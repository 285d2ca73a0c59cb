package config

import "codeberg.org/mutker/hwtop/internal/errors"

const (
	ErrInvalidLogLevel = errors.ErrorCode("config_invalid_log_level")
)
