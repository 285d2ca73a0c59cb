package source

import "codeberg.org/mutker/hwtop/internal/errors"

const (
	// Enumeration errors
	ErrEnumerationFailed = errors.ErrorCode("source_enumeration_failed")
	ErrNoDevices         = errors.ErrorCode("source_no_devices")

	// Backend errors
	ErrBackendUnreachable = errors.ErrorCode("source_backend_unreachable")
	ErrNVMLFailure        = errors.ErrorCode("source_nvml_failure")
	ErrShutdownFailed     = errors.ErrorCode("source_shutdown_failed")
)
