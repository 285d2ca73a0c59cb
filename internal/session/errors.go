package session

import "codeberg.org/mutker/hwtop/internal/errors"

const (
	ErrInvalidSample = errors.ErrorCode("session_invalid_sample")

	ErrStorageInit   = errors.ErrorCode("session_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("session_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("session_storage_close_failed")
)
