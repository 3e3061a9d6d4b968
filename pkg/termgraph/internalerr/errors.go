package internalerr

import "github.com/pkg/errors"

// Sentinel errors for common cases
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrDetectionFailed       = errors.New("community detection failed")
)
