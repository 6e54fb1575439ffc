package build

import "errors"

// ErrDegradedFailed is wrapped by the error returned when both strategies fail.
var ErrDegradedFailed = errors.New("docmerge: degraded composition failed")
