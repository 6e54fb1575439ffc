package augment

import stderrors "errors"

var (
	// ErrDisabled is returned by NoopProvider.
	ErrDisabled = stderrors.New("augmentation disabled")
	// ErrToolNotFound indicates the build tool is not installed.
	ErrToolNotFound = stderrors.New("build tool not found")
	// ErrExecutionFailed indicates a configure or build command exited unsuccessfully.
	ErrExecutionFailed = stderrors.New("augmentation command failed")
	// ErrOutputMissing indicates the build succeeded without producing the output directory.
	ErrOutputMissing = stderrors.New("augmentation output directory missing")
)
