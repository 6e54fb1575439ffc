// Package errors provides classified error primitives used across docmerge.
//
// A ClassifiedError carries a category (config, git, compose, ...), a severity
// and a retry strategy plus free-form context. Domain packages keep their own
// typed errors (git.SyncError, overlay.CollisionError) and classify them at the
// boundary so the CLI can map failures to exit codes without string parsing.
//
//	err := errors.GitError("fetch failed").
//		WithCategory(errors.CategoryNetwork).
//		WithContext("remote", url).
//		WithCause(cause).
//		Retryable().
//		Build()
package errors
