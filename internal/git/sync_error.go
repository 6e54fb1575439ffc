package git

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

// ErrorKind is the coarse cause of a synchronization failure.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindNotFound        ErrorKind = "not_found"
	KindRevision        ErrorKind = "revision"
	KindNetwork         ErrorKind = "network"
	KindInvalidWorktree ErrorKind = "invalid_worktree"
	KindUnknown         ErrorKind = "unknown"
)

var (
	errEmptyPath      = stderrors.New("local path is empty")
	errEmptyRevision  = stderrors.New("revision is empty")
	errNotARepository = stderrors.New("path exists but is not a git working copy")
	// ErrUnknownRevision is wrapped when no ref or commit matches the revision.
	ErrUnknownRevision = stderrors.New("unknown revision")
)

// SyncError reports a failed clone, fetch or checkout.
type SyncError struct {
	Op       string // clone|fetch|open|resolve|checkout|auth
	Remote   string
	Path     string
	Revision string
	Kind     ErrorKind
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("git %s failed (%s) remote=%s path=%s revision=%s: %v", e.Op, e.Kind, e.Remote, e.Path, e.Revision, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Permanent reports whether retrying cannot help.
func (e *SyncError) Permanent() bool {
	switch e.Kind {
	case KindAuth, KindNotFound, KindRevision, KindInvalidWorktree:
		return true
	default:
		return false
	}
}

// IsPermanent reports whether err is a SyncError that must not be retried.
func IsPermanent(err error) bool {
	var se *SyncError
	return stderrors.As(err, &se) && se.Permanent()
}

func newSyncError(op string, spec RepositorySpec, err error) *SyncError {
	return &SyncError{
		Op:       op,
		Remote:   spec.RemoteURL,
		Path:     spec.LocalPath,
		Revision: spec.Revision,
		Kind:     classifyKind(err),
		Err:      err,
	}
}

// classifyKind maps go-git sentinels first and falls back to message
// heuristics, which also cover git command line output.
func classifyKind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed):
		return KindAuth
	case stderrors.Is(err, transport.ErrRepositoryNotFound),
		stderrors.Is(err, transport.ErrEmptyRemoteRepository):
		return KindNotFound
	case stderrors.Is(err, git.ErrRepositoryNotExists),
		stderrors.Is(err, errNotARepository),
		stderrors.Is(err, git.ErrRemoteNotFound):
		return KindInvalidWorktree
	case stderrors.Is(err, ErrUnknownRevision),
		stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return KindRevision
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication failed") || strings.Contains(l, "authentication required") ||
		strings.Contains(l, "could not read username") || strings.Contains(l, "permission denied") ||
		strings.Contains(l, "invalid credentials") || strings.Contains(l, "not authorized"):
		return KindAuth
	case strings.Contains(l, "not a git repository"):
		return KindInvalidWorktree
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not appear to be a git repository") ||
		strings.Contains(l, "does not exist"):
		return KindNotFound
	case strings.Contains(l, "could not resolve host") || strings.Contains(l, "no such host") ||
		strings.Contains(l, "connection refused") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "timeout") || strings.Contains(l, "timed out") ||
		strings.Contains(l, "network is unreachable") || strings.Contains(l, "no route to host") ||
		strings.Contains(l, "remote hung up") || strings.Contains(l, "unable to access"):
		return KindNetwork
	case strings.Contains(l, "unknown revision") || strings.Contains(l, "reference not found") ||
		strings.Contains(l, "did not match any"):
		return KindRevision
	}
	return KindUnknown
}

// ClassifySyncError converts a SyncError into a ClassifiedError for CLI
// reporting. Other errors are returned unchanged.
func ClassifySyncError(err error) error {
	var se *SyncError
	if !stderrors.As(err, &se) {
		return err
	}

	b := errors.GitError(fmt.Sprintf("git %s failed for %s", se.Op, se.Remote)).
		WithCause(err).
		WithContext("op", se.Op).
		WithContext("remote", se.Remote).
		WithContext("path", se.Path).
		WithContext("revision", se.Revision).
		WithContext("kind", string(se.Kind))

	switch se.Kind {
	case KindAuth:
		b.WithCategory(errors.CategoryAuth).UserAction()
	case KindNotFound:
		b.WithCategory(errors.CategoryNotFound).UserAction()
	case KindNetwork:
		b.WithCategory(errors.CategoryNetwork).Retryable()
	case KindRevision, KindInvalidWorktree:
		b.UserAction()
	}
	return b.Build()
}
