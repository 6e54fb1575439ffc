package compose

import (
	stderrors "errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/git"
	"git.home.luguber.info/inful/docmerge/internal/overlay"
)

// Stage identifies the composition step that failed.
type Stage string

const (
	StageLayout  Stage = "layout"
	StageSync    Stage = "sync"
	StageMapping Stage = "mapping"
)

var (
	// ErrMissingSource is wrapped when a required mapping source does not exist.
	ErrMissingSource = stderrors.New("required mapping source is missing")
	// ErrMissingOverride is wrapped when a repository override path does not exist.
	ErrMissingOverride = stderrors.New("override path does not exist")
)

// Failure wraps the error that aborted a composition.
type Failure struct {
	Stage        Stage
	Repository   string
	Mapping      string
	MappingIndex int
	Err          error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "composition failed at %s", f.Stage)
	if f.Repository != "" {
		fmt.Fprintf(&b, " (repository %s)", f.Repository)
	}
	if f.Mapping != "" {
		fmt.Fprintf(&b, " (mapping %d %s)", f.MappingIndex, f.Mapping)
	}
	fmt.Fprintf(&b, ": %v", f.Err)
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify converts a composition error into a ClassifiedError. Sync and
// collision errors keep their own categories; everything else is a compose error.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	var se *git.SyncError
	if stderrors.As(err, &se) {
		return git.ClassifySyncError(err)
	}
	if stderrors.Is(err, overlay.ErrCollision) {
		return overlay.ClassifyCollision(err)
	}

	b := errors.ComposeError("source composition failed").WithCause(err)
	var f *Failure
	if stderrors.As(err, &f) {
		b = b.WithContext("stage", string(f.Stage))
		if f.Repository != "" {
			b = b.WithContext("repository", f.Repository)
		}
		if f.Mapping != "" {
			b = b.WithContext("mapping", f.Mapping)
		}
	}
	if stderrors.Is(err, ErrMissingSource) || stderrors.Is(err, ErrMissingOverride) {
		b = b.UserAction()
	}
	return b.Build()
}
