package overlay

import (
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

// ErrCollision is wrapped by every *CollisionError.
var ErrCollision = stderrors.New("destination already exists")

// Copy modes reported on a CollisionError.
const (
	ModeReplaceTree = "replace-tree"
	ModeOverlay     = "overlay"
)

// CollisionError reports a destination that cannot be written: a
// replace-tree destination that already exists, or a file landing on an
// existing directory. It indicates a misordered mapping sequence.
type CollisionError struct {
	MappingIndex int
	Mapping      string
	Mode         string
	Path         string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s collision for mapping %d (%s): %s: %v", e.Mode, e.MappingIndex, e.Mapping, e.Path, ErrCollision)
}

func (e *CollisionError) Unwrap() error { return ErrCollision }

// ClassifyCollision converts a CollisionError into a fatal already_exists
// ClassifiedError. Other errors are returned unchanged.
func ClassifyCollision(err error) error {
	var ce *CollisionError
	if !stderrors.As(err, &ce) {
		return err
	}
	return errors.NewError(errors.CategoryAlreadyExists, "mapping destination already exists").
		WithCause(err).
		WithContext("path", ce.Path).
		WithContext("mode", ce.Mode).
		WithContext("mapping", ce.Mapping).
		WithContext("mapping_index", ce.MappingIndex).
		Fatal().
		UserAction().
		Build()
}
