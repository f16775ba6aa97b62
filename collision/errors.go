package collision

import "github.com/pkg/errors"

var (
	// ErrUnknownHandle is returned when removing a handle that owns no collider.
	ErrUnknownHandle = errors.New("handle has no collider")
	// ErrDuplicateHandle is returned when adding a second collider for one handle.
	ErrDuplicateHandle = errors.New("handle already has a collider")
)

func newMissingTransformError(h Handle) error {
	return errors.Errorf("no transform for static collider %d", h)
}
