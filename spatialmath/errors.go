package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrUnsupportedShape is returned, or panicked with, when a shape tag outside the known set is used.
var ErrUnsupportedShape = errors.New("unsupported shape")

func newBadGeometryDimensionsError(t ShapeType) error {
	return errors.Errorf("invalid dimension(s) for geometry type %q", t)
}

func newBadCapsuleLengthError(length, radius float64) error {
	return errors.Errorf("capsule given length %.3f must be at least 2*radius (%.3f)", length, 2*radius)
}

func newGeometryTypeUnsupportedError(geomType string) error {
	return errors.Wrapf(ErrUnsupportedShape, "geometry type %q", geomType)
}

func newBadScaleError(scale r3.Vector) error {
	return errors.Errorf("scale %v must be positive on every axis", scale)
}
