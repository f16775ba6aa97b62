package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// floatEpsilon is the tolerance below which lengths are treated as zero.
const floatEpsilon = 1e-9

var worldAxes = [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}

// Volume is a Shape placed in the world by a Transform. It is the unit the narrow phase works on.
type Volume struct {
	Shape     Shape
	Transform Transform

	rot RotationMatrix
}

// NewVolume validates the shape and scale and places the shape at the given transform.
func NewVolume(shape Shape, transform Transform) (Volume, error) {
	if err := shape.Validate(); err != nil {
		return Volume{}, err
	}
	scale := transform.UnitScale()
	if scale.X <= 0 || scale.Y <= 0 || scale.Z <= 0 {
		return Volume{}, newBadScaleError(scale)
	}
	transform.Scale = scale
	return Volume{Shape: shape, Transform: transform, rot: transform.Pose.RotationMatrix()}, nil
}

// MustVolume is like NewVolume but panics on error. It is meant for tests and fixed fixtures.
func MustVolume(shape Shape, transform Transform) Volume {
	v, err := NewVolume(shape, transform)
	if err != nil {
		panic(errors.Wrap(err, "invalid volume"))
	}
	return v
}

// Support returns the point of the placed volume farthest along the world direction d.
func (v Volume) Support(d r3.Vector) r3.Vector {
	scale := v.Transform.Scale
	local := mulElem(scale, v.rot.TransposeMul(d))
	return v.toWorld(v.Shape.LocalSupport(local))
}

// Center returns a world point interior to the volume.
func (v Volume) Center() r3.Vector {
	return v.toWorld(v.Shape.LocalCenter())
}

func (v Volume) toWorld(p r3.Vector) r3.Vector {
	return v.rot.Mul(mulElem(v.Transform.Scale, p)).Add(v.Transform.Pose.Point())
}

// BoundingSphere returns a conservative sphere around the volume.
func (v Volume) BoundingSphere() BoundingSphere {
	return BoundingSphere{
		Center: v.Center(),
		Radius: v.Shape.BoundingRadius() * maxComponent(v.Transform.Scale),
	}
}

// Sphere returns the exact sphere the volume occupies when it is a uniformly scaled sphere.
func (v Volume) Sphere() (BoundingSphere, bool) {
	scale := v.Transform.Scale
	if v.Shape.Type != SphereType || scale.X != scale.Y || scale.Y != scale.Z {
		return BoundingSphere{}, false
	}
	return BoundingSphere{Center: v.Transform.Pose.Point(), Radius: v.Shape.Radius * scale.X}, true
}

// Triangle returns the volume as a world-space triangle when its shape is one.
func (v Volume) Triangle() (*Triangle, bool) {
	if v.Shape.Type != TriangleType || len(v.Shape.Points) != 3 {
		return nil, false
	}
	pts := v.Shape.Points
	return NewTriangle(v.toWorld(pts[0]), v.toWorld(pts[1]), v.toWorld(pts[2])), true
}

// AABB returns the tight axis-aligned box of the volume, found from its support points.
func (v Volume) AABB() AABB {
	var box AABB
	for i, axis := range worldAxes {
		hi := v.Support(axis)
		lo := v.Support(axis.Mul(-1))
		switch i {
		case 0:
			box.Min.X, box.Max.X = lo.X, hi.X
		case 1:
			box.Min.Y, box.Max.Y = lo.Y, hi.Y
		default:
			box.Min.Z, box.Max.Z = lo.Z, hi.Z
		}
	}
	return box
}

// String returns a human readable string that represents the volume.
func (v Volume) String() string {
	return v.Shape.String() + " | Pose: " + v.Transform.Pose.String()
}
