package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Transform is a world transform: a pose plus a per-axis scale. A zero Scale is treated as
// unit scale so that the zero Transform is the identity.
type Transform struct {
	Pose  Pose
	Scale r3.Vector
}

// NewTransform returns a transform with the given pose and unit scale.
func NewTransform(pose Pose) Transform {
	return Transform{Pose: pose, Scale: r3.Vector{X: 1, Y: 1, Z: 1}}
}

// UnitScale returns the effective scale of the transform.
func (t Transform) UnitScale() r3.Vector {
	if t.Scale == (r3.Vector{}) {
		return r3.Vector{X: 1, Y: 1, Z: 1}
	}
	return t.Scale
}

// Apply maps a local point into the parent frame: scale, rotate, then translate.
func (t Transform) Apply(v r3.Vector) r3.Vector {
	return t.Pose.TransformPoint(mulElem(t.UnitScale(), v))
}

// Compose returns the transform of a child posed at offset within t. The child keeps the parent's
// scale, and its position is scaled by it.
func (t Transform) Compose(offset Pose) Transform {
	scale := t.UnitScale()
	local := Pose{point: mulElem(scale, offset.point), orientation: offset.orientation}
	return Transform{Pose: Compose(t.Pose, local), Scale: scale}
}

func mulElem(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

func maxComponent(v r3.Vector) float64 {
	return max(v.X, v.Y, v.Z)
}

// Scaled returns t with its scale multiplied component-wise by s. A zero s is unit scale.
func (t Transform) Scaled(s r3.Vector) Transform {
	if s == (r3.Vector{}) {
		return t
	}
	return Transform{Pose: t.Pose, Scale: mulElem(t.UnitScale(), s)}
}
