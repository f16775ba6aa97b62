package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a position and an orientation. The zero Pose is the identity.
type Pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return Pose{orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a pose with the given position and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{point: point, orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose with the given position and orientation. A nil orientation means no rotation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	return Pose{point: point, orientation: normalize(o.Quaternion())}
}

// Point returns the position of the pose.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the orientation of the pose as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	return normalize(p.orientation)
}

// Translated returns the pose moved by d in the parent frame.
func (p Pose) Translated(d r3.Vector) Pose {
	return Pose{point: p.point.Add(d), orientation: p.orientation}
}

// RotationMatrix returns the rotation part of the pose.
func (p Pose) RotationMatrix() RotationMatrix {
	return QuatToRotationMatrix(p.orientation)
}

// TransformPoint maps a point from the pose's local frame into the parent frame.
func (p Pose) TransformPoint(v r3.Vector) r3.Vector {
	return p.RotationMatrix().Mul(v).Add(p.point)
}

// String returns a human readable representation of the pose.
func (p Pose) String() string {
	q := p.Orientation()
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f | Q:%.3f,%.3f,%.3f,%.3f}",
		p.point.X, p.point.Y, p.point.Z, q.Real, q.Imag, q.Jmag, q.Kmag)
}

// Compose returns the pose b expressed in the parent frame of a.
func Compose(a, b Pose) Pose {
	return Pose{
		point:       a.TransformPoint(b.point),
		orientation: normalize(quat.Mul(a.Orientation(), b.Orientation())),
	}
}

// PoseAlmostEqual returns whether two poses are within a small tolerance of each other.
func PoseAlmostEqual(a, b Pose) bool {
	const tol = 1e-6
	return a.point.Sub(b.point).Norm2() < tol*tol &&
		QuaternionAlmostEqual(a.Orientation(), b.Orientation(), tol)
}
