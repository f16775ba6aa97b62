package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ShapeType tags the variant held by a Shape.
type ShapeType uint8

// The closed set of supported convex shapes. The zero value is deliberately invalid.
const (
	UnknownType ShapeType = iota
	SphereType
	BoxType
	CapsuleType
	ConvexHullType
	TriangleType
)

func (t ShapeType) String() string {
	switch t {
	case SphereType:
		return "sphere"
	case BoxType:
		return "box"
	case CapsuleType:
		return "capsule"
	case ConvexHullType:
		return "convex_hull"
	case TriangleType:
		return "triangle"
	case UnknownType:
		return "unknown"
	default:
		return fmt.Sprintf("shape(%d)", uint8(t))
	}
}

// Shape is a convex collision shape in its own local frame, centered on the origin except for
// hulls and triangles whose points are given explicitly. Only the fields used by Type are set.
//
// Capsules are aligned with the local Z axis. Length is tip to tip, as for a capsule of a
// robot link.
type Shape struct {
	Type     ShapeType
	HalfSize r3.Vector
	Radius   float64
	Length   float64
	Points   []r3.Vector
}

// NewSphere instantiates a new sphere Shape.
func NewSphere(radius float64) (Shape, error) {
	if radius <= 0 {
		return Shape{}, newBadGeometryDimensionsError(SphereType)
	}
	return Shape{Type: SphereType, Radius: radius}, nil
}

// NewBox instantiates a new box Shape with the given full dimensions.
func NewBox(dims r3.Vector) (Shape, error) {
	// Zero dimensions are allowed, a flat box is still convex.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return Shape{}, newBadGeometryDimensionsError(BoxType)
	}
	return Shape{Type: BoxType, HalfSize: dims.Mul(0.5)}, nil
}

// NewCapsule instantiates a new capsule Shape of the given radius and tip to tip length.
func NewCapsule(radius, length float64) (Shape, error) {
	if radius <= 0 || length <= 0 {
		return Shape{}, newBadGeometryDimensionsError(CapsuleType)
	}
	if length < radius*2 {
		return Shape{}, newBadCapsuleLengthError(length, radius)
	}
	if length == radius*2 {
		return NewSphere(radius)
	}
	return Shape{Type: CapsuleType, Radius: radius, Length: length}, nil
}

// NewConvexHull instantiates the convex hull of the given points. Interior points are allowed
// and never returned as support points.
func NewConvexHull(points []r3.Vector) (Shape, error) {
	if len(points) == 0 {
		return Shape{}, newBadGeometryDimensionsError(ConvexHullType)
	}
	pts := make([]r3.Vector, len(points))
	copy(pts, points)
	return Shape{Type: ConvexHullType, Points: pts}, nil
}

// NewTriangleShape instantiates a single triangle as a flat convex shape.
func NewTriangleShape(p0, p1, p2 r3.Vector) (Shape, error) {
	if p1.Sub(p0).Cross(p2.Sub(p0)).Norm2() < floatEpsilon*floatEpsilon {
		return Shape{}, newBadGeometryDimensionsError(TriangleType)
	}
	return Shape{Type: TriangleType, Points: []r3.Vector{p0, p1, p2}}, nil
}

// Validate checks that the shape is one of the known variants with sane dimensions.
func (s Shape) Validate() error {
	switch s.Type {
	case SphereType:
		if s.Radius <= 0 {
			return newBadGeometryDimensionsError(s.Type)
		}
	case BoxType:
		if s.HalfSize.X < 0 || s.HalfSize.Y < 0 || s.HalfSize.Z < 0 {
			return newBadGeometryDimensionsError(s.Type)
		}
	case CapsuleType:
		if s.Radius <= 0 || s.Length <= 0 {
			return newBadGeometryDimensionsError(s.Type)
		}
		if s.Length < 2*s.Radius {
			return newBadCapsuleLengthError(s.Length, s.Radius)
		}
	case ConvexHullType:
		if len(s.Points) == 0 {
			return newBadGeometryDimensionsError(s.Type)
		}
	case TriangleType:
		if len(s.Points) != 3 {
			return newBadGeometryDimensionsError(s.Type)
		}
	case UnknownType:
		return errors.Wrapf(ErrUnsupportedShape, "shape type %v", s.Type)
	default:
		return errors.Wrapf(ErrUnsupportedShape, "shape type %v", s.Type)
	}
	return nil
}

// LocalSupport returns the point of the shape farthest along d, in the shape's local frame.
// It is the single dispatch point over shape variants; an unknown variant panics with
// ErrUnsupportedShape since Validate should have rejected it.
func (s Shape) LocalSupport(d r3.Vector) r3.Vector {
	switch s.Type {
	case SphereType:
		return sphereSupport(s.Radius, d)
	case BoxType:
		return boxSupport(s.HalfSize, d)
	case CapsuleType:
		half := s.Length/2 - s.Radius
		end := r3.Vector{Z: half}
		if d.Z < 0 {
			end.Z = -half
		}
		return end.Add(sphereSupport(s.Radius, d))
	case ConvexHullType, TriangleType:
		return pointsSupport(s.Points, d)
	case UnknownType:
		panic(errors.Wrapf(ErrUnsupportedShape, "support of shape type %v", s.Type))
	default:
		panic(errors.Wrapf(ErrUnsupportedShape, "support of shape type %v", s.Type))
	}
}

// LocalCenter returns a point interior to the shape in its local frame.
func (s Shape) LocalCenter() r3.Vector {
	if s.Type != ConvexHullType && s.Type != TriangleType {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range s.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(s.Points)))
}

// BoundingRadius returns the radius of a sphere about LocalCenter that holds the whole shape.
func (s Shape) BoundingRadius() float64 {
	switch s.Type {
	case SphereType:
		return s.Radius
	case BoxType:
		return s.HalfSize.Norm()
	case CapsuleType:
		return s.Length / 2
	case ConvexHullType, TriangleType:
		c := s.LocalCenter()
		r := 0.
		for _, p := range s.Points {
			r = math.Max(r, p.Sub(c).Norm())
		}
		return r
	case UnknownType:
		return 0
	default:
		return 0
	}
}

// String returns a human readable string that represents the shape.
func (s Shape) String() string {
	switch s.Type {
	case SphereType:
		return fmt.Sprintf("Type: Sphere | Radius: %.3f", s.Radius)
	case BoxType:
		return fmt.Sprintf("Type: Box | Dims: X:%.3f, Y:%.3f, Z:%.3f", 2*s.HalfSize.X, 2*s.HalfSize.Y, 2*s.HalfSize.Z)
	case CapsuleType:
		return fmt.Sprintf("Type: Capsule | Radius: %.3f | Length: %.3f", s.Radius, s.Length)
	case ConvexHullType, TriangleType:
		return fmt.Sprintf("Type: %s | Points: %d", s.Type, len(s.Points))
	case UnknownType:
		return "Type: unknown"
	default:
		return fmt.Sprintf("Type: %s", s.Type)
	}
}

// boxSupport returns the support point (farthest vertex) of an origin-centered box in the given
// direction. Ties along an axis resolve to the positive face.
func boxSupport(halfSize, d r3.Vector) r3.Vector {
	result := halfSize
	if d.X < 0 {
		result.X = -halfSize.X
	}
	if d.Y < 0 {
		result.Y = -halfSize.Y
	}
	if d.Z < 0 {
		result.Z = -halfSize.Z
	}
	return result
}

func sphereSupport(radius float64, d r3.Vector) r3.Vector {
	n := d.Norm()
	if n < floatEpsilon {
		return r3.Vector{X: radius}
	}
	return d.Mul(radius / n)
}

func pointsSupport(points []r3.Vector, d r3.Vector) r3.Vector {
	best := points[0]
	bestDot := best.Dot(d)
	for _, p := range points[1:] {
		if dot := p.Dot(d); dot > bestDot {
			best, bestDot = p, dot
		}
	}
	return best
}
