package narrowphase

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Contact describes how two overlapping shapes A and B interpenetrate.
type Contact struct {
	// Normal is the unit direction from A toward B along which moving B by Depth separates them.
	Normal r3.Vector
	// Depth is the penetration depth.
	Depth float64
	// PointA and PointB are the deepest points of A inside B and of B inside A.
	PointA r3.Vector
	PointB r3.Vector
	// Degenerate is set when EPA did not converge. Depth is then zero and the other fields are unset.
	Degenerate bool
}

// Flip returns the same contact seen from B.
func (c Contact) Flip() Contact {
	return Contact{
		Normal:     c.Normal.Mul(-1),
		Depth:      c.Depth,
		PointA:     c.PointB,
		PointB:     c.PointA,
		Degenerate: c.Degenerate,
	}
}

// String returns a human readable string that represents the contact.
func (c Contact) String() string {
	if c.Degenerate {
		return "Contact{degenerate}"
	}
	return fmt.Sprintf("Contact{Normal:(%.3f, %.3f, %.3f) Depth:%.4f}", c.Normal.X, c.Normal.Y, c.Normal.Z, c.Depth)
}

// Collide runs GJK and, on overlap, EPA.
func Collide[A, B Supporter](a A, b B, cfg Config) (Contact, bool) {
	hit, simplex := GJK(a, b, cfg)
	if !hit {
		return Contact{}, false
	}
	return EPA(a, b, simplex, cfg), true
}

// SphereContact returns the exact contact of two overlapping spheres. Depth follows the EPA
// convention of adding tol. Concentric spheres separate along +X.
func SphereContact(centerA r3.Vector, radiusA float64, centerB r3.Vector, radiusB, tol float64) Contact {
	delta := centerB.Sub(centerA)
	dist := delta.Norm()
	normal := r3.Vector{X: 1}
	if dist > degenerateEpsilon {
		normal = delta.Mul(1 / dist)
	}
	return Contact{
		Normal: normal,
		Depth:  radiusA + radiusB - dist + tol,
		PointA: centerA.Add(normal.Mul(radiusA)),
		PointB: centerB.Sub(normal.Mul(radiusB)),
	}
}

// SphereSurfaceContact returns the exact contact of a sphere A overlapping a flat shape B, given
// the point of B closest to the sphere's center. When the center lies on B the contact separates
// along fallback, which should point from A into B.
func SphereSurfaceContact(center r3.Vector, radius float64, closest, fallback r3.Vector, tol float64) Contact {
	delta := closest.Sub(center)
	dist := delta.Norm()
	normal := fallback.Normalize()
	if dist > degenerateEpsilon {
		normal = delta.Mul(1 / dist)
	}
	return Contact{
		Normal: normal,
		Depth:  radius - dist + tol,
		PointA: center.Add(normal.Mul(radius)),
		PointB: closest,
	}
}
