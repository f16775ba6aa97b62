// Package narrowphase computes exact overlap and contact geometry between two convex shapes given
// only their support functions: GJK decides overlap and EPA measures penetration.
package narrowphase

import (
	"github.com/golang/geo/r3"
)

// Supporter is a convex shape placed in the world.
type Supporter interface {
	// Support returns the point of the shape farthest along dir.
	Support(dir r3.Vector) r3.Vector
	// Center returns any point interior to the shape.
	Center() r3.Vector
}

// Vertex is a point of the Minkowski difference A - B together with the support points of A and
// B it was made from, so witness points can be recovered.
type Vertex struct {
	P r3.Vector
	A r3.Vector
	B r3.Vector
}

// minkowskiSupport returns support_A(d) - support_B(-d), a support point of the Minkowski
// difference A - B in direction d.
func minkowskiSupport[A, B Supporter](a A, b B, d r3.Vector) Vertex {
	pa := a.Support(d)
	pb := b.Support(d.Mul(-1))
	return Vertex{P: pa.Sub(pb), A: pa, B: pb}
}

// Simplex is the set of Minkowski vertices GJK ends with.
type Simplex struct {
	Vertices [4]Vertex
	Count    int
}

func (s *Simplex) push(v Vertex) {
	s.Vertices[s.Count] = v
	s.Count++
}

func (s *Simplex) set(vs ...Vertex) {
	s.Count = copy(s.Vertices[:], vs)
}

// Points returns the Minkowski points of the simplex.
func (s *Simplex) Points() []r3.Vector {
	pts := make([]r3.Vector, s.Count)
	for i := range pts {
		pts[i] = s.Vertices[i].P
	}
	return pts
}
