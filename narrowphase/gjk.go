package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// originEpsilon is the squared distance under which the origin is taken to lie on the simplex.
	originEpsilon = 1e-18
	// degenerateEpsilon is the squared length under which a cross product is treated as zero.
	degenerateEpsilon = 1e-24
)

// GJK reports whether a and b overlap. On overlap the returned simplex is a tetrahedron of the
// Minkowski difference A - B holding the origin, ready for EPA.
//
// Shapes whose surfaces are within cfg.Tolerance of each other but do not overlap further are
// reported as not overlapping. Every iteration either ends the search or adds a support point
// strictly past the origin, so running out of iterations only happens when cfg.MaxIterations is
// smaller than the shapes need; it reports no overlap.
func GJK[A, B Supporter](a A, b B, cfg Config) (bool, Simplex) {
	var s Simplex
	d := b.Center().Sub(a.Center())
	if d.Norm2() < originEpsilon {
		d = r3.Vector{X: 1}
	}
	s.push(minkowskiSupport(a, b, d))
	v := s.Vertices[0].P

	for i := 0; i < cfg.MaxIterations; i++ {
		if v.Norm2() < originEpsilon {
			hit := s.enclose(a, b, cfg.Tolerance)
			return hit, s
		}
		d = v.Mul(-1)
		w := minkowskiSupport(a, b, d)
		if w.P.Dot(d.Normalize()) <= cfg.Tolerance {
			return false, s
		}
		s.push(w)

		if s.Count == 4 {
			if inside, valid := originInTetrahedron(s.Points()); valid && inside {
				return marginExceeded(a, b, &s, cfg.Tolerance), s
			}
		}

		var reduced []Vertex
		v, reduced = closestOnSimplex(&s)
		s.set(reduced...)
	}
	return false, s
}

// enclose grows a simplex the origin lies on into a tetrahedron around it. Each new vertex must
// reach more than tol off the simplex on one side or the other. When neither side does, the
// Minkowski difference is flat around the origin and the shapes only touch.
func (s *Simplex) enclose(a, b Supporter, tol float64) bool {
	for attempt := 0; s.Count < 4; attempt++ {
		if attempt > 3 {
			return false
		}
		var dir r3.Vector
		switch s.Count {
		case 2:
			ab := s.Vertices[1].P.Sub(s.Vertices[0].P)
			if ab.Norm2() <= degenerateEpsilon {
				return false
			}
			dir = perpendicular(ab)
		case 3:
			p0, p1, p2 := s.Vertices[0].P, s.Vertices[1].P, s.Vertices[2].P
			dir = p1.Sub(p0).Cross(p2.Sub(p0))
			if dir.Norm2() <= degenerateEpsilon {
				// Collinear: the longest edge spans the other vertex and still holds the origin.
				s.set(s.longestEdge()...)
				continue
			}
		default:
			// A lone vertex at the origin is a support point there: the shapes touch.
			return false
		}
		w, ok := offSupport(a, b, dir, tol)
		if !ok {
			return false
		}
		s.push(w)
	}
	if _, valid := originInTetrahedron(s.Points()); !valid {
		return false
	}
	return marginExceeded(a, b, s, tol)
}

// offSupport returns a Minkowski support point more than tol past the origin along dir or -dir.
func offSupport(a, b Supporter, dir r3.Vector, tol float64) (Vertex, bool) {
	n := dir.Normalize()
	for _, d := range [2]r3.Vector{n, n.Mul(-1)} {
		if w := minkowskiSupport(a, b, d); w.P.Dot(d) > tol {
			return w, true
		}
	}
	return Vertex{}, false
}

// longestEdge returns the two vertices of a triangle simplex that are farthest apart.
func (s *Simplex) longestEdge() []Vertex {
	vs := s.Vertices[:3]
	best := []Vertex{vs[0], vs[1]}
	bestLen := vs[1].P.Sub(vs[0].P).Norm2()
	for _, e := range [2][2]int{{1, 2}, {0, 2}} {
		if l := vs[e[1]].P.Sub(vs[e[0]].P).Norm2(); l > bestLen {
			best, bestLen = []Vertex{vs[e[0]], vs[e[1]]}, l
		}
	}
	return best
}

// perpendicular returns a vector orthogonal to v.
func perpendicular(v r3.Vector) r3.Vector {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax <= ay && ax <= az:
		return v.Cross(r3.Vector{X: 1})
	case ay <= az:
		return v.Cross(r3.Vector{Y: 1})
	default:
		return v.Cross(r3.Vector{Z: 1})
	}
}

// tetrahedronFaces lists each face of a tetrahedron with its opposite vertex last.
var tetrahedronFaces = [4][4]int{
	{0, 1, 2, 3},
	{0, 1, 3, 2},
	{0, 2, 3, 1},
	{1, 2, 3, 0},
}

// originInTetrahedron checks whether the origin is inside the tetrahedron or on its boundary,
// by verifying the origin is on the interior side of every face. valid is false for a flat
// tetrahedron.
func originInTetrahedron(pts []r3.Vector) (inside, valid bool) {
	for _, f := range tetrahedronFaces {
		p0, p1, p2 := pts[f[0]], pts[f[1]], pts[f[2]]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		dOpp := normal.Dot(pts[f[3]].Sub(p0))
		if math.Abs(dOpp) < degenerateEpsilon {
			return false, false
		}
		dOrigin := normal.Dot(p0.Mul(-1))
		if dOrigin*dOpp < 0 {
			return false, true
		}
	}
	return true, true
}

// marginExceeded rejects a tetrahedron whose boundary the origin rests on when the Minkowski
// difference does not extend past that face by more than tol. That is the touching case.
func marginExceeded[A, B Supporter](a A, b B, s *Simplex, tol float64) bool {
	pts := s.Points()
	for _, f := range tetrahedronFaces {
		p0, p1, p2 := pts[f[0]], pts[f[1]], pts[f[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
		if n.Dot(pts[f[3]].Sub(p0)) > 0 {
			n = n.Mul(-1)
		}
		if math.Abs(n.Dot(p0)) > tol {
			continue
		}
		if minkowskiSupport(a, b, n).P.Dot(n) <= tol {
			return false
		}
	}
	return true
}

// closestOnSimplex returns the point of the simplex closest to the origin and the smallest
// sub-simplex holding it.
func closestOnSimplex(s *Simplex) (r3.Vector, []Vertex) {
	vs := s.Vertices[:s.Count]
	switch s.Count {
	case 1:
		return vs[0].P, []Vertex{vs[0]}
	case 2:
		return closestOnSegment(vs[0], vs[1])
	case 3:
		return closestOnTriangle(vs[0], vs[1], vs[2])
	default:
		return closestOnTetrahedron(vs)
	}
}

// closestOnSegment returns the closest point on segment [a,b] to the origin,
// along with the reduced simplex.
func closestOnSegment(a, b Vertex) (r3.Vector, []Vertex) {
	ab := b.P.Sub(a.P)
	denom := ab.Norm2()
	if denom < 1e-30 {
		return a.P, []Vertex{a}
	}
	t := a.P.Mul(-1).Dot(ab) / denom
	if t <= 0 {
		return a.P, []Vertex{a}
	}
	if t >= 1 {
		return b.P, []Vertex{b}
	}
	return a.P.Add(ab.Mul(t)), []Vertex{a, b}
}

// closestOnTriangle returns the closest point on triangle [a,b,c] to the origin,
// along with the reduced simplex. Uses Ericson's Voronoi region method from
// "Real-Time Collision Detection".
func closestOnTriangle(a, b, c Vertex) (r3.Vector, []Vertex) {
	ab := b.P.Sub(a.P)
	ac := c.P.Sub(a.P)
	ao := a.P.Mul(-1)

	d1 := ab.Dot(ao)
	d2 := ac.Dot(ao)
	if d1 <= 0 && d2 <= 0 {
		return a.P, []Vertex{a}
	}

	bo := b.P.Mul(-1)
	d3 := ab.Dot(bo)
	d4 := ac.Dot(bo)
	if d3 >= 0 && d4 <= d3 {
		return b.P, []Vertex{b}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.P.Add(ab.Mul(v)), []Vertex{a, b}
	}

	co := c.P.Mul(-1)
	d5 := ab.Dot(co)
	d6 := ac.Dot(co)
	if d6 >= 0 && d5 <= d6 {
		return c.P, []Vertex{c}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.P.Add(ac.Mul(w)), []Vertex{a, c}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.P.Add(c.P.Sub(b.P).Mul(w)), []Vertex{b, c}
	}

	denom := va + vb + vc
	if math.Abs(denom) < 1e-30 {
		return closestOnSegment(a, b)
	}
	v := vb / denom
	w := vc / denom
	return a.P.Add(ab.Mul(v)).Add(ac.Mul(w)), []Vertex{a, b, c}
}

// closestOnTetrahedron returns the closest point on the faces of the tetrahedron to the origin.
func closestOnTetrahedron(vs []Vertex) (r3.Vector, []Vertex) {
	bestDist := math.Inf(1)
	var bestV r3.Vector
	var bestS []Vertex
	for _, f := range tetrahedronFaces {
		v, s := closestOnTriangle(vs[f[0]], vs[f[1]], vs[f[2]])
		if d := v.Norm2(); d < bestDist {
			bestDist = d
			bestV = v
			bestS = s
		}
	}
	return bestV, bestS
}
