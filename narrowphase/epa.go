package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"
)

// visibleEpsilon is how far past a face plane a point must be for the face to see it.
const visibleEpsilon = 1e-12

// face is a triangle of the polytope wound so that its normal points away from the interior.
type face struct {
	a, b, c  int
	normal   r3.Vector
	distance float64
}

type edge struct {
	from, to int
}

type polytope struct {
	vertices []Vertex
	faces    []face
	interior r3.Vector
}

// EPA expands the GJK simplex toward the surface of the Minkowski difference A - B and returns
// the contact through the closest surface face.
//
// Expansion stops once a new support point advances less than cfg.Tolerance past the closest
// face. After cfg.MaxIterations without converging, or for a simplex that is not a tetrahedron,
// it returns a degenerate contact with zero depth.
func EPA[A, B Supporter](a A, b B, simplex Simplex, cfg Config) Contact {
	if simplex.Count < 4 {
		return Contact{Degenerate: true}
	}
	poly := newPolytope(simplex.Vertices[:])

	for i := 0; i < cfg.MaxIterations; i++ {
		closest := poly.closestFace()
		if closest < 0 {
			break
		}
		f := poly.faces[closest]

		w := minkowskiSupport(a, b, f.normal)
		if w.P.Dot(f.normal)-f.distance < cfg.Tolerance {
			return poly.contact(f, cfg.Tolerance)
		}
		poly.expand(w)
	}
	return Contact{Degenerate: true}
}

func newPolytope(tetra []Vertex) *polytope {
	poly := &polytope{vertices: append([]Vertex{}, tetra...)}
	for _, v := range tetra {
		poly.interior = poly.interior.Add(v.P)
	}
	poly.interior = poly.interior.Mul(0.25)
	for _, f := range tetrahedronFaces {
		poly.addFace(f[0], f[1], f[2])
	}
	return poly
}

// addFace adds the triangle, winding it so its normal points away from the interior point.
func (poly *polytope) addFace(a, b, c int) {
	pa, pb, pc := poly.vertices[a].P, poly.vertices[b].P, poly.vertices[c].P
	n := pb.Sub(pa).Cross(pc.Sub(pa))
	if n.Dot(pa.Sub(poly.interior)) < 0 {
		b, c = c, b
		n = n.Mul(-1)
	}
	f := face{a: a, b: b, c: c, distance: math.Inf(1)}
	if n.Norm2() > degenerateEpsilon {
		f.normal = n.Normalize()
		f.distance = f.normal.Dot(pa)
	}
	poly.faces = append(poly.faces, f)
}

func (poly *polytope) closestFace() int {
	best := -1
	bestDist := math.Inf(1)
	for i, f := range poly.faces {
		if f.distance < bestDist {
			best, bestDist = i, f.distance
		}
	}
	return best
}

// expand adds w, removing every face that can see it and stitching the hole's horizon to w.
func (poly *polytope) expand(w Vertex) {
	poly.vertices = append(poly.vertices, w)
	idx := len(poly.vertices) - 1

	var horizon []edge
	kept := poly.faces[:0]
	for _, f := range poly.faces {
		if f.normal.Dot(w.P.Sub(poly.vertices[f.a].P)) <= visibleEpsilon {
			kept = append(kept, f)
			continue
		}
		for _, e := range [3]edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			// An edge shared by two removed faces appears once in each direction.
			if j := indexOfEdge(horizon, edge{e.to, e.from}); j >= 0 {
				horizon = append(horizon[:j], horizon[j+1:]...)
			} else {
				horizon = append(horizon, e)
			}
		}
	}
	poly.faces = kept
	for _, e := range horizon {
		poly.addFace(e.from, e.to, idx)
	}
}

func indexOfEdge(edges []edge, e edge) int {
	for i, o := range edges {
		if o == e {
			return i
		}
	}
	return -1
}

// contact builds the result from the converged face. Witness points interpolate the support
// points of A and B with the barycentric coordinates of the origin's projection on the face.
func (poly *polytope) contact(f face, tol float64) Contact {
	va, vb, vc := poly.vertices[f.a], poly.vertices[f.b], poly.vertices[f.c]
	u, v, w := barycentric(f.normal.Mul(f.distance), va.P, vb.P, vc.P)
	return Contact{
		Normal: f.normal,
		Depth:  f.distance + tol,
		PointA: va.A.Mul(u).Add(vb.A.Mul(v)).Add(vc.A.Mul(w)),
		PointB: va.B.Mul(u).Add(vb.B.Mul(v)).Add(vc.B.Mul(w)),
	}
}

// barycentric returns the coordinates of p with respect to triangle abc.
func barycentric(p, a, b, c r3.Vector) (u, v, w float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-30 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}
