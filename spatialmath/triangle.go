package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/utils"
)

// Triangle is a single face of a static mesh.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle from three points; the normal follows the right hand rule.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Shape returns the triangle as a flat convex shape.
func (t *Triangle) Shape() (Shape, error) {
	return NewTriangleShape(t.p0, t.p1, t.p2)
}

// ClosestPointToPoint returns the point of the triangle nearest to p. The projection of p onto
// the triangle's plane is kept when it falls inside every edge; otherwise the answer lies on the
// nearest edge.
func (t *Triangle) ClosestPointToPoint(p r3.Vector) r3.Vector {
	q := p.Sub(t.normal.Mul(p.Sub(t.p0).Dot(t.normal)))
	if t.containsCoplanar(q) {
		return q
	}
	pts := [3]r3.Vector{t.p0, t.p1, t.p2}
	var best r3.Vector
	bestDist := math.Inf(1)
	for i, a := range pts {
		c := ClosestPointSegmentPoint(a, pts[(i+1)%3], q)
		if d := c.Sub(q).Norm2(); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// containsCoplanar reports whether q, a point in the triangle's plane, is on the inner side of
// every edge.
func (t *Triangle) containsCoplanar(q r3.Vector) bool {
	pts := [3]r3.Vector{t.p0, t.p1, t.p2}
	for i, a := range pts {
		b := pts[(i+1)%3]
		if b.Sub(a).Cross(q.Sub(a)).Dot(t.normal) < -floatEpsilon {
			return false
		}
	}
	return true
}

// PlaneNormal returns the unit normal of the plane through three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// ClosestPointSegmentPoint returns the point on segment [a, b] closest to p.
func ClosestPointSegmentPoint(a, b, p r3.Vector) r3.Vector {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom < floatEpsilon*floatEpsilon {
		return a
	}
	return a.Add(ab.Mul(utils.Clamp(p.Sub(a).Dot(ab)/denom, 0, 1)))
}
