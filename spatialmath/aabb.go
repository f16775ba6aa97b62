package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box. Boxes with Min == Max are points.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABBFromCenter returns the box centered on center with the given half extent per axis.
func NewAABBFromCenter(center, halfExtent r3.Vector) AABB {
	return AABB{Min: center.Sub(halfExtent), Max: center.Add(halfExtent)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtent returns half the size of the box along each axis.
func (b AABB) HalfExtent() r3.Vector {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Intersects reports whether the two boxes share at least one point. Touching faces count.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Contains reports whether o lies entirely inside b.
func (b AABB) Contains(o AABB) bool {
	return b.Min.X <= o.Min.X && o.Max.X <= b.Max.X &&
		b.Min.Y <= o.Min.Y && o.Max.Y <= b.Max.Y &&
		b.Min.Z <= o.Min.Z && o.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether p lies inside b or on its boundary.
func (b AABB) ContainsPoint(p r3.Vector) bool {
	return b.Contains(AABB{Min: p, Max: p})
}

// Union returns the smallest box holding both boxes.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: r3.Vector{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)},
		Max: r3.Vector{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y), Z: max(b.Max.Z, o.Max.Z)},
	}
}

// Octant returns child i of the eight equal octants of b. Bit 0 of i selects the upper X half,
// bit 1 the upper Y half and bit 2 the upper Z half.
func (b AABB) Octant(i int) AABB {
	c := b.Center()
	h := b.HalfExtent().Mul(0.5)
	offset := r3.Vector{X: -h.X, Y: -h.Y, Z: -h.Z}
	if i&1 != 0 {
		offset.X = h.X
	}
	if i&2 != 0 {
		offset.Y = h.Y
	}
	if i&4 != 0 {
		offset.Z = h.Z
	}
	return NewAABBFromCenter(c.Add(offset), h)
}

// String returns a human readable string that represents the box.
func (b AABB) String() string {
	return fmt.Sprintf("AABB{Min:(%.3f, %.3f, %.3f) Max:(%.3f, %.3f, %.3f)}",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
