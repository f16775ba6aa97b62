package spatialmath

import (
	"github.com/golang/geo/r3"

	"go.viam.com/collide/utils"
)

// BoundingSphere is a conservative sphere around a volume.
type BoundingSphere struct {
	Center r3.Vector
	Radius float64
}

// Intersects reports whether the two spheres overlap or touch.
func (s BoundingSphere) Intersects(o BoundingSphere) bool {
	return s.Center.Sub(o.Center).Norm2() <= utils.Square(s.Radius+o.Radius)
}

// AABB returns the axis-aligned box that circumscribes the sphere.
func (s BoundingSphere) AABB() AABB {
	return NewAABBFromCenter(s.Center, r3.Vector{X: s.Radius, Y: s.Radius, Z: s.Radius})
}
