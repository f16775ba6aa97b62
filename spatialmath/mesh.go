package spatialmath

import (
	"github.com/pkg/errors"
)

// Mesh is a set of triangles in a shared local frame. Meshes are concave in general, so they
// are never tested as a whole: every triangle is its own convex volume.
type Mesh struct {
	triangles []*Triangle
}

// NewMesh creates a mesh from its triangles. Degenerate triangles are rejected.
func NewMesh(triangles []*Triangle) (*Mesh, error) {
	if len(triangles) == 0 {
		return nil, newBadGeometryDimensionsError(TriangleType)
	}
	for i, tri := range triangles {
		if tri.Area() < floatEpsilon {
			return nil, errors.Wrapf(newBadGeometryDimensionsError(TriangleType), "mesh triangle %d", i)
		}
	}
	return &Mesh{triangles: triangles}, nil
}

// Triangles returns the triangles of the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Volumes places every triangle of the mesh at the given transform.
func (m *Mesh) Volumes(transform Transform) ([]Volume, error) {
	vols := make([]Volume, 0, len(m.triangles))
	for i, tri := range m.triangles {
		shape, err := tri.Shape()
		if err != nil {
			return nil, errors.Wrapf(err, "mesh triangle %d", i)
		}
		vol, err := NewVolume(shape, transform)
		if err != nil {
			return nil, err
		}
		vols = append(vols, vol)
	}
	return vols, nil
}
