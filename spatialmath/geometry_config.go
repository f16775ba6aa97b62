package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// GeometryType defines what geometry creator representations are known.
type GeometryType string

// The set of allowed representations for geometries.
const (
	UnknownGeometry    GeometryType = ""
	SphereGeometry     GeometryType = "sphere"
	BoxGeometry        GeometryType = "box"
	CapsuleGeometry    GeometryType = "capsule"
	ConvexHullGeometry GeometryType = "convex_hull"
	TriangleGeometry   GeometryType = "triangle"
	MeshGeometry       GeometryType = "mesh"
)

// GeometryConfig specifies the format of geometries specified through configuration files.
type GeometryConfig struct {
	Type GeometryType `json:"type"`

	// parameters used for defining a box's rectangular cross section
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`

	// parameters used for defining a sphere, its radius. Also used by capsules
	R float64 `json:"r,omitempty"`

	// parameters used for defining a capsule's length, tip to tip
	L float64 `json:"l,omitempty"`

	// points of a convex hull or a single triangle
	Points []r3.Vector `json:"points,omitempty"`

	// triangles of a static mesh
	Triangles [][3]r3.Vector `json:"triangles,omitempty"`
}

// NewGeometryConfig returns the config that describes the given shape.
func NewGeometryConfig(s Shape) (*GeometryConfig, error) {
	config := GeometryConfig{}
	switch s.Type {
	case SphereType:
		config.Type = SphereGeometry
		config.R = s.Radius
	case BoxType:
		config.Type = BoxGeometry
		config.X = 2 * s.HalfSize.X
		config.Y = 2 * s.HalfSize.Y
		config.Z = 2 * s.HalfSize.Z
	case CapsuleType:
		config.Type = CapsuleGeometry
		config.R = s.Radius
		config.L = s.Length
	case ConvexHullType:
		config.Type = ConvexHullGeometry
		config.Points = append([]r3.Vector{}, s.Points...)
	case TriangleType:
		config.Type = TriangleGeometry
		config.Points = append([]r3.Vector{}, s.Points...)
	case UnknownType:
		return nil, newGeometryTypeUnsupportedError(s.Type.String())
	default:
		return nil, newGeometryTypeUnsupportedError(s.Type.String())
	}
	return &config, nil
}

// ParseConfig converts a GeometryConfig into either a convex Shape or, for meshes, a Mesh.
// When Type is empty it is inferred from the fields that are set.
func (config *GeometryConfig) ParseConfig() (Shape, *Mesh, error) {
	switch config.inferType() {
	case BoxGeometry:
		s, err := NewBox(r3.Vector{X: config.X, Y: config.Y, Z: config.Z})
		return s, nil, err
	case SphereGeometry:
		s, err := NewSphere(config.R)
		return s, nil, err
	case CapsuleGeometry:
		s, err := NewCapsule(config.R, config.L)
		return s, nil, err
	case ConvexHullGeometry:
		s, err := NewConvexHull(config.Points)
		return s, nil, err
	case TriangleGeometry:
		if len(config.Points) != 3 {
			return Shape{}, nil, errors.Errorf("triangle needs exactly 3 points, got %d", len(config.Points))
		}
		s, err := NewTriangleShape(config.Points[0], config.Points[1], config.Points[2])
		return s, nil, err
	case MeshGeometry:
		tris := make([]*Triangle, 0, len(config.Triangles))
		for _, pts := range config.Triangles {
			tris = append(tris, NewTriangle(pts[0], pts[1], pts[2]))
		}
		m, err := NewMesh(tris)
		return Shape{}, m, err
	case UnknownGeometry:
		return Shape{}, nil, errors.New("cannot infer geometry type from empty config")
	default:
		return Shape{}, nil, newGeometryTypeUnsupportedError(string(config.Type))
	}
}

func (config *GeometryConfig) inferType() GeometryType {
	if config.Type != UnknownGeometry {
		return config.Type
	}
	switch {
	case config.X != 0 || config.Y != 0 || config.Z != 0:
		return BoxGeometry
	case config.R != 0 && config.L != 0:
		return CapsuleGeometry
	case config.R != 0:
		return SphereGeometry
	case len(config.Triangles) != 0:
		return MeshGeometry
	case len(config.Points) != 0:
		return ConvexHullGeometry
	default:
		return UnknownGeometry
	}
}
