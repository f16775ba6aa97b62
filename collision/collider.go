package collision

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/collide/spatialmath"
)

// Handle identifies the object that owns a collider. Each handle owns at most one collider.
type Handle uint64

// Layer defaults applied to configured colliders that leave them unset.
const (
	DefaultLayer uint32 = 1
	AllLayers    uint32 = ^uint32(0)
)

// ColliderInfo describes a collider relative to its owning object.
type ColliderInfo struct {
	Shape spatialmath.Shape
	// Mesh replaces Shape for static colliders. Every triangle becomes its own convex volume.
	Mesh *spatialmath.Mesh
	// Offset places the collider in the owning object's frame.
	Offset spatialmath.Pose
	// Scale multiplies the owning object's scale. The zero vector is unit scale.
	Scale r3.Vector
	// A pair is tested only if each member's Layer shares a bit with the other's Mask. Leaving both
	// zero selects DefaultLayer and AllLayers.
	Layer, Mask uint32
	Static      bool
}

// Validate ensures the collider can be placed in the world.
func (info *ColliderInfo) Validate() error {
	if info.Mesh != nil {
		if !info.Static {
			return errors.New("mesh colliders must be static")
		}
		if len(info.Mesh.Triangles()) == 0 {
			return errors.New("mesh collider has no triangles")
		}
	} else if err := info.Shape.Validate(); err != nil {
		return err
	}
	if info.Scale != (r3.Vector{}) && (info.Scale.X <= 0 || info.Scale.Y <= 0 || info.Scale.Z <= 0) {
		return errors.Errorf("collider scale must be positive, got %v", info.Scale)
	}
	return nil
}

// filters reports whether the layers of two colliders allow them to be tested against each other.
func filters(layerA, maskA, layerB, maskB uint32) bool {
	return layerA&maskB != 0 && layerB&maskA != 0
}

// OffsetConfig is the pose of a collider within its owning object. Angles are in degrees.
type OffsetConfig struct {
	Translation r3.Vector `json:"translation"`
	Roll        float64   `json:"roll_degs,omitempty"`
	Pitch       float64   `json:"pitch_degs,omitempty"`
	Yaw         float64   `json:"yaw_degs,omitempty"`
}

// Pose returns the offset as a pose.
func (o OffsetConfig) Pose() spatialmath.Pose {
	return spatialmath.NewPose(o.Translation, spatialmath.NewEulerAnglesDegrees(o.Roll, o.Pitch, o.Yaw))
}

// ColliderConfig is the attribute form of a collider, as found in scene files.
type ColliderConfig struct {
	Geometry spatialmath.GeometryConfig `json:"geometry"`
	Offset   OffsetConfig               `json:"offset"`
	Scale    r3.Vector                  `json:"scale"`
	Layer    uint32                     `json:"layer"`
	Mask     uint32                     `json:"mask"`
	Static   bool                       `json:"static"`
}

// DecodeColliderConfig converts an attribute map into a collider config.
func DecodeColliderConfig(attributes map[string]any) (*ColliderConfig, error) {
	var conf ColliderConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate ensures all parts of the config are valid and fills unset layers.
func (conf *ColliderConfig) Validate(path string) error {
	if conf.Layer == 0 {
		conf.Layer = DefaultLayer
	}
	if conf.Mask == 0 {
		conf.Mask = AllLayers
	}
	_, mesh, err := conf.Geometry.ParseConfig()
	if err != nil {
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "geometry"), err)
	}
	if mesh != nil && !conf.Static {
		return goutils.NewConfigValidationError(path, errors.New("mesh colliders must be static"))
	}
	s := conf.Scale
	if s != (r3.Vector{}) && (s.X <= 0 || s.Y <= 0 || s.Z <= 0) {
		return goutils.NewConfigValidationError(path, errors.Errorf("scale must be positive, got %v", s))
	}
	return nil
}

// Info converts the config into the collider it describes.
func (conf *ColliderConfig) Info(path string) (ColliderInfo, error) {
	if err := conf.Validate(path); err != nil {
		return ColliderInfo{}, err
	}
	shape, mesh, err := conf.Geometry.ParseConfig()
	if err != nil {
		return ColliderInfo{}, err
	}
	return ColliderInfo{
		Shape:  shape,
		Mesh:   mesh,
		Offset: conf.Offset.Pose(),
		Scale:  conf.Scale,
		Layer:  conf.Layer,
		Mask:   conf.Mask,
		Static: conf.Static,
	}, nil
}
