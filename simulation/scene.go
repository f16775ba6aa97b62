// Package simulation drives a collision system from a scene file. Objects move at constant
// velocity and every step's events are recorded for a report.
package simulation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/collide/collision"
	"go.viam.com/collide/spatialmath"
)

// EulerDegrees is an orientation given as roll, pitch and yaw in degrees.
type EulerDegrees struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ObjectConfig describes one object of a scene and its collider.
type ObjectConfig struct {
	Handle   collision.Handle `json:"handle"`
	Name     string           `json:"name,omitempty"`
	Position r3.Vector        `json:"position"`
	Rotation EulerDegrees     `json:"rotation"`
	Scale    r3.Vector        `json:"scale"`
	// Velocity is in units per second.
	Velocity r3.Vector      `json:"velocity"`
	Collider map[string]any `json:"collider"`

	collider *collision.ColliderConfig
}

// Transform returns the initial world transform of the object.
func (o *ObjectConfig) Transform() spatialmath.Transform {
	pose := spatialmath.NewPose(o.Position, spatialmath.NewEulerAnglesDegrees(o.Rotation.Roll, o.Rotation.Pitch, o.Rotation.Yaw))
	return spatialmath.NewTransform(pose).Scaled(o.Scale)
}

// DisplayName returns the name of the object, or its handle when it has none.
func (o *ObjectConfig) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("%d", o.Handle)
}

// Validate ensures all parts of the config are valid.
func (o *ObjectConfig) Validate(path string) error {
	if o.Collider == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "collider")
	}
	conf, err := collision.DecodeColliderConfig(o.Collider)
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if err := conf.Validate(fmt.Sprintf("%s.%s", path, "collider")); err != nil {
		return err
	}
	o.collider = conf
	return nil
}

// Static reports whether the object's collider is static. Only meaningful after Validate.
func (o *ObjectConfig) Static() bool {
	return o.collider != nil && o.collider.Static
}

// A Scene is the set of objects a simulation starts with.
type Scene struct {
	Objects []*ObjectConfig `json:"objects"`
}

// Validate ensures every object is valid and that handles are unique.
func (sc *Scene) Validate(path string) error {
	var err error
	seen := map[collision.Handle]int{}
	for i, obj := range sc.Objects {
		objPath := fmt.Sprintf("%s.objects.%d", path, i)
		if obj == nil {
			err = multierr.Append(err, goutils.NewConfigValidationError(objPath, errors.New("object is null")))
			continue
		}
		if prev, ok := seen[obj.Handle]; ok {
			err = multierr.Append(err, goutils.NewConfigValidationError(objPath,
				errors.Errorf("handle %d already used by object %d", obj.Handle, prev)))
			continue
		}
		seen[obj.Handle] = i
		err = multierr.Append(err, obj.Validate(objPath))
	}
	return err
}

// ReadScene reads a scene from the given file. Environment variables in the file are expanded
// before it is decoded.
func ReadScene(filePath string) (*Scene, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return SceneFromReader(bytes.NewReader(buf))
}

// SceneFromReader reads and validates a scene.
func SceneFromReader(r io.Reader) (*Scene, error) {
	var sc Scene
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Scene from json")
	}
	if err := sc.Validate("scene"); err != nil {
		return nil, err
	}
	return &sc, nil
}
