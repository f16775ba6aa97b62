// Package config defines the engine constants of a collision system and how they are read.
package config

import (
	"fmt"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/octree"
)

// DefaultDynamicCapacity is the number of dynamic colliders a system holds when unset.
const DefaultDynamicCapacity = 1 << 12

// A Config describes the constants a collision system is built with.
type Config struct {
	ConfigFilePath string `json:"-"`

	Octree          octree.Config      `json:"octree"`
	NarrowPhase     narrowphase.Config `json:"narrow_phase"`
	DynamicCapacity int                `json:"dynamic_capacity"`
}

// Default returns a config with every constant set to its default.
func Default() Config {
	return Config{
		Octree:          octree.DefaultConfig(),
		NarrowPhase:     narrowphase.DefaultConfig(),
		DynamicCapacity: DefaultDynamicCapacity,
	}
}

// Validate fills unset constants with their defaults and ensures every section is valid.
func (c *Config) Validate(path string) error {
	c.fillDefaults()

	var err error
	if c.DynamicCapacity < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "dynamic_capacity"))
	}
	err = multierr.Append(err, c.Octree.Validate(fmt.Sprintf("%s.%s", path, "octree")))
	err = multierr.Append(err, c.NarrowPhase.Validate(fmt.Sprintf("%s.%s", path, "narrow_phase")))
	return err
}

// fillDefaults only touches zero values, so negative values still fail validation.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DynamicCapacity == 0 {
		c.DynamicCapacity = def.DynamicCapacity
	}
	if c.Octree.DensityThreshold == 0 {
		c.Octree.DensityThreshold = def.Octree.DensityThreshold
	}
	if c.Octree.MinExtent == 0 {
		c.Octree.MinExtent = def.Octree.MinExtent
	}
	if c.Octree.WorldHalfExtent == 0 {
		c.Octree.WorldHalfExtent = def.Octree.WorldHalfExtent
	}
	if c.Octree.Capacity == 0 {
		c.Octree.Capacity = def.Octree.Capacity
	}
	if c.NarrowPhase.Tolerance == 0 {
		c.NarrowPhase.Tolerance = def.NarrowPhase.Tolerance
	}
	if c.NarrowPhase.MaxIterations == 0 {
		c.NarrowPhase.MaxIterations = def.NarrowPhase.MaxIterations
	}
}
