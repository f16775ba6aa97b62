// Package octree implements a static spatial index over entries with axis-aligned bounds.
// Entries live in a stable pool; the tree only stores their IDs, once per leaf they overlap.
package octree

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/collide/logging"
	"go.viam.com/collide/spatialmath"
)

// Config holds the tuning constants of an octree.
type Config struct {
	// DensityThreshold is the number of entries a leaf may hold before it splits.
	DensityThreshold int `json:"density_threshold"`
	// MinExtent is the smallest side length a split may produce.
	MinExtent float64 `json:"min_extent"`
	// WorldHalfExtent and WorldCenter define the cubic root region.
	WorldHalfExtent float64   `json:"world_half_extent"`
	WorldCenter     r3.Vector `json:"world_center"`
	// Capacity is the maximum number of entries.
	Capacity int `json:"capacity"`
}

// DefaultConfig returns the default octree tuning.
func DefaultConfig() Config {
	return Config{
		DensityThreshold: 8,
		MinExtent:        1,
		WorldHalfExtent:  1024,
		Capacity:         1 << 14,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.DensityThreshold <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "density_threshold")
	}
	if cfg.MinExtent <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "min_extent")
	}
	if cfg.WorldHalfExtent <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "world_half_extent")
	}
	if cfg.Capacity <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "capacity")
	}
	if 2*cfg.WorldHalfExtent < cfg.MinExtent {
		return goutils.NewConfigValidationError(path, errors.Errorf(
			"min_extent (%.2f) larger than the world side (%.2f)", cfg.MinExtent, 2*cfg.WorldHalfExtent))
	}
	return nil
}

// WorldBounds returns the root region described by the config.
func (cfg *Config) WorldBounds() spatialmath.AABB {
	h := cfg.WorldHalfExtent
	return spatialmath.NewAABBFromCenter(cfg.WorldCenter, r3.Vector{X: h, Y: h, Z: h})
}

// Octree partitions a cubic region into octants. A leaf splits into eight equal children once it
// holds more than DensityThreshold entries, unless the children would be smaller than MinExtent.
// Entries are not moved after insertion; removal rebuilds the tree.
//
// Entries that are not fully inside the world region are kept in an overflow list that every
// query scans.
type Octree struct {
	cfg      Config
	logger   logging.Logger
	pool     *Pool
	root     *octant
	overflow []EntryID
}

// New creates an empty octree.
func New(cfg Config, logger logging.Logger) (*Octree, error) {
	if err := cfg.Validate("octree"); err != nil {
		return nil, err
	}
	return &Octree{
		cfg:    cfg,
		logger: logger,
		pool:   NewPool(cfg.Capacity),
		root:   newOctant(cfg.WorldBounds()),
	}, nil
}

// Add stores the entry and inserts it into every leaf its bounds overlap.
func (tree *Octree) Add(entry Entry) (EntryID, error) {
	id, err := tree.pool.Alloc(entry)
	if err != nil {
		return 0, err
	}
	if err := tree.place(id, entry.Bounds, true); err != nil {
		//nolint:errcheck
		tree.pool.Free(id)
		return 0, err
	}
	return id, nil
}

func (tree *Octree) place(id EntryID, bounds spatialmath.AABB, warn bool) error {
	if !tree.root.bounds.Contains(bounds) {
		if warn {
			tree.logger.Warnw("entry outside octree world bounds, keeping it in the overflow list",
				"entry", id, "bounds", bounds.String(), "world", tree.root.bounds.String())
		}
		tree.overflow = append(tree.overflow, id)
		return nil
	}
	return tree.insert(tree.root, id, bounds)
}

// insert recurses into every child overlapping bounds. Leaves append and split when over density.
func (tree *Octree) insert(o *octant, id EntryID, bounds spatialmath.AABB) error {
	switch o.node.nodeType {
	case InternalNode:
		for _, child := range o.node.children {
			if !child.bounds.Intersects(bounds) {
				continue
			}
			if err := tree.insert(child, id, bounds); err != nil {
				return err
			}
		}
		return nil
	case LeafNode:
		o.node.entries = append(o.node.entries, id)
		if len(o.node.entries) <= tree.cfg.DensityThreshold || !o.canSplit(tree.cfg.MinExtent) {
			return nil
		}
		held, err := o.splitIntoOctants()
		if err != nil {
			return errors.Wrap(err, "error in splitting octree into new octants")
		}
		for _, heldID := range held {
			e, ok := tree.pool.Get(heldID)
			if !ok {
				return errors.Errorf("leaf references freed entry %d", heldID)
			}
			if err := tree.insert(o, heldID, e.Bounds); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New("unknown octree node type")
	}
}

// Remove frees the entry and rebuilds the tree.
func (tree *Octree) Remove(id EntryID) error {
	if err := tree.pool.Free(id); err != nil {
		return err
	}
	return tree.Rebuild()
}

// RemoveOwner frees every entry of owner and rebuilds once. It returns how many were freed.
func (tree *Octree) RemoveOwner(owner uint64) (int, error) {
	var ids []EntryID
	for id, e := range tree.pool.All() {
		if e.Owner == owner {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	for _, id := range ids {
		if err := tree.pool.Free(id); err != nil {
			return 0, err
		}
	}
	return len(ids), tree.Rebuild()
}

// Rebuild replaces the tree with a fresh root leaf at the original extent and re-inserts every
// live entry in ID order.
func (tree *Octree) Rebuild() error {
	tree.root = newOctant(tree.cfg.WorldBounds())
	tree.overflow = tree.overflow[:0]
	for id, e := range tree.pool.All() {
		if err := tree.place(id, e.Bounds, false); err != nil {
			return errors.Wrapf(err, "rebuilding entry %d", id)
		}
	}
	tree.logger.Debugw("rebuilt octree", "entries", tree.pool.Len(), "depth", tree.Depth(), "leaves", tree.LeafCount())
	return nil
}

// BroadCheck returns every entry whose bounds intersect the probe. An entry spanning several
// leaves may be returned more than once.
func (tree *Octree) BroadCheck(probe spatialmath.AABB) []EntryID {
	var hits []EntryID
	tree.query(tree.root, probe, &hits)
	for _, id := range tree.overflow {
		if e, ok := tree.pool.Get(id); ok && e.Bounds.Intersects(probe) {
			hits = append(hits, id)
		}
	}
	return hits
}

func (tree *Octree) query(o *octant, probe spatialmath.AABB, hits *[]EntryID) {
	if !o.bounds.Intersects(probe) {
		return
	}
	switch o.node.nodeType {
	case InternalNode:
		for _, child := range o.node.children {
			tree.query(child, probe, hits)
		}
	case LeafNode:
		for _, id := range o.node.entries {
			if e, ok := tree.pool.Get(id); ok && e.Bounds.Intersects(probe) {
				*hits = append(*hits, id)
			}
		}
	}
}

// Entry returns the entry with the given ID.
func (tree *Octree) Entry(id EntryID) (*Entry, bool) {
	return tree.pool.Get(id)
}

// Size returns the number of live entries.
func (tree *Octree) Size() int {
	return tree.pool.Len()
}

// Depth returns the number of levels in the tree; a lone root leaf has depth 1.
func (tree *Octree) Depth() int {
	return tree.root.depth()
}

// LeafCount returns the number of leaves.
func (tree *Octree) LeafCount() int {
	n := 0
	tree.root.leaves(func(*octant) { n++ })
	return n
}

// Overflow returns the number of entries held outside the world bounds.
func (tree *Octree) Overflow() int {
	return len(tree.overflow)
}

// Clear frees every entry and resets the tree to a single empty leaf.
func (tree *Octree) Clear() {
	tree.pool.Reset()
	tree.root = newOctant(tree.cfg.WorldBounds())
	tree.overflow = tree.overflow[:0]
}

// String returns a short summary of the tree.
func (tree *Octree) String() string {
	return fmt.Sprintf("Octree{entries: %d, depth: %d, leaves: %d, overflow: %d}",
		tree.Size(), tree.Depth(), tree.LeafCount(), tree.Overflow())
}
