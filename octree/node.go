package octree

import (
	"github.com/pkg/errors"

	"go.viam.com/collide/spatialmath"
)

// Each octant is either an internal node, which links to exactly eight children, or a leaf that
// lists the entries overlapping its region.
const (
	InternalNode = NodeType(iota)
	LeafNode
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

// octant is one cubic region of the tree.
type octant struct {
	bounds spatialmath.AABB
	node   octantNode
}

// octantNode holds children for internal nodes and entry IDs for leaves, never both.
type octantNode struct {
	nodeType NodeType
	children []*octant
	entries  []EntryID
}

func newLeafNode(entries []EntryID) octantNode {
	return octantNode{nodeType: LeafNode, entries: entries}
}

func newInternalNode(children []*octant) octantNode {
	return octantNode{nodeType: InternalNode, children: children}
}

func newOctant(bounds spatialmath.AABB) *octant {
	return &octant{bounds: bounds, node: newLeafNode(nil)}
}

// canSplit reports whether the children of o would still be at least minExtent on a side.
func (o *octant) canSplit(minExtent float64) bool {
	h := o.bounds.HalfExtent()
	return min(h.X, h.Y, h.Z) >= minExtent
}

// splitIntoOctants turns a leaf into an internal node with eight empty leaf children. The
// entries it held are returned for the caller to redistribute.
func (o *octant) splitIntoOctants() ([]EntryID, error) {
	switch o.node.nodeType {
	case LeafNode:
		children := make([]*octant, 8)
		for i := range children {
			children[i] = newOctant(o.bounds.Octant(i))
		}
		held := o.node.entries
		o.node = newInternalNode(children)
		return held, nil
	case InternalNode:
		return nil, errors.New("error attempted to split internal node")
	default:
		return nil, errors.New("unknown octree node type")
	}
}

// depth returns the number of levels below and including o.
func (o *octant) depth() int {
	switch o.node.nodeType {
	case InternalNode:
		d := 0
		for _, child := range o.node.children {
			d = max(d, child.depth())
		}
		return d + 1
	case LeafNode:
		return 1
	default:
		return 0
	}
}

// leaves calls fn on every leaf below o.
func (o *octant) leaves(fn func(leaf *octant)) {
	switch o.node.nodeType {
	case InternalNode:
		for _, child := range o.node.children {
			child.leaves(fn)
		}
	case LeafNode:
		fn(o)
	}
}
