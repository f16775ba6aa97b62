package collision

import (
	"cmp"
	"fmt"

	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

// Transition classifies a colliding pair against the previous step.
type Transition uint8

// The transitions a pair can go through.
const (
	// Enter means the pair overlaps now and did not last step.
	Enter Transition = iota
	// Stay means the pair overlapped in both steps.
	Stay
	// Exit means the pair overlapped last step and does not now.
	Exit
)

func (t Transition) String() string {
	switch t {
	case Enter:
		return "enter"
	case Stay:
		return "stay"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("transition(%d)", uint8(t))
	}
}

// A TransformSource looks up the current world transform of an object.
type TransformSource interface {
	Transform(handle Handle) (spatialmath.Transform, bool)
}

// TransformSourceFunc adapts a function to a TransformSource.
type TransformSourceFunc func(handle Handle) (spatialmath.Transform, bool)

// Transform calls f(handle).
func (f TransformSourceFunc) Transform(handle Handle) (spatialmath.Transform, bool) {
	return f(handle)
}

// An EventSink is notified once per member of every classified pair. The contact is seen from
// self: its normal points from self toward other.
//
// OnCollision may add and remove colliders. Events still queued for a removed collider are dropped.
type EventSink interface {
	OnCollision(self, other Handle, contact narrowphase.Contact, kind Transition)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(self, other Handle, contact narrowphase.Contact, kind Transition)

// OnCollision calls f.
func (f EventSinkFunc) OnCollision(self, other Handle, contact narrowphase.Contact, kind Transition) {
	f(self, other, contact, kind)
}

// pairKey orders the two handles of a pair so that each pair has one key. Contacts stored under
// a key are seen from lo.
type pairKey struct {
	lo, hi Handle
}

func newPairKey(a, b Handle) (pairKey, bool) {
	if a > b {
		return pairKey{lo: b, hi: a}, true
	}
	return pairKey{lo: a, hi: b}, false
}

func (k pairKey) has(h Handle) bool {
	return k.lo == h || k.hi == h
}

func comparePairKeys(a, b pairKey) int {
	if c := cmp.Compare(a.lo, b.lo); c != 0 {
		return c
	}
	return cmp.Compare(a.hi, b.hi)
}
