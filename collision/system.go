// Package collision runs the per-step collision pipeline: it estimates bounds of dynamic
// colliders, filters candidate pairs against each other and the static octree, confirms them
// with GJK/EPA and dispatches Enter, Stay and Exit events.
package collision

import (
	"maps"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/collide/config"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/octree"
	"go.viam.com/collide/soa"
	"go.viam.com/collide/spatialmath"
)

// dynamicProps is the part of a dynamic collider that does not change between steps.
type dynamicProps struct {
	Shape       spatialmath.Shape
	Offset      spatialmath.Pose
	Scale       r3.Vector
	Layer, Mask uint32
}

// estimate is the per-step state of one live dynamic collider.
type estimate struct {
	handle      Handle
	shape       spatialmath.ShapeType
	volume      spatialmath.Volume
	sphere      spatialmath.BoundingSphere
	layer, mask uint32
}

// candidate pairs an estimate with either another estimate or a static entry.
type candidate struct {
	a, b   int
	entry  octree.EntryID
	static bool
}

type staticRecord struct {
	entries int
}

// Stats counts what the last step did.
type Stats struct {
	Dynamic    int
	Static     int
	Candidates int
	Confirmed  int
	Degenerate int
	Enter      int
	Stay       int
	Exit       int
}

// System owns the colliders of a world and detects collisions between them once per step.
// It is not safe for concurrent use. The event sink may call Add and Remove while a step dispatches.
type System struct {
	cfg        config.Config
	logger     logging.Logger
	transforms TransformSource
	sink       EventSink

	dynamic *soa.Store
	slots   map[Handle]int
	tree    *octree.Octree
	statics map[Handle]staticRecord

	current, previous map[pairKey]narrowphase.Contact

	estimates  []estimate
	candidates []candidate
	stats      Stats
}

// NewSystem returns an empty system. The config is validated, so unset constants take defaults.
func NewSystem(cfg config.Config, transforms TransformSource, sink EventSink, logger logging.Logger) (*System, error) {
	if transforms == nil {
		return nil, errors.New("collision system needs a transform source")
	}
	if err := cfg.Validate("collision"); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = EventSinkFunc(func(Handle, Handle, narrowphase.Contact, Transition) {})
	}
	dynamic, err := soa.New(cfg.DynamicCapacity,
		soa.Col[Handle](),
		soa.Col[spatialmath.Transform](),
		soa.Col[dynamicProps](),
		soa.Col[spatialmath.ShapeType](),
	)
	if err != nil {
		return nil, err
	}
	tree, err := octree.New(cfg.Octree, logger.Sublogger("octree"))
	if err != nil {
		return nil, err
	}
	return &System{
		cfg:        cfg,
		logger:     logger,
		transforms: transforms,
		sink:       sink,
		dynamic:    dynamic,
		slots:      map[Handle]int{},
		tree:       tree,
		statics:    map[Handle]staticRecord{},
		current:    map[pairKey]narrowphase.Contact{},
		previous:   map[pairKey]narrowphase.Contact{},
	}, nil
}

// Add registers the collider of an object. Static colliders are placed once, at the transform
// the source reports now; dynamic colliders follow the source every step.
func (s *System) Add(handle Handle, info ColliderInfo) error {
	if s.exists(handle) {
		return errors.Wrapf(ErrDuplicateHandle, "collider %d", handle)
	}
	if err := info.Validate(); err != nil {
		return errors.Wrapf(err, "collider %d", handle)
	}
	if info.Layer == 0 && info.Mask == 0 {
		info.Layer, info.Mask = DefaultLayer, AllLayers
	}
	if info.Static {
		return s.addStatic(handle, info)
	}
	props := dynamicProps{
		Shape:  info.Shape,
		Offset: info.Offset,
		Scale:  info.Scale,
		Layer:  info.Layer,
		Mask:   info.Mask,
	}
	slot, err := s.dynamic.Add(handle, spatialmath.Transform{}, props, info.Shape.Type)
	if err != nil {
		return errors.Wrapf(err, "collider %d", handle)
	}
	s.slots[handle] = slot
	return nil
}

func (s *System) addStatic(handle Handle, info ColliderInfo) error {
	tf, ok := s.transforms.Transform(handle)
	if !ok {
		return newMissingTransformError(handle)
	}
	world := tf.Compose(info.Offset).Scaled(info.Scale)

	var vols []spatialmath.Volume
	if info.Mesh != nil {
		var err error
		if vols, err = info.Mesh.Volumes(world); err != nil {
			return errors.Wrapf(err, "collider %d", handle)
		}
	} else {
		vol, err := spatialmath.NewVolume(info.Shape, world)
		if err != nil {
			return errors.Wrapf(err, "collider %d", handle)
		}
		vols = []spatialmath.Volume{vol}
	}

	for _, vol := range vols {
		entry := octree.Entry{
			Volume: vol,
			Bounds: vol.AABB(),
			Layer:  info.Layer,
			Mask:   info.Mask,
			Owner:  uint64(handle),
		}
		if _, err := s.tree.Add(entry); err != nil {
			if _, rerr := s.tree.RemoveOwner(uint64(handle)); rerr != nil {
				s.logger.Errorw("failed to roll back static collider", "handle", handle, "error", rerr)
			}
			return errors.Wrapf(err, "collider %d", handle)
		}
	}
	s.statics[handle] = staticRecord{entries: len(vols)}
	return nil
}

// Remove deletes the collider of an object. Pairs it was part of are forgotten without an Exit.
func (s *System) Remove(handle Handle) error {
	switch slot, dynamic := s.slots[handle]; {
	case dynamic:
		if err := s.dynamic.RemoveAt(slot); err != nil {
			return err
		}
		delete(s.slots, handle)
	case s.isStatic(handle):
		delete(s.statics, handle)
		if _, err := s.tree.RemoveOwner(uint64(handle)); err != nil {
			return errors.Wrapf(err, "collider %d", handle)
		}
	default:
		return errors.Wrapf(ErrUnknownHandle, "collider %d", handle)
	}
	s.forget(handle)
	return nil
}

// Clear removes every collider and forgets all pair history.
func (s *System) Clear() {
	s.dynamic.Clear()
	clear(s.slots)
	s.tree.Clear()
	clear(s.statics)
	clear(s.current)
	clear(s.previous)
	s.estimates = s.estimates[:0]
	s.candidates = s.candidates[:0]
}

func (s *System) forget(handle Handle) {
	maps.DeleteFunc(s.current, func(k pairKey, _ narrowphase.Contact) bool { return k.has(handle) })
	maps.DeleteFunc(s.previous, func(k pairKey, _ narrowphase.Contact) bool { return k.has(handle) })
}

func (s *System) exists(handle Handle) bool {
	_, dynamic := s.slots[handle]
	return dynamic || s.isStatic(handle)
}

func (s *System) isStatic(handle Handle) bool {
	_, ok := s.statics[handle]
	return ok
}

// Colliding reports whether a and b overlapped in the last step.
func (s *System) Colliding(a, b Handle) bool {
	_, ok := s.Contact(a, b)
	return ok
}

// Contact returns the last step's contact between a and b, seen from a.
func (s *System) Contact(a, b Handle) (narrowphase.Contact, bool) {
	key, flipped := newPairKey(a, b)
	c, ok := s.previous[key]
	if ok && flipped {
		c = c.Flip()
	}
	return c, ok
}

// Placement returns the world transform a dynamic collider had the last time a step placed it.
func (s *System) Placement(handle Handle) (spatialmath.Transform, bool) {
	slot, ok := s.slots[handle]
	if !ok {
		return spatialmath.Transform{}, false
	}
	tf := soa.At[spatialmath.Transform](s.dynamic, slot)
	if tf == nil || *tf == (spatialmath.Transform{}) {
		return spatialmath.Transform{}, false
	}
	return *tf, true
}

// Stats returns the counters of the last step.
func (s *System) Stats() Stats {
	return s.stats
}

// Len returns the number of dynamic and static colliders.
func (s *System) Len() (dynamic, static int) {
	return len(s.slots), len(s.statics)
}

// DoCollisionStep runs one full step, including event dispatch.
func (s *System) DoCollisionStep() {
	s.stats = Stats{Dynamic: len(s.slots), Static: s.tree.Size()}

	s.estimate()
	s.broadDynamic()
	s.broadStatic()
	s.stats.Candidates = len(s.candidates)
	s.narrow()
	s.dispatch()
	s.cleanup()

	s.logger.Debugw("collision step",
		"dynamic", s.stats.Dynamic,
		"static", s.stats.Static,
		"candidates", s.stats.Candidates,
		"confirmed", s.stats.Confirmed,
		"enter", s.stats.Enter,
		"stay", s.stats.Stay,
		"exit", s.stats.Exit)
}

func (s *System) estimate() {
	handles := soa.View[Handle](s.dynamic)
	props := soa.View[dynamicProps](s.dynamic)
	placements := soa.View[spatialmath.Transform](s.dynamic)
	tags := soa.View[spatialmath.ShapeType](s.dynamic)
	for slot := range s.dynamic.SmartIndex() {
		h := handles[slot]
		tf, ok := s.transforms.Transform(h)
		if !ok {
			continue
		}
		p := props[slot]
		placements[slot] = tf.Compose(p.Offset).Scaled(p.Scale)
		vol, err := spatialmath.NewVolume(p.Shape, placements[slot])
		if err != nil {
			s.logger.Debugw("skipping dynamic collider with invalid transform", "handle", h, "error", err)
			continue
		}
		s.estimates = append(s.estimates, estimate{
			handle: h,
			shape:  tags[slot],
			volume: vol,
			sphere: vol.BoundingSphere(),
			layer:  p.Layer,
			mask:   p.Mask,
		})
	}
}

// broadDynamic tests every pair of estimates. It is quadratic in the number of dynamic colliders.
func (s *System) broadDynamic() {
	for i := range s.estimates {
		a := &s.estimates[i]
		for j := i + 1; j < len(s.estimates); j++ {
			b := &s.estimates[j]
			if !filters(a.layer, a.mask, b.layer, b.mask) || !a.sphere.Intersects(b.sphere) {
				continue
			}
			s.candidates = append(s.candidates, candidate{a: i, b: j})
		}
	}
}

func (s *System) broadStatic() {
	if s.tree.Size() == 0 {
		return
	}
	for i := range s.estimates {
		a := &s.estimates[i]
		for _, id := range lo.Uniq(s.tree.BroadCheck(a.sphere.AABB())) {
			entry, ok := s.tree.Entry(id)
			if !ok || !filters(a.layer, a.mask, entry.Layer, entry.Mask) {
				continue
			}
			s.candidates = append(s.candidates, candidate{a: i, entry: id, static: true})
		}
	}
}

func (s *System) narrow() {
	for _, c := range s.candidates {
		a := &s.estimates[c.a]
		if c.static {
			entry, ok := s.tree.Entry(c.entry)
			if !ok {
				continue
			}
			if contact, hit := s.collide(a.volume, entry.Volume, a.shape, entry.Volume.Shape.Type); hit {
				s.record(a.handle, Handle(entry.Owner), contact)
			}
			continue
		}
		b := &s.estimates[c.b]
		if contact, hit := s.collide(a.volume, b.volume, a.shape, b.shape); hit {
			s.record(a.handle, b.handle, contact)
		}
	}
	s.stats.Confirmed = len(s.current)
}

// collide confirms a pair with GJK. The shape tags pick a closed-form contact for spheres against
// spheres or triangles; everything else goes through EPA.
func (s *System) collide(a, b spatialmath.Volume, shapeA, shapeB spatialmath.ShapeType) (narrowphase.Contact, bool) {
	np := s.cfg.NarrowPhase
	hit, simplex := narrowphase.GJK(a, b, np)
	if !hit {
		return narrowphase.Contact{}, false
	}
	switch {
	case shapeA == spatialmath.SphereType && shapeB == spatialmath.SphereType:
		sa, okA := a.Sphere()
		sb, okB := b.Sphere()
		if okA && okB {
			return narrowphase.SphereContact(sa.Center, sa.Radius, sb.Center, sb.Radius, np.Tolerance), true
		}
	case shapeA == spatialmath.SphereType && shapeB == spatialmath.TriangleType:
		if contact, ok := sphereTriangleContact(a, b, np.Tolerance); ok {
			return contact, true
		}
	case shapeA == spatialmath.TriangleType && shapeB == spatialmath.SphereType:
		if contact, ok := sphereTriangleContact(b, a, np.Tolerance); ok {
			return contact.Flip(), true
		}
	}
	contact := narrowphase.EPA(a, b, simplex, np)
	if contact.Degenerate {
		s.stats.Degenerate++
		s.logger.Debugw("EPA did not converge, using a zero depth contact", "a", a.String(), "b", b.String())
	}
	return contact, true
}

// sphereTriangleContact measures a sphere against a triangle from the triangle's closest point. A
// center lying on the triangle is pushed out along the triangle's normal.
func sphereTriangleContact(sphere, triangle spatialmath.Volume, tol float64) (narrowphase.Contact, bool) {
	sp, ok := sphere.Sphere()
	if !ok {
		return narrowphase.Contact{}, false
	}
	tri, ok := triangle.Triangle()
	if !ok {
		return narrowphase.Contact{}, false
	}
	closest := tri.ClosestPointToPoint(sp.Center)
	return narrowphase.SphereSurfaceContact(sp.Center, sp.Radius, closest, tri.Normal().Mul(-1), tol), true
}

// record keeps the deepest contact of a pair, which matters for meshes hit on several triangles.
func (s *System) record(a, b Handle, contact narrowphase.Contact) {
	key, flipped := newPairKey(a, b)
	if flipped {
		contact = contact.Flip()
	}
	if prev, ok := s.current[key]; ok && prev.Depth >= contact.Depth {
		return
	}
	s.current[key] = contact
}

func (s *System) dispatch() {
	for _, key := range slices.SortedFunc(maps.Keys(s.current), comparePairKeys) {
		kind := Enter
		if _, ok := s.previous[key]; ok {
			kind = Stay
			s.stats.Stay++
		} else {
			s.stats.Enter++
		}
		s.notify(key, s.current, kind)
	}
	for _, key := range slices.SortedFunc(maps.Keys(s.previous), comparePairKeys) {
		if _, ok := s.current[key]; ok {
			continue
		}
		s.stats.Exit++
		s.notify(key, s.previous, Exit)
	}
}

// notify sends the event to both members. The pair is looked up again before each call because
// the sink may have removed either member.
func (s *System) notify(key pairKey, pairs map[pairKey]narrowphase.Contact, kind Transition) {
	contact, ok := pairs[key]
	if !ok || !s.exists(key.lo) || !s.exists(key.hi) {
		return
	}
	s.sink.OnCollision(key.lo, key.hi, contact, kind)

	contact, ok = pairs[key]
	if !ok || !s.exists(key.lo) || !s.exists(key.hi) {
		return
	}
	s.sink.OnCollision(key.hi, key.lo, contact.Flip(), kind)
}

func (s *System) cleanup() {
	s.previous, s.current = s.current, s.previous
	clear(s.current)
	s.estimates = s.estimates[:0]
	s.candidates = s.candidates[:0]

	if gaps := s.dynamic.Gaps(); gaps > 0 && gaps > s.dynamic.HighWater()/2 {
		handles := soa.View[Handle](s.dynamic)
		s.dynamic.Compact(func(from, to int) {
			s.slots[handles[to]] = to
		})
		s.logger.Debugw("compacted dynamic colliders", "gaps", gaps, "live", s.dynamic.Len())
	}
}
