package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collide/collision"
	"go.viam.com/collide/config"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

// Event is one notification received from the collision system.
type Event struct {
	Tick        int
	Self, Other string
	Kind        collision.Transition
	Contact     narrowphase.Contact
}

type body struct {
	name      string
	transform spatialmath.Transform
	velocity  r3.Vector
	static    bool
}

// Runner owns a collision system and the bodies it tracks. It is both the system's transform
// source and its event sink.
type Runner struct {
	system *collision.System
	logger logging.Logger
	clock  clock.Clock
	dt     float64

	bodies    map[collision.Handle]*body
	tick      int
	events    []Event
	durations []time.Duration
}

// NewRunner builds a collision system for the scene. dt is the simulated time of one step in
// seconds. The clock only measures how long steps take.
func NewRunner(cfg config.Config, scene *Scene, dt float64, clk clock.Clock, logger logging.Logger) (*Runner, error) {
	if dt <= 0 {
		return nil, errors.Errorf("step duration must be positive, got %v", dt)
	}
	if err := scene.Validate("scene"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	r := &Runner{
		logger: logger,
		clock:  clk,
		dt:     dt,
		bodies: make(map[collision.Handle]*body, len(scene.Objects)),
	}
	system, err := collision.NewSystem(cfg, r, r, logger.Sublogger("collision"))
	if err != nil {
		return nil, err
	}
	r.system = system

	for i, obj := range scene.Objects {
		r.bodies[obj.Handle] = &body{
			name:      obj.DisplayName(),
			transform: obj.Transform(),
			velocity:  obj.Velocity,
			static:    obj.Static(),
		}
		info, err := obj.collider.Info(fmt.Sprintf("scene.objects.%d.collider", i))
		if err != nil {
			return nil, err
		}
		if err := system.Add(obj.Handle, info); err != nil {
			return nil, errors.Wrapf(err, "adding object %q", obj.DisplayName())
		}
	}
	logger.Debugw("scene loaded", "objects", len(scene.Objects))
	return r, nil
}

// Transform returns the current transform of a body.
func (r *Runner) Transform(handle collision.Handle) (spatialmath.Transform, bool) {
	b, ok := r.bodies[handle]
	if !ok {
		return spatialmath.Transform{}, false
	}
	return b.transform, true
}

// OnCollision records an event.
func (r *Runner) OnCollision(self, other collision.Handle, contact narrowphase.Contact, kind collision.Transition) {
	ev := Event{
		Tick:    r.tick,
		Self:    r.name(self),
		Other:   r.name(other),
		Kind:    kind,
		Contact: contact,
	}
	r.events = append(r.events, ev)
	r.logger.Infow("collision", "tick", ev.Tick, "self", ev.Self, "other", ev.Other, "kind", kind.String(), "depth", contact.Depth)
}

func (r *Runner) name(h collision.Handle) string {
	if b, ok := r.bodies[h]; ok {
		return b.name
	}
	return fmt.Sprintf("%d", h)
}

// Remove takes an object out of the simulation.
func (r *Runner) Remove(handle collision.Handle) error {
	if err := r.system.Remove(handle); err != nil {
		return err
	}
	delete(r.bodies, handle)
	return nil
}

// Step advances every moving body by one step and runs collision detection.
func (r *Runner) Step() {
	for _, b := range r.bodies {
		if b.static || b.velocity == (r3.Vector{}) {
			continue
		}
		b.transform.Pose = b.transform.Pose.Translated(b.velocity.Mul(r.dt))
	}

	start := r.clock.Now()
	r.system.DoCollisionStep()
	r.durations = append(r.durations, r.clock.Since(start))
	r.tick++
}

// Run steps the simulation the given number of times, stopping early if ctx is done.
func (r *Runner) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Step()
	}
	return nil
}

// Events returns every event recorded so far.
func (r *Runner) Events() []Event {
	return r.events
}

// System returns the collision system the runner drives.
func (r *Runner) System() *collision.System {
	return r.system
}

// Report summarizes the run so far.
func (r *Runner) Report() Report {
	return Report{
		Ticks:         r.tick,
		Events:        append([]Event(nil), r.events...),
		StepDurations: append([]time.Duration(nil), r.durations...),
	}
}
