package simulation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/collide/collision"
	"go.viam.com/collide/config"
	"go.viam.com/collide/logging"
)

const approachScene = `{
	"objects": [
		{"handle": 1, "name": "a", "collider": {"geometry": {"type": "sphere", "r": 1}}},
		{
			"handle": 2,
			"name": "b",
			"position": {"x": 3, "y": 0, "z": 0},
			"velocity": {"x": -0.5, "y": 0, "z": 0},
			"collider": {"geometry": {"type": "sphere", "r": 1}}
		}
	]
}`

const groundScene = `{
	"objects": [
		{
			"handle": 10,
			"name": "ground",
			"collider": {
				"static": true,
				"geometry": {"triangles": [
					[{"x": -5, "y": -5, "z": 0}, {"x": 5, "y": -5, "z": 0}, {"x": 5, "y": 5, "z": 0}],
					[{"x": -5, "y": -5, "z": 0}, {"x": 5, "y": 5, "z": 0}, {"x": -5, "y": 5, "z": 0}]
				]}
			}
		},
		{
			"handle": 1,
			"name": "ball",
			"position": {"x": 1, "y": 2, "z": 2.3},
			"velocity": {"x": 0, "y": 0, "z": -1},
			"collider": {"geometry": {"r": 1}}
		}
	]
}`

type kindAt struct {
	Tick        int
	Self, Other string
	Kind        collision.Transition
}

func kinds(events []Event) []kindAt {
	out := make([]kindAt, 0, len(events))
	for _, e := range events {
		out = append(out, kindAt{e.Tick, e.Self, e.Other, e.Kind})
	}
	return out
}

func newTestRunner(t *testing.T, scene string, dt float64) (*Runner, logging.Logger) {
	t.Helper()
	sc, err := SceneFromReader(strings.NewReader(scene))
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)
	r, err := NewRunner(config.Default(), sc, dt, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)
	return r, logger
}

func TestSceneFromReader(t *testing.T) {
	sc, err := SceneFromReader(strings.NewReader(approachScene))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.Objects, test.ShouldHaveLength, 2)
	b := sc.Objects[1]
	test.That(t, b.Handle, test.ShouldEqual, collision.Handle(2))
	test.That(t, b.DisplayName(), test.ShouldEqual, "b")
	test.That(t, b.Velocity, test.ShouldResemble, r3.Vector{X: -0.5})
	test.That(t, b.Transform().Pose.Point(), test.ShouldResemble, r3.Vector{X: 3})
	test.That(t, b.Static(), test.ShouldBeFalse)

	unnamed := ObjectConfig{Handle: 7}
	test.That(t, unnamed.DisplayName(), test.ShouldEqual, "7")
}

func TestReadScene(t *testing.T) {
	t.Setenv("COLLIDE_TEST_RADIUS", "0.25")
	path := filepath.Join(t.TempDir(), "scene.json")
	body := `{"objects": [{"handle": 4, "collider": {"geometry": {"r": ${COLLIDE_TEST_RADIUS}}, "static": true}}]}`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	sc, err := ReadScene(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.Objects, test.ShouldHaveLength, 1)
	test.That(t, sc.Objects[0].Static(), test.ShouldBeTrue)
	test.That(t, sc.Objects[0].Collider["geometry"], test.ShouldResemble, map[string]any{"r": 0.25})

	_, err = ReadScene(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSceneValidate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		scene string
		err   string
	}{
		{"bad json", `{"objects": [`, "failed to decode Scene"},
		{"missing collider", `{"objects": [{"handle": 1}]}`, "collider"},
		{
			"duplicate handle",
			`{"objects": [{"handle": 1, "collider": {"geometry": {"r": 1}}}, {"handle": 1, "collider": {"geometry": {"r": 1}}}]}`,
			"already used by object 0",
		},
		{
			"dynamic mesh",
			`{"objects": [{"handle": 1, "collider": {"geometry": {"triangles": [[{"x": 0}, {"x": 1}, {"y": 1}]]}}}]}`,
			"mesh colliders must be static",
		},
		{"null object", `{"objects": [null]}`, "object is null"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SceneFromReader(strings.NewReader(tc.scene))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestRunnerApproach(t *testing.T) {
	r, _ := newTestRunner(t, approachScene, 1)
	test.That(t, r.Run(context.Background(), 6), test.ShouldBeNil)

	// b moves to 2.5, 2, 1.5, ... before each detection; touching at tick 1 does not count
	want := []kindAt{
		{2, "a", "b", collision.Enter}, {2, "b", "a", collision.Enter},
		{3, "a", "b", collision.Stay}, {3, "b", "a", collision.Stay},
		{4, "a", "b", collision.Stay}, {4, "b", "a", collision.Stay},
		{5, "a", "b", collision.Stay}, {5, "b", "a", collision.Stay},
	}
	test.That(t, cmp.Diff(want, kinds(r.Events())), test.ShouldBeEmpty)

	events := r.Events()
	test.That(t, events[0].Contact.Depth, test.ShouldBeLessThan, events[2].Contact.Depth)
	test.That(t, events[2].Contact.Depth, test.ShouldBeLessThan, events[4].Contact.Depth)
	test.That(t, events[0].Contact.Normal.X, test.ShouldAlmostEqual, 1)
	test.That(t, events[1].Contact.Normal.X, test.ShouldAlmostEqual, -1)

	rep := r.Report()
	test.That(t, rep.Ticks, test.ShouldEqual, 6)
	test.That(t, rep.StepDurations, test.ShouldHaveLength, 6)
	test.That(t, rep.Counts(), test.ShouldResemble, map[collision.Transition]int{collision.Enter: 2, collision.Stay: 6})
	test.That(t, rep.Pairs(), test.ShouldResemble, []string{"a/b"})
	timing, err := rep.Timing()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, timing, test.ShouldResemble, Timing{})
}

func TestRunnerStaticGround(t *testing.T) {
	sc, err := SceneFromReader(strings.NewReader(groundScene))
	test.That(t, err, test.ShouldBeNil)
	logger, logs := logging.NewObservedTestLogger(t)
	r, err := NewRunner(config.Default(), sc, 0.5, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)

	// the ball is at z 1.8, 1.3 and 0.8 after each step
	test.That(t, r.Run(context.Background(), 3), test.ShouldBeNil)
	test.That(t, cmp.Diff([]kindAt{
		{2, "ball", "ground", collision.Enter}, {2, "ground", "ball", collision.Enter},
	}, kinds(r.Events())), test.ShouldBeEmpty)
	test.That(t, logs.FilterMessage("collision").Len(), test.ShouldEqual, 2)

	test.That(t, r.Remove(10), test.ShouldBeNil)
	test.That(t, r.Remove(10), test.ShouldNotBeNil)
	r.Step()
	test.That(t, r.Events(), test.ShouldHaveLength, 2)
	_, static := r.System().Len()
	test.That(t, static, test.ShouldEqual, 0)
}

func TestRunnerErrors(t *testing.T) {
	sc, err := SceneFromReader(strings.NewReader(approachScene))
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)

	_, err = NewRunner(config.Default(), sc, 0, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	cfg := config.Default()
	cfg.DynamicCapacity = 1
	_, err = NewRunner(cfg, sc, 1, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `adding object "b"`)

	r, err := NewRunner(config.Default(), sc, 1, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, r.Run(ctx, 10), test.ShouldBeError, context.Canceled)
	test.That(t, r.Report().Ticks, test.ShouldEqual, 0)
}

func TestReport(t *testing.T) {
	rep := Report{
		Ticks:         4,
		StepDurations: []time.Duration{time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond},
	}
	timing, err := rep.Timing()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, timing, test.ShouldResemble, Timing{
		Mean:   2500 * time.Microsecond,
		Median: 2500 * time.Microsecond,
		P95:    4 * time.Millisecond,
		Max:    4 * time.Millisecond,
	})
	test.That(t, rep.String(), test.ShouldContainSubstring, "step time: mean 2.5ms")

	_, err = Report{}.Timing()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Report{}.String(), test.ShouldContainSubstring, "no steps")

	r, _ := newTestRunner(t, approachScene, 1)
	test.That(t, r.Run(context.Background(), 3), test.ShouldBeNil)
	out := r.Report().String()
	test.That(t, out, test.ShouldContainSubstring, "SELF")
	test.That(t, out, test.ShouldContainSubstring, "enter")
	test.That(t, out, test.ShouldContainSubstring, "X:1.00, Y:0.00, Z:0.00")
}
