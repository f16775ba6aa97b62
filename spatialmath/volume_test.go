package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func makeVolume(t *testing.T, s Shape, err error, pose Pose) Volume {
	t.Helper()
	test.That(t, err, test.ShouldBeNil)
	vol, err := NewVolume(s, NewTransform(pose))
	test.That(t, err, test.ShouldBeNil)
	return vol
}

func TestShapeDimensions(t *testing.T) {
	cases := []struct {
		name    string
		build   func() (Shape, error)
		success bool
	}{
		{"sphere", func() (Shape, error) { return NewSphere(1) }, true},
		{"sphere bad dims", func() (Shape, error) { return NewSphere(-1) }, false},
		{"box", func() (Shape, error) { return NewBox(r3.Vector{X: 1, Y: 2, Z: 3}) }, true},
		{"flat box", func() (Shape, error) { return NewBox(r3.Vector{X: 1, Z: 3}) }, true},
		{"box bad dims", func() (Shape, error) { return NewBox(r3.Vector{X: 1, Y: -1, Z: 3}) }, false},
		{"capsule", func() (Shape, error) { return NewCapsule(1, 4) }, true},
		{"capsule too short", func() (Shape, error) { return NewCapsule(1, 1) }, false},
		{"hull", func() (Shape, error) { return NewConvexHull([]r3.Vector{{X: 1}, {Y: 1}}) }, true},
		{"empty hull", func() (Shape, error) { return NewConvexHull(nil) }, false},
		{"triangle", func() (Shape, error) { return NewTriangleShape(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1}) }, true},
		{"collinear triangle", func() (Shape, error) { return NewTriangleShape(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2}) }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := c.build()
			if !c.success {
				test.That(t, err, test.ShouldNotBeNil)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, s.Validate(), test.ShouldBeNil)
		})
	}

	t.Run("capsule of two radii is a sphere", func(t *testing.T) {
		s, err := NewCapsule(1, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, s.Type, test.ShouldEqual, SphereType)
	})
}

func TestUnsupportedShape(t *testing.T) {
	bad := Shape{Type: ShapeType(42)}
	_, err := NewVolume(bad, Transform{})
	test.That(t, errors.Is(err, ErrUnsupportedShape), test.ShouldBeTrue)

	_, err = NewVolume(Shape{}, Transform{})
	test.That(t, errors.Is(err, ErrUnsupportedShape), test.ShouldBeTrue)

	test.That(t, func() { bad.LocalSupport(r3.Vector{X: 1}) }, test.ShouldPanic)
	test.That(t, bad.String(), test.ShouldContainSubstring, "shape(42)")
}

func TestVolumeSupport(t *testing.T) {
	t.Run("box", func(t *testing.T) {
		s, err := NewBox(r3.Vector{X: 2, Y: 4, Z: 6})
		vol := makeVolume(t, s, err, NewPoseFromPoint(r3.Vector{X: 1}))
		vecAlmostEqual(t, vol.Support(r3.Vector{X: 1, Y: 1, Z: 1}), r3.Vector{X: 2, Y: 2, Z: 3})
		vecAlmostEqual(t, vol.Support(r3.Vector{X: -1, Y: 0.1, Z: -5}), r3.Vector{Y: 2, Z: -3})
		test.That(t, vol.AABB(), test.ShouldResemble,
			AABB{Min: r3.Vector{X: 0, Y: -2, Z: -3}, Max: r3.Vector{X: 2, Y: 2, Z: 3}})
		test.That(t, vol.BoundingSphere().Radius, test.ShouldAlmostEqual, math.Sqrt(14))
	})

	t.Run("rotated box", func(t *testing.T) {
		s, err := NewBox(r3.Vector{X: 2, Y: 4, Z: 6})
		vol := makeVolume(t, s, err, NewPose(r3.Vector{}, NewEulerAnglesDegrees(0, 0, 90)))
		box := vol.AABB()
		vecAlmostEqual(t, box.Max, r3.Vector{X: 2, Y: 1, Z: 3})
		vecAlmostEqual(t, box.Min, r3.Vector{X: -2, Y: -1, Z: -3})
	})

	t.Run("capsule", func(t *testing.T) {
		s, err := NewCapsule(1, 4)
		vol := makeVolume(t, s, err, NewZeroPose())
		vecAlmostEqual(t, vol.Support(r3.Vector{Z: 1}), r3.Vector{Z: 2})
		vecAlmostEqual(t, vol.Support(r3.Vector{Z: -1}), r3.Vector{Z: -2})
		vecAlmostEqual(t, vol.Support(r3.Vector{X: 1}), r3.Vector{X: 1, Z: 1})
		test.That(t, vol.BoundingSphere().Radius, test.ShouldAlmostEqual, 2.)
	})

	t.Run("scaled sphere", func(t *testing.T) {
		s, err := NewSphere(1)
		test.That(t, err, test.ShouldBeNil)
		vol, err := NewVolume(s, Transform{Pose: NewZeroPose(), Scale: r3.Vector{X: 2, Y: 1, Z: 1}})
		test.That(t, err, test.ShouldBeNil)
		vecAlmostEqual(t, vol.Support(r3.Vector{X: 1}), r3.Vector{X: 2})
		vecAlmostEqual(t, vol.Support(r3.Vector{Y: -1}), r3.Vector{Y: -1})
		test.That(t, vol.BoundingSphere().Radius, test.ShouldAlmostEqual, 2.)
	})

	t.Run("hull", func(t *testing.T) {
		pts := []r3.Vector{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.1, Y: 0.1, Z: 0.1}}
		s, err := NewConvexHull(pts)
		vol := makeVolume(t, s, err, NewPoseFromPoint(r3.Vector{X: 10}))
		vecAlmostEqual(t, vol.Support(r3.Vector{X: 1}), r3.Vector{X: 11})
		vecAlmostEqual(t, vol.Support(r3.Vector{X: -1, Y: -1, Z: -1}), r3.Vector{X: 10})
		vecAlmostEqual(t, vol.Center(), r3.Vector{X: 10.22, Y: 0.22, Z: 0.22})
	})

	t.Run("bad scale", func(t *testing.T) {
		s, err := NewSphere(1)
		test.That(t, err, test.ShouldBeNil)
		_, err = NewVolume(s, Transform{Scale: r3.Vector{X: 1, Y: -1, Z: 1}})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestMesh(t *testing.T) {
	tris := []*Triangle{
		NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1}),
		NewTriangle(r3.Vector{X: 1}, r3.Vector{X: 1, Y: 1}, r3.Vector{Y: 1}),
	}
	m, err := NewMesh(tris)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Triangles(), test.ShouldHaveLength, 2)
	vecAlmostEqual(t, tris[0].Normal(), r3.Vector{Z: 1})
	test.That(t, tris[0].Area(), test.ShouldAlmostEqual, 0.5)

	vols, err := m.Volumes(NewTransform(NewPoseFromPoint(r3.Vector{Z: 2})))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vols, test.ShouldHaveLength, 2)
	test.That(t, vols[1].AABB(), test.ShouldResemble,
		AABB{Min: r3.Vector{Z: 2}, Max: r3.Vector{X: 1, Y: 1, Z: 2}})

	_, err = NewMesh([]*Triangle{NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2})})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMesh(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTriangleClosestPoint(t *testing.T) {
	tri := NewTriangle(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{Y: 2})
	vecAlmostEqual(t, tri.ClosestPointToPoint(r3.Vector{X: 0.5, Y: 0.5, Z: 3}), r3.Vector{X: 0.5, Y: 0.5})
	vecAlmostEqual(t, tri.ClosestPointToPoint(r3.Vector{X: -1, Y: -1}), r3.Vector{})
	vecAlmostEqual(t, tri.ClosestPointToPoint(r3.Vector{X: 2, Y: 2}), r3.Vector{X: 1, Y: 1})
}

func TestVolumeSphere(t *testing.T) {
	s, err := NewSphere(2)
	test.That(t, err, test.ShouldBeNil)
	pose := NewPoseFromPoint(r3.Vector{Y: 3})

	sphere, ok := MustVolume(s, NewTransform(pose).Scaled(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5})).Sphere()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sphere, test.ShouldResemble, BoundingSphere{Center: r3.Vector{Y: 3}, Radius: 3})

	_, ok = MustVolume(s, NewTransform(pose).Scaled(r3.Vector{X: 1, Y: 2, Z: 1})).Sphere()
	test.That(t, ok, test.ShouldBeFalse)

	b, err := NewBox(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	_, ok = MustVolume(b, NewTransform(pose)).Sphere()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestVolumeTriangle(t *testing.T) {
	tri := NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
	shape, err := tri.Shape()
	test.That(t, err, test.ShouldBeNil)
	pose := NewPose(r3.Vector{Z: 2}, NewEulerAnglesDegrees(90, 0, 0))

	world, ok := MustVolume(shape, NewTransform(pose).Scaled(r3.Vector{X: 2, Y: 2, Z: 2})).Triangle()
	test.That(t, ok, test.ShouldBeTrue)
	pts := world.Points()
	vecAlmostEqual(t, pts[0], r3.Vector{Z: 2})
	vecAlmostEqual(t, pts[1], r3.Vector{X: 2, Z: 2})
	vecAlmostEqual(t, pts[2], r3.Vector{Z: 4})
	vecAlmostEqual(t, world.Normal(), r3.Vector{Y: -1})
	vecAlmostEqual(t, world.ClosestPointToPoint(r3.Vector{X: 0.5, Y: 3, Z: 2.5}), r3.Vector{X: 0.5, Z: 2.5})

	sphere, err := NewSphere(1)
	test.That(t, err, test.ShouldBeNil)
	_, ok = MustVolume(sphere, NewTransform(pose)).Triangle()
	test.That(t, ok, test.ShouldBeFalse)
}
