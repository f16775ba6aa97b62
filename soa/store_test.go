package soa

import (
	"slices"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

type (
	id       uint64
	position struct{ X, Y float64 }
	label    string
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s, err := New(capacity, Col[id](), Col[position](), Col[label]())
	test.That(t, err, test.ShouldBeNil)
	return s
}

func live(s *Store) []int {
	return slices.Collect(s.SmartIndex())
}

func TestNew(t *testing.T) {
	_, err := New(0, Col[id]())
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(4)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(4, Col[id](), Col[id]())
	test.That(t, err, test.ShouldNotBeNil)

	s := newTestStore(t, 4)
	test.That(t, s.Cap(), test.ShouldEqual, 4)
	test.That(t, s.Len(), test.ShouldEqual, 0)
	test.That(t, View[id](s), test.ShouldBeEmpty)
	test.That(t, View[int](s), test.ShouldBeNil)
}

func TestAdd(t *testing.T) {
	s := newTestStore(t, 2)

	slot, err := s.Add(id(7), position{1, 2}, label("a"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 0)

	// order of values does not matter
	slot, err = s.Add(label("b"), id(8), position{3, 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 1)

	test.That(t, View[id](s), test.ShouldResemble, []id{7, 8})
	test.That(t, *At[position](s, 1), test.ShouldResemble, position{3, 4})
	test.That(t, *At[label](s, 0), test.ShouldEqual, label("a"))

	_, err = s.Add(id(9), position{}, label("c"))
	test.That(t, errors.Is(err, ErrStoreFull), test.ShouldBeTrue)

	t.Run("mismatched values", func(t *testing.T) {
		s := newTestStore(t, 2)
		_, err := s.Add(id(1), position{})
		test.That(t, err, test.ShouldNotBeNil)
		_, err = s.Add(id(1), position{}, 3)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = s.Add(id(1), id(2), position{})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, s.Len(), test.ShouldEqual, 0)
	})
}

func TestGapAwareIteration(t *testing.T) {
	s := newTestStore(t, 8)
	for i := 0; i < 5; i++ {
		_, err := s.Add(id(i), position{X: float64(i)}, label("x"))
		test.That(t, err, test.ShouldBeNil)
	}

	test.That(t, s.RemoveAt(1), test.ShouldBeNil)
	test.That(t, s.RemoveAt(3), test.ShouldBeNil)
	test.That(t, s.RemoveAt(3), test.ShouldNotBeNil)

	test.That(t, live(s), test.ShouldResemble, []int{0, 2, 4})
	test.That(t, s.Len(), test.ShouldEqual, 3)
	test.That(t, s.Gaps(), test.ShouldEqual, 2)
	// the view still spans the gaps, which hold zero values
	test.That(t, View[id](s), test.ShouldResemble, []id{0, 0, 2, 0, 4})
	test.That(t, At[id](s, 1), test.ShouldBeNil)

	// lowest gap first
	slot, err := s.Add(id(10), position{}, label("y"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 1)
	slot, err = s.Add(id(11), position{}, label("y"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 3)
	slot, err = s.Add(id(12), position{}, label("y"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 5)
	test.That(t, live(s), test.ShouldResemble, []int{0, 1, 2, 3, 4, 5})
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, 4)
	for i := 0; i < 4; i++ {
		_, err := s.Add(id(i*10), position{}, label(""))
		test.That(t, err, test.ShouldBeNil)
	}
	ids := View[id](s)

	slot, ok := s.Remove(func(slot int) bool { return ids[slot] == 20 })
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, slot, test.ShouldEqual, 2)

	_, ok = s.Remove(func(slot int) bool { return ids[slot] == 20 })
	test.That(t, ok, test.ShouldBeFalse)

	// removing the top slot trims the high-water mark past trailing gaps
	test.That(t, s.RemoveAt(3), test.ShouldBeNil)
	test.That(t, s.HighWater(), test.ShouldEqual, 2)
	test.That(t, s.Gaps(), test.ShouldEqual, 0)

	t.Run("remove while iterating", func(t *testing.T) {
		s := newTestStore(t, 4)
		for i := 0; i < 4; i++ {
			_, err := s.Add(id(i), position{}, label(""))
			test.That(t, err, test.ShouldBeNil)
		}
		var visited []int
		for slot := range s.SmartIndex() {
			visited = append(visited, slot)
			if slot == 1 {
				test.That(t, s.RemoveAt(1), test.ShouldBeNil)
				test.That(t, s.RemoveAt(2), test.ShouldBeNil)
			}
		}
		test.That(t, visited, test.ShouldResemble, []int{0, 1, 3})
	})
}

func TestSet(t *testing.T) {
	s := newTestStore(t, 2)
	slot, err := s.Add(id(1), position{}, label(""))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, Set(s, slot, position{5, 6}), test.ShouldBeNil)
	test.That(t, View[position](s)[slot], test.ShouldResemble, position{5, 6})
	test.That(t, Set(s, 1, position{}), test.ShouldNotBeNil)
	test.That(t, Set(s, slot, 3.5), test.ShouldNotBeNil)

	At[label](s, slot).set("direct")
	test.That(t, *At[label](s, slot), test.ShouldEqual, label("direct"))
}

func (l *label) set(v string) {
	*l = label(v)
}

func TestCompact(t *testing.T) {
	s := newTestStore(t, 8)
	for i := 0; i < 6; i++ {
		_, err := s.Add(id(i), position{X: float64(i)}, label(""))
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, s.RemoveAt(0), test.ShouldBeNil)
	test.That(t, s.RemoveAt(2), test.ShouldBeNil)
	test.That(t, s.RemoveAt(4), test.ShouldBeNil)

	moves := map[int]int{}
	s.Compact(func(from, to int) { moves[from] = to })

	test.That(t, moves, test.ShouldResemble, map[int]int{5: 0, 3: 2})
	test.That(t, s.Gaps(), test.ShouldEqual, 0)
	test.That(t, s.HighWater(), test.ShouldEqual, 3)
	test.That(t, View[id](s), test.ShouldResemble, []id{5, 1, 3})
	test.That(t, View[position](s), test.ShouldResemble, []position{{X: 5}, {X: 1}, {X: 3}})
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 2)
	for i := 0; i < 2; i++ {
		_, err := s.Add(id(i), position{}, label(""))
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, s.RemoveAt(0), test.ShouldBeNil)
	s.Clear()
	test.That(t, s.Len(), test.ShouldEqual, 0)
	test.That(t, s.Gaps(), test.ShouldEqual, 0)
	test.That(t, live(s), test.ShouldBeEmpty)

	slot, err := s.Add(id(3), position{}, label(""))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slot, test.ShouldEqual, 0)
	test.That(t, s.Cap(), test.ShouldEqual, 2)
}
