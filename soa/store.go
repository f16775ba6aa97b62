// Package soa implements a fixed-capacity structure-of-arrays store. Each registered Go type
// gets its own contiguous column, and a record is the set of values sharing a slot index.
// Removed slots become gaps that later additions reuse, lowest first.
package soa

import (
	"iter"
	"reflect"
	"slices"

	"github.com/pkg/errors"
)

// ErrStoreFull is returned when adding to a store with no free slot left.
var ErrStoreFull = errors.New("store is full")

// Column describes one column of a store. Build columns with Col.
type Column struct {
	typ  reflect.Type
	make func(capacity int) column
}

// Col returns the column holding values of type T.
func Col[T any]() Column {
	return Column{
		typ: reflect.TypeFor[T](),
		make: func(capacity int) column {
			return &typedColumn[T]{data: make([]T, capacity)}
		},
	}
}

type column interface {
	set(slot int, v any) bool
	zero(slot int)
	move(from, to int)
}

type typedColumn[T any] struct {
	data []T
}

func (c *typedColumn[T]) set(slot int, v any) bool {
	tv, ok := v.(T)
	if ok {
		c.data[slot] = tv
	}
	return ok
}

func (c *typedColumn[T]) zero(slot int) {
	var z T
	c.data[slot] = z
}

func (c *typedColumn[T]) move(from, to int) {
	c.data[to] = c.data[from]
	c.zero(from)
}

// Store is a gap-tracked structure-of-arrays. It is not safe for concurrent use.
type Store struct {
	capacity  int
	columns   map[reflect.Type]column
	order     []reflect.Type
	highWater int
	// free holds the gaps below highWater, sorted ascending.
	free []int
}

// New returns a store of fixed capacity with one column per given type.
func New(capacity int, columns ...Column) (*Store, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("invalid capacity (%d) for store", capacity)
	}
	if len(columns) == 0 {
		return nil, errors.New("store needs at least one column")
	}
	s := &Store{capacity: capacity, columns: make(map[reflect.Type]column, len(columns))}
	for _, c := range columns {
		if _, ok := s.columns[c.typ]; ok {
			return nil, errors.Errorf("duplicate column of type %v", c.typ)
		}
		s.columns[c.typ] = c.make(capacity)
		s.order = append(s.order, c.typ)
	}
	return s, nil
}

// Add stores one record, given as exactly one value per column in any order, and returns its
// slot. The lowest gap is reused before the high-water mark grows.
func (s *Store) Add(values ...any) (int, error) {
	if len(values) != len(s.order) {
		return -1, errors.Errorf("expected %d values, got %d", len(s.order), len(values))
	}
	seen := make(map[reflect.Type]bool, len(values))
	for _, v := range values {
		typ := reflect.TypeOf(v)
		if _, ok := s.columns[typ]; !ok {
			return -1, errors.Errorf("no column for value of type %v", typ)
		}
		if seen[typ] {
			return -1, errors.Errorf("more than one value of type %v", typ)
		}
		seen[typ] = true
	}

	var slot int
	switch {
	case len(s.free) > 0:
		slot = s.free[0]
		s.free = s.free[1:]
	case s.highWater < s.capacity:
		slot = s.highWater
		s.highWater++
	default:
		return -1, errors.Wrapf(ErrStoreFull, "capacity %d", s.capacity)
	}
	for _, v := range values {
		s.columns[reflect.TypeOf(v)].set(slot, v)
	}
	return slot, nil
}

// Remove removes the first live slot, in ascending order, that pred accepts. It returns the slot
// and whether one was removed.
func (s *Store) Remove(pred func(slot int) bool) (int, bool) {
	for slot := range s.SmartIndex() {
		if pred(slot) {
			s.release(slot)
			return slot, true
		}
	}
	return -1, false
}

// RemoveAt removes the record at slot.
func (s *Store) RemoveAt(slot int) error {
	if !s.IsLive(slot) {
		return errors.Errorf("slot %d is not live", slot)
	}
	s.release(slot)
	return nil
}

func (s *Store) release(slot int) {
	for _, c := range s.columns {
		c.zero(slot)
	}
	idx, _ := slices.BinarySearch(s.free, slot)
	s.free = slices.Insert(s.free, idx, slot)
	s.trim()
}

// trim lowers the high-water mark past trailing gaps.
func (s *Store) trim() {
	for len(s.free) > 0 && s.free[len(s.free)-1] == s.highWater-1 {
		s.free = s.free[:len(s.free)-1]
		s.highWater--
	}
}

// IsLive reports whether slot holds a record.
func (s *Store) IsLive(slot int) bool {
	if slot < 0 || slot >= s.highWater {
		return false
	}
	_, gap := slices.BinarySearch(s.free, slot)
	return !gap
}

// SmartIndex yields the live slots in ascending order, skipping gaps. Removing the slot being
// visited is allowed.
func (s *Store) SmartIndex() iter.Seq[int] {
	return func(yield func(int) bool) {
		for slot := 0; slot < s.highWater; slot++ {
			if !s.IsLive(slot) {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// Compact fills every gap by moving the highest live record into it. onMove, if set, is told
// of each move so that external indices can follow.
func (s *Store) Compact(onMove func(from, to int)) {
	for len(s.free) > 0 {
		to := s.free[0]
		from := s.highWater - 1
		for _, c := range s.columns {
			c.move(from, to)
		}
		s.free = s.free[1:]
		s.highWater--
		s.trim()
		if onMove != nil {
			onMove(from, to)
		}
	}
}

// Clear drops every record and keeps the capacity.
func (s *Store) Clear() {
	for slot := 0; slot < s.highWater; slot++ {
		for _, c := range s.columns {
			c.zero(slot)
		}
	}
	s.highWater = 0
	s.free = s.free[:0]
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return s.highWater - len(s.free)
}

// Cap returns the fixed capacity.
func (s *Store) Cap() int {
	return s.capacity
}

// HighWater returns one past the highest slot ever live since the last trim.
func (s *Store) HighWater() int {
	return s.highWater
}

// Gaps returns the number of free slots below the high-water mark.
func (s *Store) Gaps() int {
	return len(s.free)
}

func lookup[T any](s *Store) *typedColumn[T] {
	c, ok := s.columns[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return c.(*typedColumn[T])
}

// View returns the T column over slots [0, HighWater), gaps included. Gaps hold zero values.
// It returns nil when the store has no T column. The slice aliases the store.
func View[T any](s *Store) []T {
	c := lookup[T](s)
	if c == nil {
		return nil
	}
	return c.data[:s.highWater]
}

// At returns a pointer to the T value at slot, or nil when slot is not live or there is no T column.
func At[T any](s *Store, slot int) *T {
	c := lookup[T](s)
	if c == nil || !s.IsLive(slot) {
		return nil
	}
	return &c.data[slot]
}

// Set overwrites the T value at a live slot.
func Set[T any](s *Store, slot int, v T) error {
	c := lookup[T](s)
	if c == nil {
		return errors.Errorf("no column for type %v", reflect.TypeFor[T]())
	}
	if !s.IsLive(slot) {
		return errors.Errorf("slot %d is not live", slot)
	}
	c.data[slot] = v
	return nil
}
