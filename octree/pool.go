package octree

import (
	"iter"

	"github.com/pkg/errors"

	"go.viam.com/collide/spatialmath"
)

// ErrPoolFull is returned when the entry pool has no free slot.
var ErrPoolFull = errors.New("octree entry pool is full")

// EntryID is the stable index of an entry in the pool. IDs stay valid until the entry is freed
// and are reused afterwards.
type EntryID uint32

// Entry is a piece of static geometry held by the tree.
type Entry struct {
	Volume spatialmath.Volume
	Bounds spatialmath.AABB
	Layer  uint32
	Mask   uint32
	// Owner identifies the collider the entry belongs to.
	Owner uint64
}

// Pool is a fixed-capacity arena of entries addressed by EntryID.
type Pool struct {
	entries []Entry
	live    []bool
	free    []EntryID
	size    int
}

// NewPool returns a pool that can hold capacity entries.
func NewPool(capacity int) *Pool {
	return &Pool{
		entries: make([]Entry, 0, capacity),
		live:    make([]bool, 0, capacity),
	}
}

// Alloc stores the entry and returns its ID. Freed IDs are reused, most recent first.
func (p *Pool) Alloc(e Entry) (EntryID, error) {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		p.entries[id] = e
		p.live[id] = true
		p.size++
		return id, nil
	}
	if len(p.entries) == cap(p.entries) {
		return 0, errors.Wrapf(ErrPoolFull, "capacity %d", cap(p.entries))
	}
	p.entries = append(p.entries, e)
	p.live = append(p.live, true)
	p.size++
	return EntryID(len(p.entries) - 1), nil
}

// Free releases the entry with the given ID.
func (p *Pool) Free(id EntryID) error {
	if !p.IsLive(id) {
		return errors.Errorf("entry %d is not live", id)
	}
	p.entries[id] = Entry{}
	p.live[id] = false
	p.free = append(p.free, id)
	p.size--
	return nil
}

// IsLive reports whether id refers to an allocated entry.
func (p *Pool) IsLive(id EntryID) bool {
	return int(id) < len(p.live) && p.live[id]
}

// Get returns the entry with the given ID. The pointer stays valid until the entry is freed.
func (p *Pool) Get(id EntryID) (*Entry, bool) {
	if !p.IsLive(id) {
		return nil, false
	}
	return &p.entries[id], true
}

// All yields the live entries in ascending ID order.
func (p *Pool) All() iter.Seq2[EntryID, *Entry] {
	return func(yield func(EntryID, *Entry) bool) {
		for i := range p.entries {
			if !p.live[i] {
				continue
			}
			if !yield(EntryID(i), &p.entries[i]) {
				return
			}
		}
	}
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	return p.size
}

// Cap returns the capacity of the pool.
func (p *Pool) Cap() int {
	return cap(p.entries)
}

// Reset frees every entry.
func (p *Pool) Reset() {
	clear(p.entries)
	p.entries = p.entries[:0]
	p.live = p.live[:0]
	p.free = p.free[:0]
	p.size = 0
}
