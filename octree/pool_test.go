package octree

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestPool(t *testing.T) {
	p := NewPool(3)
	a, err := p.Alloc(Entry{Owner: 1})
	test.That(t, err, test.ShouldBeNil)
	b, err := p.Alloc(Entry{Owner: 2})
	test.That(t, err, test.ShouldBeNil)
	c, err := p.Alloc(Entry{Owner: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, []EntryID{a, b, c}, test.ShouldResemble, []EntryID{0, 1, 2})

	_, err = p.Alloc(Entry{})
	test.That(t, errors.Is(err, ErrPoolFull), test.ShouldBeTrue)

	test.That(t, p.Free(b), test.ShouldBeNil)
	test.That(t, p.Free(b), test.ShouldNotBeNil)
	_, ok := p.Get(b)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, p.Len(), test.ShouldEqual, 2)

	var owners []uint64
	for _, e := range p.All() {
		owners = append(owners, e.Owner)
	}
	test.That(t, owners, test.ShouldResemble, []uint64{1, 3})

	// freed ids are reused and the other ids stay put
	d, err := p.Alloc(Entry{Owner: 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, b)
	e, ok := p.Get(c)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, e.Owner, test.ShouldEqual, uint64(3))

	p.Reset()
	test.That(t, p.Len(), test.ShouldEqual, 0)
	test.That(t, p.Cap(), test.ShouldEqual, 3)
	test.That(t, p.IsLive(a), test.ShouldBeFalse)
}
