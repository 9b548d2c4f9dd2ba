// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package primmap

import "math"

// Entry is a detached snapshot of a key and its value. It is safe to retain:
// later changes to the map are not reflected in it.
type Entry[K Key, V Value] struct {
	Key   K
	Value V
}

// Cursor is a live view of the entry an iterator is positioned on. Reads and
// writes go straight to the table. An iterator hands out the same Cursor for
// every entry, rebinding it on each advance, so a Cursor must not be retained
// across calls to Next; use Entry for that. Once the iterator removes the
// entry, or moves past the end, every method panics with ErrIllegalState.
type Cursor[K Key, V Value] struct {
	m     *Map[K, V]
	index int
}

func (c *Cursor[K, V]) check() {
	if c.index < 0 {
		panic(illegalState("cursor is not positioned on an entry"))
	}
}

// Key returns the key of the entry.
func (c *Cursor[K, V]) Key() K {
	c.check()
	return c.m.keys[c.index]
}

// Value returns the current value of the entry.
func (c *Cursor[K, V]) Value() V {
	c.check()
	return c.m.values[c.index]
}

// SetValue replaces the value of the entry in the map and returns the
// previous value.
func (c *Cursor[K, V]) SetValue(value V) V {
	c.check()
	old := c.m.values[c.index]
	c.m.values[c.index] = value
	return old
}

// Entry returns a snapshot of the entry.
func (c *Cursor[K, V]) Entry() Entry[K, V] {
	c.check()
	return Entry[K, V]{Key: c.m.keys[c.index], Value: c.m.values[c.index]}
}

// MapIterator is implemented by both the unordered Iterator and the ordered
// LinkedIterator. The usage pattern is:
//
//	for it := m.Iterator(); it.Next(); {
//	  if it.Value() == 0 {
//	    it.Remove()
//	  }
//	}
//
// Key, Value, SetValue, Entry and Remove require the iterator to be
// positioned by a successful Next. Remove may be called at most once per
// Next; it panics with ErrIllegalState otherwise.
type MapIterator[K Key, V Value] interface {
	Next() bool
	Key() K
	Value() V
	SetValue(value V) V
	Entry() Entry[K, V]
	Cursor() *Cursor[K, V]
	Remove()
}

var _ MapIterator[int, int] = (*Iterator[int, int])(nil)
var _ MapIterator[int, int] = (*LinkedIterator[int, int])(nil)

// lastWrapped marks Iterator.last when the current entry was produced from the
// wrapped list rather than the array walk.
const lastWrapped = math.MinInt

// Iterator walks the entries of a Map in table order: the null slot first,
// then slots n-1 down to 0. Entries may be removed through the iterator while
// iterating, and every entry present when the iterator was created, and not
// removed since, is returned exactly once.
//
// Removal through the iterator uses backward shifting like Map.Remove. A
// shift can move an entry the iterator has not reached yet from the low end
// of the table, past the wrap-around, into a slot the iterator has already
// passed. Such keys are recorded in a worklist and returned, by lookup, once
// the array walk is finished. Removal through the iterator never shrinks the
// table.
type Iterator[K Key, V Value] struct {
	m *Map[K, V]
	// pos is the array slot most recently examined. Once it goes negative,
	// -pos-1 indexes wrapped.
	pos int
	// last is the slot of the entry to delete on Remove, lastWrapped for an
	// entry taken from wrapped, or -1 if there is none.
	last int
	// remaining is the number of entries still to be returned.
	remaining      int
	mustReturnNull bool
	wrapped        []K
	cursor         Cursor[K, V]
}

// Iterator returns an iterator over the entries of the map in table order.
func (m *Map[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{
		m:              m,
		pos:            m.n,
		last:           -1,
		remaining:      m.size,
		mustReturnNull: m.containsNull,
		cursor:         Cursor[K, V]{m: m, index: -1},
	}
}

// iterator returns an iterator that respects the map's order, if it has one.
func (m *Map[K, V]) iterator() MapIterator[K, V] {
	if m.links != nil {
		return newLinkedIterator(m)
	}
	return m.Iterator()
}

// Next advances to the next entry, returning false once there are none left.
func (it *Iterator[K, V]) Next() bool {
	if it.remaining == 0 {
		it.last = -1
		it.cursor.index = -1
		return false
	}
	it.remaining--

	m := it.m
	if it.mustReturnNull {
		it.mustReturnNull = false
		it.last = m.n
		it.cursor.index = m.n
		return true
	}

	for {
		it.pos--
		if it.pos < 0 {
			// The array walk is complete. Everything left was shifted behind
			// the cursor by Remove and must be found again by key.
			i := -it.pos - 1
			if i >= len(it.wrapped) {
				panic(illegalState("map modified outside of the iterator"))
			}
			k := it.wrapped[i]
			p := m.home(k)
			for !keyEqual(k, m.keys[p]) {
				if isNullKey(m.keys[p]) {
					panic(illegalState("displaced key %v is no longer in the map", k))
				}
				p = (p + 1) & m.mask
			}
			it.last = lastWrapped
			it.cursor.index = p
			return true
		}
		if !isNullKey(m.keys[it.pos]) {
			it.last = it.pos
			it.cursor.index = it.pos
			return true
		}
	}
}

// Key returns the key of the current entry.
func (it *Iterator[K, V]) Key() K {
	return it.cursor.Key()
}

// Value returns the value of the current entry.
func (it *Iterator[K, V]) Value() V {
	return it.cursor.Value()
}

// SetValue replaces the value of the current entry and returns the previous
// value.
func (it *Iterator[K, V]) SetValue(value V) V {
	return it.cursor.SetValue(value)
}

// Entry returns a snapshot of the current entry.
func (it *Iterator[K, V]) Entry() Entry[K, V] {
	return it.cursor.Entry()
}

// Cursor returns the iterator's reusable cursor. The same *Cursor is
// returned for every entry.
func (it *Iterator[K, V]) Cursor() *Cursor[K, V] {
	return &it.cursor
}

// Remove deletes the current entry from the map.
func (it *Iterator[K, V]) Remove() {
	if it.last == -1 {
		panic(illegalState("Remove called without a preceding successful Next"))
	}
	m := it.m
	switch it.last {
	case lastWrapped:
		m.Remove(it.wrapped[-it.pos-1])
	case m.n:
		var zero V
		m.containsNull = false
		m.keys[m.n] = 0
		m.values[m.n] = zero
		m.size--
		m.onNodeRemoved(m.n)
	default:
		m.size--
		m.onNodeRemoved(it.last)
		m.shiftKeys(it.last, it.moved)
	}
	it.last = -1
	it.cursor.index = -1
	m.checkInvariants()
}

// moved is the shiftKeys callback for Remove. A move from a lower to a higher
// slot crossed the wrap-around into territory the walk has already covered.
func (it *Iterator[K, V]) moved(from, to int) {
	if from < to {
		it.wrapped = append(it.wrapped, it.m.keys[to])
	}
}

// LinkedIterator walks the entries of a LinkedMap in list order, in either
// direction. Entries may be removed through the iterator while iterating.
//
// The iterator sits between two entries: Next returns the one after it and
// Prev the one before. NextIndex and PrevIndex report the logical position;
// for an iterator created with IteratorFrom they are computed on first use
// by walking the list.
type LinkedIterator[K Key, V Value] struct {
	m *Map[K, V]
	// prev and next are the slots of the entries before and after the
	// iterator, -1 at either end.
	prev int
	next int
	// curr is the slot of the entry last returned by Next or Prev, -1 if
	// there is none.
	curr int
	// index is the logical position of next, -1 until known.
	index  int
	cursor Cursor[K, V]
}

func newLinkedIterator[K Key, V Value](m *Map[K, V]) *LinkedIterator[K, V] {
	return &LinkedIterator[K, V]{
		m:      m,
		prev:   -1,
		next:   m.first,
		curr:   -1,
		index:  0,
		cursor: Cursor[K, V]{m: m, index: -1},
	}
}

// Iterator returns an iterator positioned before the first entry.
func (m *LinkedMap[K, V]) Iterator() *LinkedIterator[K, V] {
	return newLinkedIterator(&m.Map)
}

// IteratorFrom returns an iterator positioned just after key, so that Next
// returns the entry following key and Prev returns key itself. It returns
// ok=false if key is absent.
func (m *LinkedMap[K, V]) IteratorFrom(key K) (_ *LinkedIterator[K, V], ok bool) {
	pos := m.findIndex(key)
	if pos < 0 {
		return nil, false
	}
	it := newLinkedIterator(&m.Map)
	it.prev = pos
	it.next = int(m.links[pos].next)
	it.index = -1
	if pos == m.last {
		it.index = m.size
	}
	return it, true
}

// HasNext returns true if Next would succeed.
func (it *LinkedIterator[K, V]) HasNext() bool {
	return it.next != -1
}

// HasPrev returns true if Prev would succeed.
func (it *LinkedIterator[K, V]) HasPrev() bool {
	return it.prev != -1
}

// Next moves forward over the next entry, returning false at the end of the
// list.
func (it *LinkedIterator[K, V]) Next() bool {
	if it.next == -1 {
		it.curr = -1
		it.cursor.index = -1
		return false
	}
	it.curr = it.next
	it.next = int(it.m.links[it.curr].next)
	it.prev = it.curr
	if it.index >= 0 {
		it.index++
	}
	it.cursor.index = it.curr
	return true
}

// Prev moves backward over the previous entry, returning false at the start
// of the list.
func (it *LinkedIterator[K, V]) Prev() bool {
	if it.prev == -1 {
		it.curr = -1
		it.cursor.index = -1
		return false
	}
	it.curr = it.prev
	it.prev = int(it.m.links[it.curr].prev)
	it.next = it.curr
	if it.index >= 0 {
		it.index--
	}
	it.cursor.index = it.curr
	return true
}

func (it *LinkedIterator[K, V]) ensureIndexKnown() {
	if it.index >= 0 {
		return
	}
	if it.prev == -1 {
		it.index = 0
		return
	}
	if it.next == -1 {
		it.index = it.m.size
		return
	}
	pos := it.m.first
	it.index = 1
	for pos != it.prev {
		pos = int(it.m.links[pos].next)
		it.index++
	}
}

// NextIndex returns the position of the entry Next would return.
func (it *LinkedIterator[K, V]) NextIndex() int {
	it.ensureIndexKnown()
	return it.index
}

// PrevIndex returns the position of the entry Prev would return, -1 at the
// start of the list.
func (it *LinkedIterator[K, V]) PrevIndex() int {
	it.ensureIndexKnown()
	return it.index - 1
}

// Key returns the key of the current entry.
func (it *LinkedIterator[K, V]) Key() K {
	return it.cursor.Key()
}

// Value returns the value of the current entry.
func (it *LinkedIterator[K, V]) Value() V {
	return it.cursor.Value()
}

// SetValue replaces the value of the current entry and returns the previous
// value.
func (it *LinkedIterator[K, V]) SetValue(value V) V {
	return it.cursor.SetValue(value)
}

// Entry returns a snapshot of the current entry.
func (it *LinkedIterator[K, V]) Entry() Entry[K, V] {
	return it.cursor.Entry()
}

// Cursor returns the iterator's reusable cursor.
func (it *LinkedIterator[K, V]) Cursor() *Cursor[K, V] {
	return &it.cursor
}

// Remove deletes the entry last returned by Next or Prev.
func (it *LinkedIterator[K, V]) Remove() {
	it.ensureIndexKnown()
	if it.curr == -1 {
		panic(illegalState("Remove called without a preceding successful Next or Prev"))
	}
	m := it.m
	if it.curr == it.prev {
		// The last move was Next, so the removed entry was before us.
		it.index--
		it.prev = int(m.links[it.curr].prev)
	} else {
		it.next = int(m.links[it.curr].next)
	}

	pos := it.curr
	it.curr = -1
	it.cursor.index = -1
	m.size--
	m.onNodeRemoved(pos)

	if pos == m.n {
		var zero V
		m.containsNull = false
		m.keys[m.n] = 0
		m.values[m.n] = zero
	} else {
		m.shiftKeys(pos, func(from, to int) {
			if it.next == from {
				it.next = to
			}
			if it.prev == from {
				it.prev = to
			}
		})
	}
	m.checkInvariants()
}
