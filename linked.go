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

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// link holds the neighbours of a slot in the insertion-order chain of a
// LinkedMap. -1 marks the absence of a neighbour.
type link struct {
	prev int32
	next int32
}

// LinkedMap is a Map that remembers the order in which keys were inserted.
// Iteration (All, Iterator, the views) follows that order, and entries can be
// moved to either end of it in O(1). Updating the value of an existing key
// does not change its position.
//
// The order is kept as a doubly linked list of slot indices embedded in the
// table, so ordering costs 8 bytes per slot and no per-entry allocation.
//
// A LinkedMap is NOT goroutine-safe.
type LinkedMap[K Key, V Value] struct {
	Map[K, V]
}

// NewLinked constructs a new LinkedMap with room for at least minCapacity
// slots. See New.
func NewLinked[K Key, V Value](minCapacity int, options ...Option[K, V]) *LinkedMap[K, V] {
	m := &LinkedMap[K, V]{}
	m.init(minCapacity, true, options)
	return m
}

// LinkedFromSlices constructs a new LinkedMap holding keys[i]->values[i],
// ordered by the first occurrence of each key.
func LinkedFromSlices[K Key, V Value](keys []K, values []V, options ...Option[K, V]) *LinkedMap[K, V] {
	if len(keys) != len(values) {
		panic(errors.Wrapf(ErrMismatchedSlices, "%d keys, %d values", len(keys), len(values)))
	}
	m := NewLinked[K, V](len(keys), options...)
	for i := range keys {
		m.Put(keys[i], values[i])
	}
	return m
}

// Clone returns an independent copy of the map, preserving its order.
func (m *LinkedMap[K, V]) Clone() *LinkedMap[K, V] {
	c := &LinkedMap[K, V]{}
	m.cloneInto(&c.Map)
	return c
}

// FirstKey returns the first key in iteration order, or ok=false if the map
// is empty.
func (m *LinkedMap[K, V]) FirstKey() (key K, ok bool) {
	if m.size == 0 {
		return key, false
	}
	return m.keys[m.first], true
}

// LastKey returns the last key in iteration order, or ok=false if the map is
// empty.
func (m *LinkedMap[K, V]) LastKey() (key K, ok bool) {
	if m.size == 0 {
		return key, false
	}
	return m.keys[m.last], true
}

// FirstValue returns the value of the first entry in iteration order, or
// ok=false if the map is empty.
func (m *LinkedMap[K, V]) FirstValue() (value V, ok bool) {
	if m.size == 0 {
		return value, false
	}
	return m.values[m.first], true
}

// LastValue returns the value of the last entry in iteration order, or
// ok=false if the map is empty.
func (m *LinkedMap[K, V]) LastValue() (value V, ok bool) {
	if m.size == 0 {
		return value, false
	}
	return m.values[m.last], true
}

// PollFirstKey removes the first entry in iteration order and returns its
// key, or ok=false if the map is empty.
func (m *LinkedMap[K, V]) PollFirstKey() (key K, ok bool) {
	if m.size == 0 {
		return key, false
	}
	pos := m.first
	key = m.keys[pos]
	m.removeAt(pos)
	m.checkInvariants()
	return key, true
}

// PollLastKey removes the last entry in iteration order and returns its key,
// or ok=false if the map is empty.
func (m *LinkedMap[K, V]) PollLastKey() (key K, ok bool) {
	if m.size == 0 {
		return key, false
	}
	pos := m.last
	key = m.keys[pos]
	m.removeAt(pos)
	m.checkInvariants()
	return key, true
}

// PutAndMoveToFirst maps key to value and makes key the first entry in
// iteration order, whether or not it was already present. It returns the
// previous value or the default return value.
func (m *LinkedMap[K, V]) PutAndMoveToFirst(key K, value V) V {
	pos := m.findIndex(key)
	if pos >= 0 {
		old := m.values[pos]
		m.values[pos] = value
		m.moveToFirst(pos)
		m.checkInvariants()
		return old
	}
	pos = -pos - 1
	if pos == m.n {
		m.containsNull = true
		key = 0
	}
	m.keys[pos] = key
	m.values[pos] = value
	if m.size == 0 {
		m.first, m.last = pos, pos
		m.links[pos] = link{prev: -1, next: -1}
	} else {
		m.links[m.first].prev = int32(pos)
		m.links[pos] = link{prev: -1, next: int32(m.first)}
		m.first = pos
	}
	m.incSize()
	m.checkInvariants()
	return m.defRetValue
}

// PutAndMoveToLast maps key to value and makes key the last entry in
// iteration order, whether or not it was already present. It returns the
// previous value or the default return value.
func (m *LinkedMap[K, V]) PutAndMoveToLast(key K, value V) V {
	pos := m.findIndex(key)
	if pos >= 0 {
		old := m.values[pos]
		m.values[pos] = value
		m.moveToLast(pos)
		m.checkInvariants()
		return old
	}
	m.insert(-pos-1, key, value)
	m.checkInvariants()
	return m.defRetValue
}

// MoveToFirst makes key the first entry in iteration order. It returns false
// if key is absent.
func (m *LinkedMap[K, V]) MoveToFirst(key K) bool {
	pos := m.findIndex(key)
	if pos < 0 {
		return false
	}
	m.moveToFirst(pos)
	m.checkInvariants()
	return true
}

// MoveToLast makes key the last entry in iteration order. It returns false if
// key is absent.
func (m *LinkedMap[K, V]) MoveToLast(key K) bool {
	pos := m.findIndex(key)
	if pos < 0 {
		return false
	}
	m.moveToLast(pos)
	m.checkInvariants()
	return true
}

// GetAndMoveToFirst returns the value for key and makes key the first entry
// in iteration order. It returns the default return value, leaving the map
// unchanged, if key is absent.
func (m *LinkedMap[K, V]) GetAndMoveToFirst(key K) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	m.moveToFirst(pos)
	m.checkInvariants()
	return m.values[pos]
}

// GetAndMoveToLast returns the value for key and makes key the last entry in
// iteration order. It returns the default return value, leaving the map
// unchanged, if key is absent.
func (m *LinkedMap[K, V]) GetAndMoveToLast(key K) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	m.moveToLast(pos)
	m.checkInvariants()
	return m.values[pos]
}

// Backward calls yield for each entry in reverse iteration order. If yield
// returns false, iteration stops.
func (m *LinkedMap[K, V]) Backward(yield func(key K, value V) bool) {
	for i := m.last; i != -1; i = int(m.links[i].prev) {
		if !yield(m.keys[i], m.values[i]) {
			return
		}
	}
}

// onNodeAdded appends the freshly filled slot pos to the tail of the chain.
// It runs before size is incremented.
func (m *Map[K, V]) onNodeAdded(pos int) {
	if m.links == nil {
		return
	}
	if m.size == 0 {
		m.first, m.last = pos, pos
		m.links[pos] = link{prev: -1, next: -1}
		return
	}
	m.links[m.last].next = int32(pos)
	m.links[pos] = link{prev: int32(m.last), next: -1}
	m.last = pos
}

// onNodeRemoved splices slot pos out of the chain. It runs after size has
// been decremented and before the slot is reused by a backward shift.
func (m *Map[K, V]) onNodeRemoved(pos int) {
	if m.links == nil {
		return
	}
	if m.size == 0 {
		m.first, m.last = -1, -1
		return
	}
	l := m.links[pos]
	if m.first == pos {
		m.first = int(l.next)
		if m.first >= 0 {
			m.links[m.first].prev = -1
		}
		return
	}
	if m.last == pos {
		m.last = int(l.prev)
		if m.last >= 0 {
			m.links[m.last].next = -1
		}
		return
	}
	m.links[l.prev].next = l.next
	m.links[l.next].prev = l.prev
}

// onNodeMoved records that the entry in slot from now lives in slot to,
// without changing its position in the chain.
func (m *Map[K, V]) onNodeMoved(from, to int) {
	if m.links == nil {
		return
	}
	if m.size == 1 {
		m.first, m.last = to, to
		m.links[to] = link{prev: -1, next: -1}
		return
	}
	l := m.links[from]
	if m.first == from {
		m.first = to
		m.links[l.next].prev = int32(to)
		m.links[to] = l
		return
	}
	if m.last == from {
		m.last = to
		m.links[l.prev].next = int32(to)
		m.links[to] = l
		return
	}
	m.links[l.prev].next = int32(to)
	m.links[l.next].prev = int32(to)
	m.links[to] = l
}

// moveToFirst detaches slot i and reattaches it at the head of the chain.
func (m *Map[K, V]) moveToFirst(i int) {
	if m.size == 1 || m.first == i {
		return
	}
	l := m.links[i]
	if m.last == i {
		m.last = int(l.prev)
		m.links[m.last].next = -1
	} else {
		m.links[l.prev].next = l.next
		m.links[l.next].prev = l.prev
	}
	m.links[m.first].prev = int32(i)
	m.links[i] = link{prev: -1, next: int32(m.first)}
	m.first = i
}

// moveToLast detaches slot i and reattaches it at the tail of the chain.
func (m *Map[K, V]) moveToLast(i int) {
	if m.size == 1 || m.last == i {
		return
	}
	l := m.links[i]
	if m.first == i {
		m.first = int(l.next)
		m.links[m.first].prev = -1
	} else {
		m.links[l.prev].next = l.next
		m.links[l.next].prev = l.prev
	}
	m.links[m.last].next = int32(i)
	m.links[i] = link{prev: int32(m.last), next: -1}
	m.last = i
}

// checkLinks verifies that the chain visits exactly the occupied slots, in
// both directions.
func (m *Map[K, V]) checkLinks() {
	if m.links == nil {
		return
	}
	if m.size == 0 {
		if m.first != -1 || m.last != -1 {
			panic(fmt.Sprintf("invariant failed: empty map with first=%d last=%d", m.first, m.last))
		}
		return
	}
	count, prev := 0, -1
	for i := m.first; i != -1; i = int(m.links[i].next) {
		occupied := !isNullKey(m.keys[i])
		if i == m.n {
			occupied = m.containsNull
		}
		if !occupied {
			panic(fmt.Sprintf("invariant failed: chain visits empty slot %d\n%#v", i, m))
		}
		if int(m.links[i].prev) != prev {
			panic(fmt.Sprintf("invariant failed: slot %d has prev=%d, expected %d\n%#v", i, m.links[i].prev, prev, m))
		}
		prev = i
		if count++; count > m.size {
			panic(fmt.Sprintf("invariant failed: chain longer than size %d\n%#v", m.size, m))
		}
	}
	if count != m.size {
		panic(fmt.Sprintf("invariant failed: chain length %d, but size is %d\n%#v", count, m.size, m))
	}
	if prev != m.last {
		panic(fmt.Sprintf("invariant failed: chain ends at %d, but last is %d\n%#v", prev, m.last, m))
	}
}
