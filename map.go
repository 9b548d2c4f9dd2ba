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

// Package primmap is an open-addressing hash map specialized for primitive
// keys and values (integers, floats and, for values, bools). Keys and values
// are stored unboxed in two parallel arrays.
//
// # Layout
//
// A table of capacity n (always a power of two) has n+1 entries in each of
// the keys and values arrays. Slots [0,n) are addressed by hashing: a key
// lives at hash(key)&(n-1) or at the first free slot found by walking forward
// one slot at a time (linear probing), wrapping around at n. A slot is empty
// iff its key has the zero bit pattern. That leaves the zero key itself
// without a home, so it is given the extra slot n (the "null slot"), and
// occupancy of that slot is tracked by a separate flag. Floating point keys
// are compared by bit pattern with -0.0 folded onto +0.0, so both zeros use
// the null slot and NaNs match only when their payloads are identical.
//
// The table grows before the number of entries exceeds maxFill =
// min(ceil(n*loadFactor), n-1), which guarantees that at least one slot is
// always empty and every probe terminates.
//
// # Deletion
//
// There are no tombstones. When a slot is freed, the entries following it in
// the same run are examined in order: an entry whose probe path passes
// through the gap is slid back into it and the gap moves to where the entry
// was. The walk stops at the first empty slot. Afterwards every remaining key
// is again reachable by a pure linear probe from its home slot
// (backward-shift deletion, Knuth's Algorithm R).
//
// # Ordered maps
//
// LinkedMap threads a doubly linked list of slot indices through the table,
// giving iteration in insertion order with O(1) moves to either end. The
// list is maintained by hooks which the engine invokes whenever a slot is
// filled, emptied or relocated by a backward shift; a rehash rebuilds the
// list in traversal order.
//
// A Map is NOT goroutine-safe. Iterators are not goroutine-safe either, even
// if the map itself is guarded by a lock.
package primmap

import (
	"fmt"
	"io"
	"math"
	"math/bits"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	debug = false

	// DefaultLoadFactor is the load factor used unless WithLoadFactor is
	// given.
	DefaultLoadFactor = 0.75

	// maxCapacity bounds the table size so that slot indices fit the int32
	// links of an ordered map.
	maxCapacity = 1 << 30
)

// Map is an unordered map from primitive keys to primitive values. Lookups of
// a missing key return a configurable default return value (the zero value
// unless changed); Lookup and ContainsKey distinguish absence explicitly.
//
// A Map is NOT goroutine-safe.
type Map[K Key, V Value] struct {
	// The hash function applied to canonical keys.
	hash func(key K) uint64
	// The allocator to use for the keys and values slices.
	allocator Allocator[K, V]
	// keys and values have length n+1. keys[n] is the null slot and is only
	// meaningful when containsNull is set.
	keys   []K
	values []V
	// links is non-nil only for a LinkedMap, in which case it has length n+1
	// and first/last hold the endpoints of the chain (-1 when empty).
	links []link
	first int
	last  int
	// The number of addressable slots, always a power of two.
	n int
	// n-1, used to reduce hashes to a slot.
	mask int
	// The number of entries allowed before the table grows.
	maxFill int
	// The capacity the map was created with. The table never shrinks below
	// it on removal.
	minN int
	// The number of entries, including the null slot when containsNull.
	size         int
	containsNull bool
	loadFactor   float32
	defRetValue  V
}

// New constructs a new Map with room for at least minCapacity slots. The
// capacity is rounded up to a power of two. New panics if minCapacity is
// negative or an option specifies an invalid load factor.
func New[K Key, V Value](minCapacity int, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.init(minCapacity, false, options)
	return m
}

// FromSlices constructs a new Map holding keys[i]->values[i] for every i.
// Later duplicates overwrite earlier ones. FromSlices panics if the slices
// have different lengths.
func FromSlices[K Key, V Value](keys []K, values []V, options ...Option[K, V]) *Map[K, V] {
	if len(keys) != len(values) {
		panic(errors.Wrapf(ErrMismatchedSlices, "%d keys, %d values", len(keys), len(values)))
	}
	m := New[K, V](len(keys), options...)
	for i := range keys {
		m.Put(keys[i], values[i])
	}
	return m
}

// FromMap constructs a new Map holding the entries of the builtin map src.
func FromMap[K Key, V Value](src map[K]V, options ...Option[K, V]) *Map[K, V] {
	m := New[K, V](len(src), options...)
	for k, v := range src {
		m.Put(k, v)
	}
	return m
}

func (m *Map[K, V]) init(minCapacity int, ordered bool, options []Option[K, V]) {
	m.hash = MixHash[K]
	m.allocator = defaultAllocator[K, V]{}
	m.loadFactor = DefaultLoadFactor
	m.first, m.last = -1, -1

	for _, op := range options {
		op.apply(m)
	}

	if minCapacity < 0 {
		panic(errors.Wrapf(ErrInvalidCapacity, "minimum capacity %d", minCapacity))
	}
	if minCapacity > maxCapacity {
		panic(errors.Wrapf(ErrCapacityExceeded, "minimum capacity %d", minCapacity))
	}

	m.n = max(2, nextPowerOfTwo(minCapacity))
	m.minN = m.n
	m.mask = m.n - 1
	m.maxFill = maxFill(m.n, m.loadFactor)
	m.keys = m.allocator.AllocKeys(m.n + 1)
	m.values = m.allocator.AllocValues(m.n + 1)
	if ordered {
		m.links = make([]link, m.n+1)
	}
	m.checkInvariants()
}

// Close closes the map, releasing any memory back to its configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	if m.keys != nil {
		m.allocator.FreeKeys(m.keys)
		m.allocator.FreeValues(m.values)
	}
	m.keys, m.values, m.links = nil, nil, nil
	m.size, m.n, m.mask, m.maxFill = 0, 0, 0, 0
	m.containsNull = false
	m.first, m.last = -1, -1
}

// DefaultReturnValue returns the value returned by Get, Put, Remove and
// friends when the key is absent.
func (m *Map[K, V]) DefaultReturnValue() V {
	return m.defRetValue
}

// SetDefaultReturnValue changes the value returned for absent keys. Existing
// entries are unaffected.
func (m *Map[K, V]) SetDefaultReturnValue(v V) {
	m.defRetValue = v
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.size
}

// IsEmpty returns true if the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.size == 0
}

// capacity returns the number of addressable slots.
func (m *Map[K, V]) capacity() int {
	return m.n
}

// Put maps key to value and returns the previous value, or the default
// return value if key was absent.
func (m *Map[K, V]) Put(key K, value V) V {
	pos := m.findIndex(key)
	if pos < 0 {
		m.insert(-pos-1, key, value)
		m.checkInvariants()
		return m.defRetValue
	}
	old := m.values[pos]
	m.values[pos] = value
	return old
}

// PutIfAbsent maps key to value only if key is absent. It returns the
// existing value if key was present, and the default return value otherwise.
func (m *Map[K, V]) PutIfAbsent(key K, value V) V {
	pos := m.findIndex(key)
	if pos >= 0 {
		return m.values[pos]
	}
	m.insert(-pos-1, key, value)
	m.checkInvariants()
	return m.defRetValue
}

// PutAll copies every entry of other into m, overwriting existing values.
func (m *Map[K, V]) PutAll(other *Map[K, V]) {
	if m.loadFactor <= .5 {
		m.EnsureCapacity(other.Len())
	} else {
		m.EnsureCapacity(m.Len() + other.Len())
	}
	other.All(func(k K, v V) bool {
		m.Put(k, v)
		return true
	})
}

// Get returns the value for key, or the default return value if key is
// absent.
func (m *Map[K, V]) Get(key K) V {
	if pos := m.findIndex(key); pos >= 0 {
		return m.values[pos]
	}
	return m.defRetValue
}

// GetOrDefault returns the value for key, or def if key is absent.
func (m *Map[K, V]) GetOrDefault(key K, def V) V {
	if pos := m.findIndex(key); pos >= 0 {
		return m.values[pos]
	}
	return def
}

// Lookup retrieves the value for key, returning ok=false if key is absent.
// Unlike Get it distinguishes an absent key from one mapped to the default
// return value.
func (m *Map[K, V]) Lookup(key K) (value V, ok bool) {
	if pos := m.findIndex(key); pos >= 0 {
		return m.values[pos], true
	}
	return value, false
}

// ContainsKey returns true if key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.findIndex(key) >= 0
}

// ContainsValue returns true if some key maps to value. It scans the whole
// table.
func (m *Map[K, V]) ContainsValue(value V) bool {
	if m.containsNull && valueEqual(m.values[m.n], value) {
		return true
	}
	for i := m.n - 1; i >= 0; i-- {
		if !isNullKey(m.keys[i]) && valueEqual(m.values[i], value) {
			return true
		}
	}
	return false
}

// Remove deletes key and returns its value, or the default return value if
// key was absent (in which case the map is unchanged).
func (m *Map[K, V]) Remove(key K) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	old := m.removeAt(pos)
	m.checkInvariants()
	return old
}

// RemoveValue deletes key only if it is currently mapped to value. It
// returns true if the entry was removed.
func (m *Map[K, V]) RemoveValue(key K, value V) bool {
	pos := m.findIndex(key)
	if pos < 0 || !valueEqual(m.values[pos], value) {
		return false
	}
	m.removeAt(pos)
	m.checkInvariants()
	return true
}

// Replace maps key to value only if key is present. It returns the previous
// value, or the default return value if key was absent.
func (m *Map[K, V]) Replace(key K, value V) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	old := m.values[pos]
	m.values[pos] = value
	return old
}

// ReplaceValue maps key to newValue only if it is currently mapped to
// oldValue. It returns true if the value was replaced.
func (m *Map[K, V]) ReplaceValue(key K, oldValue, newValue V) bool {
	pos := m.findIndex(key)
	if pos < 0 || !valueEqual(m.values[pos], oldValue) {
		return false
	}
	m.values[pos] = newValue
	return true
}

// Clear removes every entry while retaining the current capacity.
func (m *Map[K, V]) Clear() {
	if m.size == 0 {
		return
	}
	m.size = 0
	m.containsNull = false
	clear(m.keys)
	clear(m.values)
	m.first, m.last = -1, -1
	m.checkInvariants()
}

// ClearAndTrim removes every entry and, if the table is larger than needed to
// hold n entries, replaces it with fresh arrays of that smaller size. As with
// TrimTo the table does not shrink below its construction capacity.
func (m *Map[K, V]) ClearAndTrim(n int) {
	l := max(m.minN, arraySize(n, m.loadFactor))
	if l >= m.n {
		m.Clear()
		return
	}
	if debug {
		fmt.Printf("clear-and-trim: capacity=%d->%d\n", m.n, l)
	}
	m.allocator.FreeKeys(m.keys)
	m.allocator.FreeValues(m.values)
	m.keys = m.allocator.AllocKeys(l + 1)
	m.values = m.allocator.AllocValues(l + 1)
	if m.links != nil {
		m.links = make([]link, l+1)
	}
	m.n = l
	m.mask = l - 1
	m.maxFill = maxFill(l, m.loadFactor)
	m.size = 0
	m.containsNull = false
	m.first, m.last = -1, -1
	m.checkInvariants()
}

// Trim shrinks the table to the smallest capacity able to hold the current
// entries.
func (m *Map[K, V]) Trim() {
	m.TrimTo(m.size)
}

// TrimTo shrinks the table to the smallest capacity able to hold n entries,
// but never below the capacity the map was created with. It does nothing if
// the table is already that small or if the current entries would not fit.
func (m *Map[K, V]) TrimTo(n int) {
	l := max(m.minN, nextPowerOfTwo(int(math.Ceil(float64(n)/float64(m.loadFactor)))))
	if l >= m.n || m.size > maxFill(l, m.loadFactor) {
		return
	}
	m.rehash(l)
}

// EnsureCapacity grows the table, if necessary, so that n entries fit
// without a further rehash.
func (m *Map[K, V]) EnsureCapacity(n int) {
	if needed := arraySize(n, m.loadFactor); needed > m.n {
		m.rehash(needed)
	}
}

// All calls yield sequentially for each key and value present in the map.
// If yield returns false, iteration stops. An unordered map visits the null
// slot first and then walks the table from its last slot down to slot 0; a
// LinkedMap visits entries in list order. The map must not be mutated during
// All; use an Iterator to remove entries while iterating.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	if m.links != nil {
		for i := m.first; i != -1; i = int(m.links[i].next) {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
		return
	}
	if m.containsNull && !yield(m.keys[m.n], m.values[m.n]) {
		return
	}
	for i := m.n - 1; i >= 0; i-- {
		if !isNullKey(m.keys[i]) {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the map with the same configuration,
// capacity and, for an ordered map, order.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{}
	m.cloneInto(c)
	return c
}

func (m *Map[K, V]) cloneInto(c *Map[K, V]) {
	*c = *m
	c.keys = m.allocator.AllocKeys(m.n + 1)
	c.values = m.allocator.AllocValues(m.n + 1)
	copy(c.keys, m.keys)
	copy(c.values, m.values)
	if m.links != nil {
		c.links = make([]link, len(m.links))
		copy(c.links, m.links)
	}
}

// Equal returns true if m and other hold the same set of entries. Order is
// not considered.
func (m *Map[K, V]) Equal(other *Map[K, V]) bool {
	if m.size != other.size {
		return false
	}
	equal := true
	m.All(func(k K, v V) bool {
		ov, ok := other.Lookup(k)
		equal = ok && valueEqual(v, ov)
		return equal
	})
	return equal
}

// String formats the map like a builtin map, in iteration order.
func (m *Map[K, V]) String() string {
	var buf strings.Builder
	buf.WriteString("map[")
	sep := ""
	m.All(func(k K, v V) bool {
		fmt.Fprintf(&buf, "%s%v:%v", sep, k, v)
		sep = " "
		return true
	})
	buf.WriteString("]")
	return buf.String()
}

// GoString implements the fmt.GoStringer interface which is used when
// formatting using the "%#v" format specifier.
func (m *Map[K, V]) GoString() string {
	var buf strings.Builder
	m.goFormat(&buf)
	return buf.String()
}

func (m *Map[K, V]) goFormat(w io.Writer) {
	fmt.Fprintf(w, "capacity=%d  size=%d  max-fill=%d  first=%d  last=%d\n",
		m.n, m.size, m.maxFill, m.first, m.last)
	for i := 0; i <= m.n; i++ {
		occupied := !isNullKey(m.keys[i])
		if i == m.n {
			occupied = m.containsNull
		}
		if !occupied {
			fmt.Fprintf(w, "  %4d: empty\n", i)
			continue
		}
		if m.links != nil {
			fmt.Fprintf(w, "  %4d: %v:%v [home=%d prev=%d next=%d]\n",
				i, m.keys[i], m.values[i], m.home(m.keys[i]), m.links[i].prev, m.links[i].next)
		} else {
			fmt.Fprintf(w, "  %4d: %v:%v [home=%d]\n", i, m.keys[i], m.values[i], m.home(m.keys[i]))
		}
	}
}

// home returns the slot at which the probe for a non-null key starts.
func (m *Map[K, V]) home(key K) int {
	return int(m.hash(key) & uint64(m.mask))
}

// findIndex returns the slot holding key, or -(p+1) where p is the slot at
// which key would be inserted. The null key resolves to slot n.
func (m *Map[K, V]) findIndex(key K) int {
	if isNullKey(key) {
		if m.containsNull {
			return m.n
		}
		return -(m.n + 1)
	}

	pos := m.home(key)
	if debug {
		fmt.Printf("find(%v): home=%d\n", key, pos)
	}
	kb := keyBits(key)
	for {
		cur := m.keys[pos]
		if isNullKey(cur) {
			return -(pos + 1)
		}
		if keyBits(cur) == kb {
			return pos
		}
		pos = (pos + 1) & m.mask
	}
}

// insert stores key and value in the free slot pos, appends the slot to the
// link chain and grows the table if the fill threshold was crossed.
func (m *Map[K, V]) insert(pos int, key K, value V) {
	if pos == m.n {
		m.containsNull = true
		key = 0
	}
	m.keys[pos] = key
	m.values[pos] = value
	m.onNodeAdded(pos)
	m.incSize()
}

// incSize accounts for one inserted entry. The table grows once the entry
// count before the insert had reached maxFill, so an insert never completes
// with size > maxFill.
func (m *Map[K, V]) incSize() {
	m.size++
	if m.size-1 >= m.maxFill {
		m.rehash(arraySize(m.size+1, m.loadFactor))
	}
}

// removeAt removes the entry in slot pos and returns its value.
func (m *Map[K, V]) removeAt(pos int) V {
	if pos == m.n {
		return m.removeNullEntry()
	}
	return m.removeEntry(pos)
}

func (m *Map[K, V]) removeEntry(pos int) V {
	old := m.values[pos]
	m.size--
	m.onNodeRemoved(pos)
	m.shiftKeys(pos, nil)
	m.maybeShrink()
	return old
}

func (m *Map[K, V]) removeNullEntry() V {
	var zero V
	old := m.values[m.n]
	m.containsNull = false
	m.keys[m.n] = 0
	m.values[m.n] = zero
	m.size--
	m.onNodeRemoved(m.n)
	m.maybeShrink()
	return old
}

func (m *Map[K, V]) maybeShrink() {
	if m.n > m.minN && m.size < m.maxFill/4 {
		m.rehash(m.n / 2)
	}
}

// shiftKeys closes the gap at pos by backward shifting. Starting after the
// gap, each occupied slot whose probe path passes through the gap is moved
// into it, and the vacated slot becomes the new gap. The walk ends at the
// first empty slot, which is where the final gap is cleared. moved, if
// non-nil, is called after each relocation.
func (m *Map[K, V]) shiftKeys(pos int, moved func(from, to int)) {
	var zero V
	for {
		last := pos
		pos = (pos + 1) & m.mask
		var cur K
		for {
			cur = m.keys[pos]
			if isNullKey(cur) {
				m.keys[last] = 0
				m.values[last] = zero
				return
			}
			// The entry at pos may fill the gap at last iff last lies on the
			// cyclic probe path [slot, pos].
			slot := m.home(cur)
			if last <= pos {
				if last >= slot || slot > pos {
					break
				}
			} else if last >= slot && slot > pos {
				break
			}
			pos = (pos + 1) & m.mask
		}
		if debug {
			fmt.Printf("shift(%v): %d -> %d\n", cur, pos, last)
		}
		m.keys[last] = cur
		m.values[last] = m.values[pos]
		m.onNodeMoved(pos, last)
		if moved != nil {
			moved(pos, last)
		}
	}
}

// rehash rebuilds the table with newN addressable slots.
func (m *Map[K, V]) rehash(newN int) {
	if newN > maxCapacity {
		panic(errors.Wrapf(ErrCapacityExceeded, "capacity %d", newN))
	}
	if debug {
		fmt.Printf("rehash: capacity=%d->%d  size=%d\n", m.n, newN, m.size)
	}

	oldKeys, oldValues := m.keys, m.values
	newKeys := m.allocator.AllocKeys(newN + 1)
	newValues := m.allocator.AllocValues(newN + 1)
	newMask := newN - 1

	place := func(i int) int {
		if i == m.n {
			return newN
		}
		pos := int(m.hash(oldKeys[i]) & uint64(newMask))
		for !isNullKey(newKeys[pos]) {
			pos = (pos + 1) & newMask
		}
		return pos
	}

	if m.links != nil {
		// Walk the chain so that the new chain is built in the same order.
		newLinks := make([]link, newN+1)
		i, newPrev := m.first, -1
		for j := m.size; j > 0; j-- {
			if i < 0 {
				panic(corrupted("chain ended with %d of %d entries unvisited", j, m.size))
			}
			pos := place(i)
			newKeys[pos] = oldKeys[i]
			newValues[pos] = oldValues[i]
			if newPrev == -1 {
				m.first = pos
				newLinks[pos] = link{prev: -1, next: -1}
			} else {
				newLinks[newPrev].next = int32(pos)
				newLinks[pos].prev = int32(newPrev)
			}
			newPrev = pos
			i = int(m.links[i].next)
		}
		if newPrev != -1 {
			newLinks[newPrev].next = -1
		}
		m.links = newLinks
		m.last = newPrev
	} else {
		i := m.n
		for j := m.realSize(); j > 0; j-- {
			i--
			for i >= 0 && isNullKey(oldKeys[i]) {
				i--
			}
			if i < 0 {
				panic(corrupted("found %d live slots, expected %d", m.realSize()-j, m.realSize()))
			}
			pos := place(i)
			newKeys[pos] = oldKeys[i]
			newValues[pos] = oldValues[i]
		}
		newValues[newN] = oldValues[m.n]
	}

	m.allocator.FreeKeys(oldKeys)
	m.allocator.FreeValues(oldValues)
	m.keys, m.values = newKeys, newValues
	m.n = newN
	m.mask = newMask
	m.maxFill = maxFill(newN, m.loadFactor)
	m.checkInvariants()
}

// realSize is the number of entries outside the null slot.
func (m *Map[K, V]) realSize() int {
	if m.containsNull {
		return m.size - 1
	}
	return m.size
}

// checkInvariants verifies the internal consistency of the table. It panics
// if any check fails, which indicates a bug in the implementation.
func (m *Map[K, V]) checkInvariants() {
	if invariants {
		used := 0
		for i := 0; i < m.n; i++ {
			if isNullKey(m.keys[i]) {
				continue
			}
			used++
			if pos := m.findIndex(m.keys[i]); pos != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v found at %d\n%#v", i, m.keys[i], pos, m))
			}
		}
		if m.containsNull {
			used++
		}
		if used != m.size {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but size is %d\n%#v", used, m.size, m))
		}
		if expected := maxFill(m.n, m.loadFactor); m.maxFill != expected {
			panic(fmt.Sprintf("invariant failed: max-fill is %d, expected %d", m.maxFill, expected))
		}
		if m.size > m.maxFill {
			panic(fmt.Sprintf("invariant failed: size %d exceeds max-fill %d\n%#v", m.size, m.maxFill, m))
		}
		m.checkLinks()
	}
}

// nextPowerOfTwo returns the least power of two >= x (1 for x <= 1).
func nextPowerOfTwo(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}

// maxFill returns the number of entries a table of n slots may hold.
func maxFill(n int, f float32) int {
	return min(int(math.Ceil(float64(n)*float64(f))), n-1)
}

// arraySize returns the least power of two capacity able to hold expected
// entries at load factor f.
func arraySize(expected int, f float32) int {
	s := max(2, nextPowerOfTwo(int(math.Ceil(float64(expected)/float64(f)))))
	if s > maxCapacity {
		panic(errors.Wrapf(ErrCapacityExceeded, "%d entries at load factor %v", expected, f))
	}
	return s
}
