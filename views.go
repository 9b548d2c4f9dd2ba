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

// KeySet is a live view of the keys of a map. Removing through the view
// removes the corresponding entries from the map; changes to the map are
// visible through the view. Keys cannot be added through it.
type KeySet[K Key, V Value] struct {
	m *Map[K, V]
}

// Keys returns a view of the keys of the map. For a LinkedMap the view
// iterates in list order.
func (m *Map[K, V]) Keys() KeySet[K, V] {
	return KeySet[K, V]{m: m}
}

// Len returns the number of keys.
func (s KeySet[K, V]) Len() int {
	return s.m.size
}

// Contains returns true if key is present in the map.
func (s KeySet[K, V]) Contains(key K) bool {
	return s.m.ContainsKey(key)
}

// Remove removes key and its value from the map. It returns false if key
// was absent.
func (s KeySet[K, V]) Remove(key K) bool {
	pos := s.m.findIndex(key)
	if pos < 0 {
		return false
	}
	s.m.removeAt(pos)
	s.m.checkInvariants()
	return true
}

// All calls yield for each key in iteration order.
func (s KeySet[K, V]) All(yield func(key K) bool) {
	s.m.All(func(k K, _ V) bool {
		return yield(k)
	})
}

// Iterator returns an iterator over the map whose Remove deletes from the
// map. Use its Key method to read the keys.
func (s KeySet[K, V]) Iterator() MapIterator[K, V] {
	return s.m.iterator()
}

// Clear removes every entry of the map.
func (s KeySet[K, V]) Clear() {
	s.m.Clear()
}

// ValueCollection is a live view of the values of a map. The same value may
// appear more than once.
type ValueCollection[K Key, V Value] struct {
	m *Map[K, V]
}

// Values returns a view of the values of the map.
func (m *Map[K, V]) Values() ValueCollection[K, V] {
	return ValueCollection[K, V]{m: m}
}

// Len returns the number of values, counting duplicates.
func (c ValueCollection[K, V]) Len() int {
	return c.m.size
}

// Contains returns true if some key maps to value. It scans the table.
func (c ValueCollection[K, V]) Contains(value V) bool {
	return c.m.ContainsValue(value)
}

// Remove removes the first entry, in iteration order, whose value is value.
// It returns false if there is none.
func (c ValueCollection[K, V]) Remove(value V) bool {
	for it := c.m.iterator(); it.Next(); {
		if valueEqual(it.Value(), value) {
			it.Remove()
			return true
		}
	}
	return false
}

// All calls yield for each value in iteration order.
func (c ValueCollection[K, V]) All(yield func(value V) bool) {
	c.m.All(func(_ K, v V) bool {
		return yield(v)
	})
}

// Iterator returns an iterator over the map whose Remove deletes from the
// map. Use its Value method to read the values.
func (c ValueCollection[K, V]) Iterator() MapIterator[K, V] {
	return c.m.iterator()
}

// Clear removes every entry of the map.
func (c ValueCollection[K, V]) Clear() {
	c.m.Clear()
}

// EntrySet is a live view of the entries of a map.
type EntrySet[K Key, V Value] struct {
	m *Map[K, V]
}

// Entries returns a view of the entries of the map.
func (m *Map[K, V]) Entries() EntrySet[K, V] {
	return EntrySet[K, V]{m: m}
}

// Len returns the number of entries.
func (s EntrySet[K, V]) Len() int {
	return s.m.size
}

// Contains returns true if e.Key is present and mapped to e.Value.
func (s EntrySet[K, V]) Contains(e Entry[K, V]) bool {
	v, ok := s.m.Lookup(e.Key)
	return ok && valueEqual(v, e.Value)
}

// Remove removes e.Key if it is mapped to e.Value. It returns true if an
// entry was removed.
func (s EntrySet[K, V]) Remove(e Entry[K, V]) bool {
	return s.m.RemoveValue(e.Key, e.Value)
}

// All calls yield with a snapshot of each entry in iteration order.
func (s EntrySet[K, V]) All(yield func(e Entry[K, V]) bool) {
	s.m.All(func(k K, v V) bool {
		return yield(Entry[K, V]{Key: k, Value: v})
	})
}

// Iterator returns an iterator over the entries of the map. Its Cursor gives
// a reusable live entry and its Entry method a snapshot.
func (s EntrySet[K, V]) Iterator() MapIterator[K, V] {
	return s.m.iterator()
}

// Clear removes every entry of the map.
func (s EntrySet[K, V]) Clear() {
	s.m.Clear()
}
