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

// The functions passed to the methods in this file must not modify the map.

// ComputeIfAbsent returns the value for key. If key is absent, fn(key) is
// stored and returned.
func (m *Map[K, V]) ComputeIfAbsent(key K, fn func(key K) V) V {
	pos := m.findIndex(key)
	if pos >= 0 {
		return m.values[pos]
	}
	v := fn(key)
	m.insert(-pos-1, key, v)
	m.checkInvariants()
	return v
}

// ComputeIfAbsentFunc is like ComputeIfAbsent, but fn may decline to produce
// a value by returning ok=false, in which case nothing is inserted and the
// default return value is returned.
func (m *Map[K, V]) ComputeIfAbsentFunc(key K, fn func(key K) (value V, ok bool)) V {
	pos := m.findIndex(key)
	if pos >= 0 {
		return m.values[pos]
	}
	v, ok := fn(key)
	if !ok {
		return m.defRetValue
	}
	m.insert(-pos-1, key, v)
	m.checkInvariants()
	return v
}

// ComputeIfAbsentNonDefault is like ComputeIfAbsent, but the default return
// value stands for "no value" on both sides: a key stored with the default is
// computed as if absent, and a result equal to the default is not stored.
func (m *Map[K, V]) ComputeIfAbsentNonDefault(key K, fn func(key K) V) V {
	pos := m.findIndex(key)
	if pos >= 0 && !valueEqual(m.values[pos], m.defRetValue) {
		return m.values[pos]
	}
	v := fn(key)
	if valueEqual(v, m.defRetValue) {
		return m.defRetValue
	}
	if pos >= 0 {
		m.values[pos] = v
		return v
	}
	m.insert(-pos-1, key, v)
	m.checkInvariants()
	return v
}

// ComputeIfPresent replaces the value of a present key with the result of
// fn(key, old) and returns it. If fn returns ok=false the entry is removed.
// An absent key yields the default return value and fn is not called.
func (m *Map[K, V]) ComputeIfPresent(key K, fn func(key K, old V) (value V, ok bool)) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	v, ok := fn(key, m.values[pos])
	if !ok {
		m.removeAt(pos)
		m.checkInvariants()
		return m.defRetValue
	}
	m.values[pos] = v
	return v
}

// ComputeIfPresentNonDefault is like ComputeIfPresent, but a key stored with
// the default return value counts as absent, and the entry is removed when fn
// returns the default.
func (m *Map[K, V]) ComputeIfPresentNonDefault(key K, fn func(key K, old V) V) V {
	pos := m.findIndex(key)
	if pos < 0 || valueEqual(m.values[pos], m.defRetValue) {
		return m.defRetValue
	}
	v := fn(key, m.values[pos])
	if valueEqual(v, m.defRetValue) {
		m.removeAt(pos)
		m.checkInvariants()
		return m.defRetValue
	}
	m.values[pos] = v
	return v
}

// Compute calls fn with the current value of key (the default return value
// if absent) and whether key is present. If fn returns ok=true its value is
// stored and returned; otherwise key is removed, if present, and the default
// return value is returned.
func (m *Map[K, V]) Compute(key K, fn func(key K, old V, present bool) (value V, ok bool)) V {
	pos := m.findIndex(key)
	present := pos >= 0
	old := m.defRetValue
	if present {
		old = m.values[pos]
	}
	v, ok := fn(key, old, present)
	switch {
	case !ok:
		if present {
			m.removeAt(pos)
			m.checkInvariants()
		}
		return m.defRetValue
	case present:
		m.values[pos] = v
	default:
		m.insert(-pos-1, key, v)
		m.checkInvariants()
	}
	return v
}

// Merge stores value for an absent key. For a present key it stores
// fn(old, value) instead, or removes the entry if fn returns ok=false. It
// returns the value now associated with key, or the default return value if
// the entry was removed.
func (m *Map[K, V]) Merge(key K, value V, fn func(old, value V) (merged V, ok bool)) V {
	pos := m.findIndex(key)
	if pos < 0 {
		m.insert(-pos-1, key, value)
		m.checkInvariants()
		return value
	}
	v, ok := fn(m.values[pos], value)
	if !ok {
		m.removeAt(pos)
		m.checkInvariants()
		return m.defRetValue
	}
	m.values[pos] = v
	return v
}

// AddTo adds incr to the value of key and returns the previous value. An
// absent key is treated as holding the default return value, so it is
// inserted with default+incr and the default is returned. For a LinkedMap
// pass &lm.Map.
func AddTo[K Key, V Number](m *Map[K, V], key K, incr V) V {
	pos := m.findIndex(key)
	if pos < 0 {
		m.insert(-pos-1, key, m.defRetValue+incr)
		m.checkInvariants()
		return m.defRetValue
	}
	old := m.values[pos]
	m.values[pos] = old + incr
	return old
}

// SubFrom subtracts decr from the value of a present key and returns the
// previous value. Counts that reach the default return value are removed,
// which keeps counting maps sparse: with r the result, the entry is removed
// when r >= default for decr < 0, and when r <= default otherwise. An absent
// key is left absent and the default return value is returned.
func SubFrom[K Key, V Number](m *Map[K, V], key K, decr V) V {
	pos := m.findIndex(key)
	if pos < 0 {
		return m.defRetValue
	}
	old := m.values[pos]
	r := old - decr
	var drop bool
	if decr < 0 {
		drop = r >= m.defRetValue
	} else {
		drop = r <= m.defRetValue
	}
	if drop {
		m.removeAt(pos)
		m.checkInvariants()
	} else {
		m.values[pos] = r
	}
	return old
}
