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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeySet(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 10; i++ {
		m.Put(i, i*i)
	}
	keys := m.Keys()
	require.EqualValues(t, 10, keys.Len())
	require.True(t, keys.Contains(3))
	require.False(t, keys.Contains(10))

	require.True(t, keys.Remove(3))
	require.False(t, keys.Remove(3))
	require.False(t, m.ContainsKey(3))
	require.EqualValues(t, 9, m.Len())

	// The view is live.
	m.Put(42, 0)
	require.True(t, keys.Contains(42))

	sum := 0
	for k := range keys.All {
		sum += k
	}
	require.EqualValues(t, 45-3+42, sum)

	for it := keys.Iterator(); it.Next(); {
		if it.Key()%2 == 0 {
			it.Remove()
		}
	}
	require.Equal(t, map[int]int{1: 1, 5: 25, 7: 49, 9: 81}, m.toBuiltinMap())

	keys.Clear()
	require.True(t, m.IsEmpty())
}

func TestValueCollection(t *testing.T) {
	m := NewLinked[int, int](0)
	m.Put(1, 100)
	m.Put(2, 200)
	m.Put(3, 100)
	values := m.Values()
	require.EqualValues(t, 3, values.Len())
	require.True(t, values.Contains(200))
	require.False(t, values.Contains(300))

	var all []int
	for v := range values.All {
		all = append(all, v)
	}
	require.Equal(t, []int{100, 200, 100}, all)

	// Removes the first match in iteration order only.
	require.True(t, values.Remove(100))
	require.False(t, m.ContainsKey(1))
	require.True(t, m.ContainsKey(3))
	require.False(t, values.Remove(300))

	for it := values.Iterator(); it.Next(); {
		it.SetValue(it.Value() + 1)
	}
	require.Equal(t, []int{2, 3}, linkedKeys(m))
	require.EqualValues(t, 201, m.Get(2))
	require.EqualValues(t, 101, m.Get(3))

	values.Clear()
	require.EqualValues(t, 0, values.Len())
}

func TestEntrySet(t *testing.T) {
	m := NewLinked[int8, bool](0)
	m.Put(3, true)
	m.Put(0, false)
	m.Put(-2, true)
	entries := m.Entries()
	require.EqualValues(t, 3, entries.Len())

	require.True(t, entries.Contains(Entry[int8, bool]{Key: 0, Value: false}))
	require.False(t, entries.Contains(Entry[int8, bool]{Key: 0, Value: true}))
	require.False(t, entries.Contains(Entry[int8, bool]{Key: 1, Value: false}))

	var all []Entry[int8, bool]
	for e := range entries.All {
		all = append(all, e)
	}
	require.Equal(t, []Entry[int8, bool]{{3, true}, {0, false}, {-2, true}}, all)

	require.False(t, entries.Remove(Entry[int8, bool]{Key: 3, Value: false}))
	require.True(t, entries.Remove(Entry[int8, bool]{Key: 3, Value: true}))
	require.EqualValues(t, 2, m.Len())

	// A cursor writes through to the map.
	it := entries.Iterator()
	require.True(t, it.Next())
	c := it.Cursor()
	require.EqualValues(t, 0, c.Key())
	c.SetValue(true)
	require.True(t, m.Get(0))
	e := c.Entry()
	require.True(t, e.Value)

	entries.Clear()
	require.EqualValues(t, 0, m.Len())
}
