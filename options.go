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

import "github.com/cockroachdb/errors"

// Option configures a Map while it is being created.
type Option[K Key, V Value] interface {
	apply(m *Map[K, V])
}

type hashOption[K Key, V Value] struct {
	hash func(key K) uint64
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// The slot for a key is the hash masked by the table size, so the low bits of
// the result must be well distributed. The default is MixHash; XXHash,
// XXH3Hash and Murmur3Hash are provided as alternatives.
func WithHash[K Key, V Value](hash func(key K) uint64) Option[K, V] {
	return hashOption[K, V]{hash}
}

type loadFactorOption[K Key, V Value] struct {
	loadFactor float32
}

func (op loadFactorOption[K, V]) apply(m *Map[K, V]) {
	if !(op.loadFactor > 0 && op.loadFactor < 1) {
		panic(errors.Wrapf(ErrInvalidLoadFactor, "load factor %v", op.loadFactor))
	}
	m.loadFactor = op.loadFactor
}

// WithLoadFactor is an option to specify the fraction of the table that may
// be filled before it grows. It must lie strictly between 0 and 1 and cannot
// be changed once the map is built. The default is DefaultLoadFactor.
func WithLoadFactor[K Key, V Value](loadFactor float32) Option[K, V] {
	return loadFactorOption[K, V]{loadFactor}
}

type defaultReturnValueOption[K Key, V Value] struct {
	value V
}

func (op defaultReturnValueOption[K, V]) apply(m *Map[K, V]) {
	m.defRetValue = op.value
}

// WithDefaultReturnValue is an option to specify the value returned by
// lookups of a missing key. See Map.SetDefaultReturnValue.
func WithDefaultReturnValue[K Key, V Value](value V) Option[K, V] {
	return defaultReturnValueOption[K, V]{value}
}

// Allocator specifies an interface for allocating and releasing the key and
// value arrays used by a Map. The default allocator utilizes Go's builtin
// make() and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that arrays be
// freed then Map.Close must be called in order to ensure FreeKeys and
// FreeValues are called for the final arrays.
type Allocator[K Key, V Value] interface {
	// AllocKeys should return a slice equivalent to make([]K, n).
	AllocKeys(n int) []K

	// AllocValues should return a slice equivalent to make([]V, n).
	AllocValues(n int) []V

	// FreeKeys can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocKeys.
	FreeKeys(v []K)

	// FreeValues can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocValues.
	FreeValues(v []V)
}

type defaultAllocator[K Key, V Value] struct{}

func (defaultAllocator[K, V]) AllocKeys(n int) []K {
	return make([]K, n)
}

func (defaultAllocator[K, V]) AllocValues(n int) []V {
	return make([]V, n)
}

func (defaultAllocator[K, V]) FreeKeys(v []K) {
}

func (defaultAllocator[K, V]) FreeValues(v []V) {
}

type allocatorOption[K Key, V Value] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map[K,V].
func WithAllocator[K Key, V Value](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}
