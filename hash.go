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
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/exp/constraints"
)

// Key is the set of types usable as map keys. Keys are compared by their raw
// bit pattern rather than with ==, so two NaNs with the same payload are the
// same key while NaNs with different payloads are not. The floating point
// zeros are folded together: -0.0 and +0.0 name the same key.
type Key interface {
	constraints.Integer | constraints.Float
}

// Value is the set of types usable as map values.
type Value interface {
	constraints.Integer | constraints.Float | ~bool
}

// Number is the set of value types supporting the accumulation functions
// AddTo and SubFrom.
type Number interface {
	constraints.Integer | constraints.Float
}

// phi64 is 2^64 divided by the golden ratio.
const phi64 = 0x9e3779b97f4a7c15

// mix scrambles the bits of x so that keys which differ only in their high
// bits still land in different slots once masked.
func mix(x uint64) uint64 {
	h := x * phi64
	h ^= h >> 32
	return h ^ (h >> 16)
}

// canonicalKey folds -0.0 onto +0.0. Every other key is returned unchanged.
func canonicalKey[K Key](key K) K {
	if key == 0 {
		return 0
	}
	return key
}

// isNullKey reports whether key has the zero bit pattern once canonicalized,
// i.e. whether it lives in the sentinel slot.
func isNullKey[K Key](key K) bool {
	return key == 0
}

// keyBits returns the raw representation of the canonical key, zero extended
// to 64 bits.
func keyBits[K Key](key K) uint64 {
	if key == 0 {
		return 0
	}
	p := unsafe.Pointer(&key)
	switch unsafe.Sizeof(key) {
	case 1:
		return uint64(*(*uint8)(p))
	case 2:
		return uint64(*(*uint16)(p))
	case 4:
		return uint64(*(*uint32)(p))
	default:
		return *(*uint64)(p)
	}
}

// keyEqual compares a and b bit for bit.
func keyEqual[K Key](a, b K) bool {
	return keyBits(a) == keyBits(b)
}

// keyBytes returns the in-memory bytes of *key. The result aliases key.
func keyBytes[K Key](key *K) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(key)), unsafe.Sizeof(*key))
}

// valueEqual is == except that any two NaNs are considered equal, which keeps
// ContainsValue and RemoveValue usable for NaN values.
func valueEqual[V Value](a, b V) bool {
	return a == b || (a != a && b != b)
}

// MixHash is the default hash function. It multiplies the key bits by the
// golden ratio and folds the high bits down, which is cheap and sufficient
// for linear probing over a power of two table.
func MixHash[K Key](key K) uint64 {
	return mix(keyBits(key))
}

// XXHash hashes the canonical key bytes with xxHash64.
func XXHash[K Key](key K) uint64 {
	k := canonicalKey(key)
	return xxhash.Sum64(keyBytes(&k))
}

// XXH3Hash hashes the canonical key bytes with XXH3.
func XXH3Hash[K Key](key K) uint64 {
	k := canonicalKey(key)
	return xxh3.Hash(keyBytes(&k))
}

// Murmur3Hash hashes the canonical key bytes with the 64-bit half of
// MurmurHash3 x64_128.
func Murmur3Hash[K Key](key K) uint64 {
	k := canonicalKey(key)
	return murmur3.Sum64(keyBytes(&k))
}
