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
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func BenchmarkMapIter(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapIter[int64]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapIter[int64]))
	})
	b.Run("impl=linkedMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkLinkedMapIter[int64]))
	})
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetHit[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapGetHit[int32]))
		b.Run("t=Float64", benchSizes(benchmarkRuntimeMapGetHit[float64]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapGetHit[int64]))
		b.Run("t=Int32", benchSizes(benchmarkPrimMapGetHit[int32]))
		b.Run("t=Float64", benchSizes(benchmarkPrimMapGetHit[float64]))
	})
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetMiss[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapGetMiss[int32]))
		b.Run("t=Float64", benchSizes(benchmarkRuntimeMapGetMiss[float64]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapGetMiss[int64]))
		b.Run("t=Int32", benchSizes(benchmarkPrimMapGetMiss[int32]))
		b.Run("t=Float64", benchSizes(benchmarkPrimMapGetMiss[float64]))
	})
}

func BenchmarkMapPutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutGrow[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapPutGrow[int32]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapPutGrow[int64]))
		b.Run("t=Int32", benchSizes(benchmarkPrimMapPutGrow[int32]))
	})
}

func BenchmarkMapPutPreAllocate(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutPreAllocate[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapPutPreAllocate[int32]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapPutPreAllocate[int64]))
		b.Run("t=Int32", benchSizes(benchmarkPrimMapPutPreAllocate[int32]))
	})
}

func BenchmarkMapPutReuse(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutReuse[int64]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapPutReuse[int64]))
	})
}

func BenchmarkMapPutDelete(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutDelete[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapPutDelete[int32]))
	})
	b.Run("impl=primMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkPrimMapPutDelete[int64]))
		b.Run("t=Int32", benchSizes(benchmarkPrimMapPutDelete[int32]))
	})
	b.Run("impl=linkedMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkLinkedMapPutDelete[int64]))
	})
}

func BenchmarkHash(b *testing.B) {
	hashes := []struct {
		name string
		fn   func(int64) uint64
	}{
		{"mix", MixHash[int64]},
		{"xxhash", XXHash[int64]},
		{"xxh3", XXH3Hash[int64]},
		{"murmur3", Murmur3Hash[int64]},
	}
	for _, h := range hashes {
		b.Run("hash="+h.name, benchSizes(func(b *testing.B, n int) {
			m := New[int64, int64](n, WithHash[int64, int64](h.fn))
			keys := genKeys[int64](0, n)
			for _, k := range keys {
				m.Put(k, k)
			}
			cs := perfbench.Open(b)
			b.ResetTimer()
			cs.Reset()
			var v int64
			for i := 0; i < b.N; i++ {
				v += m.Get(keys[i%n])
			}
			b.StopTimer()
			fmt.Fprint(io.Discard, v)
		}))
	}
}

type benchTypes interface {
	int32 | int64 | float64
}

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func genKeys[T benchTypes](start, end int) []T {
	keys := make([]T, end-start)
	for i := range keys {
		keys[i] = T(start + i)
	}
	return keys
}

func benchmarkRuntimeMapIter[T benchTypes](b *testing.B, n int) {
	m := make(map[T]T, n)
	for _, k := range genKeys[T](0, n) {
		m[k] = k
	}
	b.ResetTimer()
	var tmp T
	for i := 0; i < b.N; i++ {
		for k, v := range m {
			tmp += k + v
		}
	}
}

func benchmarkPrimMapIter[T benchTypes](b *testing.B, n int) {
	m := New[T, T](n)
	for _, k := range genKeys[T](0, n) {
		m.Put(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var tmp T
	for i := 0; i < b.N; i++ {
		for k, v := range m.All {
			tmp += k + v
		}
	}
}

func benchmarkLinkedMapIter[T benchTypes](b *testing.B, n int) {
	m := NewLinked[T, T](n)
	for _, k := range genKeys[T](0, n) {
		m.Put(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var tmp T
	for i := 0; i < b.N; i++ {
		for k, v := range m.All {
			tmp += k + v
		}
	}
}

func benchmarkRuntimeMapGetMiss[T benchTypes](b *testing.B, n int) {
	m := make(map[T]T)
	miss := genKeys[T](-n, 0)
	for _, k := range genKeys[T](0, n) {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[miss[i%len(miss)]]
	}
}

func benchmarkPrimMapGetMiss[T benchTypes](b *testing.B, n int) {
	m := New[T, T](0)
	keys := genKeys[T](0, n)
	miss := genKeys[T](-n, 0)
	for j := range keys {
		m.Put(keys[j], keys[j])
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Lookup(miss[i%len(miss)])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapGetHit[T benchTypes](b *testing.B, n int) {
	m := make(map[T]T, n)
	keys := genKeys[T](0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i%n]]
	}
}

func benchmarkPrimMapGetHit[T benchTypes](b *testing.B, n int) {
	m := New[T, T](n)
	keys := genKeys[T](0, n)
	for _, k := range keys {
		m.Put(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Lookup(keys[i%n])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapPutGrow[T benchTypes](b *testing.B, n int) {
	keys := genKeys[T](0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[T]T)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkPrimMapPutGrow[T benchTypes](b *testing.B, n int) {
	keys := genKeys[T](0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		m := New[T, T](0)
		for _, k := range keys {
			m.Put(k, k)
		}
	}
}

func benchmarkRuntimeMapPutPreAllocate[T benchTypes](b *testing.B, n int) {
	keys := genKeys[T](0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[T]T, n)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkPrimMapPutPreAllocate[T benchTypes](b *testing.B, n int) {
	keys := genKeys[T](0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		m := New[T, T](n)
		for _, k := range keys {
			m.Put(k, k)
		}
	}
}

func benchmarkRuntimeMapPutReuse[T benchTypes](b *testing.B, n int) {
	m := make(map[T]T, n)
	keys := genKeys[T](0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			m[k] = k
		}
		clear(m)
	}
}

func benchmarkPrimMapPutReuse[T benchTypes](b *testing.B, n int) {
	m := New[T, T](n)
	keys := genKeys[T](0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			m.Put(k, k)
		}
		m.Clear()
	}
}

func benchmarkRuntimeMapPutDelete[T benchTypes](b *testing.B, n int) {
	m := make(map[T]T, n)
	keys := genKeys[T](0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % n
		delete(m, keys[j])
		m[keys[j]] = keys[j]
	}
}

func benchmarkPrimMapPutDelete[T benchTypes](b *testing.B, n int) {
	m := New[T, T](n)
	keys := genKeys[T](0, n)
	for _, k := range keys {
		m.Put(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		j := i % n
		m.Remove(keys[j])
		m.Put(keys[j], keys[j])
	}
}

func benchmarkLinkedMapPutDelete[T benchTypes](b *testing.B, n int) {
	m := NewLinked[T, T](n)
	keys := genKeys[T](0, n)
	for _, k := range keys {
		m.Put(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		j := i % n
		m.Remove(keys[j])
		m.Put(keys[j], keys[j])
	}
}
