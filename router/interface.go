/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package router maps keys to server pools by a pluggable hash, and groups
// multi-key batch operations by destination so the Client facade can issue
// exactly one pipelined request per server.
package router

// HashFunc hashes a key to a 64-bit value used to pick a destination pool.
// Applications may supply any deterministic fn(string) uint64; an
// address-randomized hash would make sharding unstable across process
// restarts.
type HashFunc func(key string) uint64

// Router maps keys onto an ordered list of whatever the Client facade
// stores per server, addressed by index. It is generic over T so it can route to pool.Pool
// values without importing package pool (avoiding an import cycle, since
// pool has no reason to know about Router).
type Router[T any] struct {
	pools []T
	hash  HashFunc
}

// New builds a Router over pools in the given order. That order is stable
// for the lifetime of the Router; reordering would change which pool a key
// hashes to without any key ever moving.
func New[T any](pools []T, hash HashFunc) *Router[T] {
	if hash == nil {
		hash = Default
	}
	return &Router[T]{pools: append([]T(nil), pools...), hash: hash}
}

// Len returns the number of pools this Router routes across.
func (r *Router[T]) Len() int {
	return len(r.pools)
}

// Pools returns the ordered pool list. Callers must not mutate the
// returned slice in place; it aliases the Router's own storage for
// read-only iteration (cluster-wide operations in the Client facade).
func (r *Router[T]) Pools() []T {
	return r.pools
}

// Index returns the destination pool index for key: hash(key) mod
// len(pools). Deterministic for a fixed pool list and hash function.
func (r *Router[T]) Index(key string) int {
	return int(r.hash(key) % uint64(len(r.pools)))
}

// Pick returns the destination pool for key directly.
func (r *Router[T]) Pick(key string) T {
	return r.pools[r.Index(key)]
}

// Group partitions keys by destination pool index, preserving multiplicity:
// the concatenation of the returned map's values, in any order, is a
// permutation of keys.
func (r *Router[T]) Group(keys []string) map[int][]string {
	groups := make(map[int][]string)
	for _, k := range keys {
		idx := r.Index(k)
		groups[idx] = append(groups[idx], k)
	}
	return groups
}
