/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomic provides a small type-safe wrapper over sync/atomic.Value,
// used by the pool package to track each pooled connection's lifecycle state
// without a mutex.
package atomic

import "sync/atomic"

// box carries a T inside an any so the zero value of T can itself be stored:
// atomic.Value.Store refuses a nil interface, which is exactly what an
// interface-typed zero value looks like.
type box[T any] struct {
	v T
}

// Value is a type-safe, lock-free container for a single value of type T.
// The zero Value is ready to use; Load returns the zero value of T until the
// first Store. A Value must not be copied after first use.
type Value[T any] struct {
	av atomic.Value
}

// Load returns the current value, or the zero value of T if nothing has been
// stored yet.
func (o *Value[T]) Load() T {
	if b, ok := o.av.Load().(box[T]); ok {
		return b.v
	}
	var zero T
	return zero
}

// Store sets the current value.
func (o *Value[T]) Store(val T) {
	o.av.Store(box[T]{v: val})
}

// Swap atomically stores val and returns the previous value (the zero value
// of T if nothing had been stored).
func (o *Value[T]) Swap(val T) T {
	if b, ok := o.av.Swap(box[T]{v: val}).(box[T]); ok {
		return b.v
	}
	var zero T
	return zero
}

// CompareAndSwap atomically stores newVal if the current value equals
// oldVal, reporting whether the swap happened. T must be comparable or
// CompareAndSwap panics, per sync/atomic.Value's own contract.
func (o *Value[T]) CompareAndSwap(oldVal, newVal T) bool {
	return o.av.CompareAndSwap(box[T]{v: oldVal}, box[T]{v: newVal})
}
