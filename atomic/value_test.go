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

package atomic_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libatm "github.com/nabbar/memcache/atomic"
)

var _ = Describe("Value[T]", func() {
	It("Load should return the zero value before any Store", func() {
		var v libatm.Value[int]
		Expect(v.Load()).To(Equal(0))

		var s libatm.Value[string]
		Expect(s.Load()).To(Equal(""))
	})

	It("Store then Load should round-trip", func() {
		var v libatm.Value[int]
		v.Store(42)
		Expect(v.Load()).To(Equal(42))
		v.Store(0)
		Expect(v.Load()).To(Equal(0))
	})

	It("Swap should return the previous value", func() {
		var v libatm.Value[string]
		Expect(v.Swap("a")).To(Equal(""))
		Expect(v.Swap("b")).To(Equal("a"))
		Expect(v.Load()).To(Equal("b"))
	})

	It("CompareAndSwap should only swap on a matching old value", func() {
		var v libatm.Value[int]
		v.Store(5)

		Expect(v.CompareAndSwap(4, 9)).To(BeFalse())
		Expect(v.Load()).To(Equal(5))

		Expect(v.CompareAndSwap(5, 9)).To(BeTrue())
		Expect(v.Load()).To(Equal(9))
	})

	It("should keep a consistent value under concurrent stores", func() {
		var v libatm.Value[int]
		var wg sync.WaitGroup

		for i := 1; i <= 16; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				v.Store(n)
			}(i)
		}
		wg.Wait()

		got := v.Load()
		Expect(got).To(BeNumerically(">=", 1))
		Expect(got).To(BeNumerically("<=", 16))
	})
})
