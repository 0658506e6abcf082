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

package router_test

import (
	"sort"

	"github.com/nabbar/memcache/router"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Router", func() {
	It("picks a deterministic, stable destination for a fixed pool list", func() {
		r := router.New([]string{"a", "b", "c"}, router.Default)

		first := r.Index("some-key")
		for i := 0; i < 100; i++ {
			Expect(r.Index("some-key")).To(Equal(first))
		}
	})

	It("is unaffected by an unrelated key's presence (sharding stability)", func() {
		r := router.New([]string{"a", "b", "c"}, router.Default)

		before := r.Index("target-key")
		_ = r.Index("some-other-key") // looking up an unrelated key mutates nothing
		after := r.Index("target-key")

		Expect(after).To(Equal(before))
	})

	It("groups keys by destination preserving multiplicity", func() {
		r := router.New([]string{"a", "b", "c", "d", "e"}, router.Default)

		keys := []string{"foo", "bar", "baz", "qux", "quux", "corge", "grault"}
		groups := r.Group(keys)

		var flattened []string
		for _, ks := range groups {
			flattened = append(flattened, ks...)
		}

		sort.Strings(flattened)
		want := append([]string(nil), keys...)
		sort.Strings(want)

		Expect(flattened).To(Equal(want))
	})

	It("routes every key in a group to the same index Pick would choose", func() {
		r := router.New([]string{"a", "b", "c"}, router.Default)

		keys := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"}
		groups := r.Group(keys)

		for idx, ks := range groups {
			for _, k := range ks {
				Expect(r.Index(k)).To(Equal(idx))
			}
		}
	})

	It("uses a custom hash function when supplied", func() {
		always0 := func(string) uint64 { return 0 }
		r := router.New([]string{"a", "b", "c"}, always0)

		Expect(r.Pick("anything")).To(Equal("a"))
		Expect(r.Pick("something-else")).To(Equal("a"))
	})

	It("defaults to the xxhash-backed HashFunc when none is given", func() {
		r := router.New([]string{"a", "b"}, nil)
		Expect(r.Index("x")).To(BeNumerically(">=", 0))
		Expect(r.Index("x")).To(BeNumerically("<", 2))
	})

	It("exposes pools in construction order", func() {
		r := router.New([]string{"a", "b", "c"}, router.Default)
		Expect(r.Pools()).To(Equal([]string{"a", "b", "c"}))
		Expect(r.Len()).To(Equal(3))
	})
})
