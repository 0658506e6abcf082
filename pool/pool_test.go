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

package pool_test

import (
	"context"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/pool"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pool", func() {
	var (
		l    interface{ Close() error }
		addr string
		ep   *endpoint.Endpoint
	)

	BeforeEach(func() {
		ln, a := fakeServer()
		l = ln
		addr = a

		var err error
		ep, err = endpoint.Parse("memcache://" + addr)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = l.Close()
	})

	It("dials lazily: no connection exists before the first Lease", func() {
		p := pool.New(ep, 2)
		defer p.Close()

		c, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(c).ToNot(BeNil())
		Expect(c.State()).To(Equal(pool.StateLeased))
	})

	It("reuses a returned connection instead of dialing a new one", func() {
		p := pool.New(ep, 1)
		defer p.Close()

		c1, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())
		p.Return(c1, false)

		c2, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(c2).To(BeIdenticalTo(c1))
	})

	It("discards a broken connection instead of returning it to idle", func() {
		p := pool.New(ep, 1)
		defer p.Close()

		c1, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())
		p.Return(c1, true)

		c2, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(c2).ToNot(BeIdenticalTo(c1))
	})

	It("blocks a second Lease at capacity until the first is returned (FIFO)", func() {
		p := pool.New(ep, 1)
		defer p.Close()

		c1, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())

		done := make(chan *pool.Connection, 1)
		go func() {
			defer GinkgoRecover()
			c2, err := p.Lease(context.Background())
			Expect(err).ToNot(HaveOccurred())
			done <- c2
		}()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		p.Return(c1, false)

		Eventually(done, time.Second).Should(Receive(BeIdenticalTo(c1)))
	})

	It("serves a blocked waiter with a fresh dial when a broken return frees a slot", func() {
		p := pool.New(ep, 1)
		defer p.Close()

		c1, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())

		done := make(chan *pool.Connection, 1)
		go func() {
			defer GinkgoRecover()
			c2, err := p.Lease(context.Background())
			Expect(err).ToNot(HaveOccurred())
			done <- c2
		}()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		p.Return(c1, true)

		var c2 *pool.Connection
		Eventually(done, time.Second).Should(Receive(&c2))
		Expect(c2).ToNot(BeIdenticalTo(c1))
	})

	It("fails Lease once the context is done and the pool is at capacity", func() {
		p := pool.New(ep, 1)
		defer p.Close()

		_, err := p.Lease(context.Background())
		Expect(err).ToNot(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = p.Lease(ctx)
		Expect(err).To(HaveOccurred())
	})

	It("rejects Lease once the pool is closed", func() {
		p := pool.New(ep, 1)
		Expect(p.Close()).ToNot(HaveOccurred())

		_, err := p.Lease(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("reports its bound endpoint", func() {
		p := pool.New(ep, 1)
		defer p.Close()
		Expect(p.Endpoint()).To(Equal(ep.Raw))
	})
})
