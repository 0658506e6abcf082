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

package transport_test

import (
	"net"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// echoListener starts a TCP listener that echoes back anything it reads,
// standing in for a server without a real network dependency.
func echoListener() (net.Listener, string) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					if _, err = c.Write(buf[:n]); err != nil {
						return
					}
				}
			}(c)
		}
	}()

	return l, l.Addr().String()
}

var _ = Describe("TCP transport", func() {
	It("round-trips bytes over a dialed connection", func() {
		l, addr := echoListener()
		defer l.Close()

		e, err := endpoint.Parse("memcache://" + addr)
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		n, err := tr.Write([]byte("hello"))
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(5))

		buf := make([]byte, 5)
		_, err = tr.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("hello"))

		Expect(tr.IsConnected()).To(BeTrue())
	})

	It("marks the transport disconnected after the peer closes", func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		// The peer accepts one connection and closes it straight away.
		go func() {
			if c, err := l.Accept(); err == nil {
				_ = c.Close()
			}
		}()

		e, err := endpoint.Parse("memcache://" + l.Addr().String())
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		_, _ = tr.Write([]byte("x"))
		buf := make([]byte, 1)
		_, err = tr.Read(buf)
		Expect(err).To(HaveOccurred())
		Expect(tr.IsConnected()).To(BeFalse())
	})

	It("honors read/write timeouts without erroring on a stream transport", func() {
		l, addr := echoListener()
		defer l.Close()

		e, err := endpoint.Parse("memcache://" + addr)
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		Expect(tr.SetReadTimeout(50 * time.Millisecond)).ToNot(HaveOccurred())
		Expect(tr.SetWriteTimeout(50 * time.Millisecond)).ToNot(HaveOccurred())
	})

	It("gives each Read a fresh timeout budget, however long the connection has been idle", func() {
		l, addr := echoListener()
		defer l.Close()

		e, err := endpoint.Parse("memcache://" + addr)
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		Expect(tr.SetReadTimeout(100 * time.Millisecond)).ToNot(HaveOccurred())

		// Idle past the whole budget before the first Read; the deadline
		// must be armed per operation, not once at configuration time.
		time.Sleep(200 * time.Millisecond)

		start := time.Now()
		buf := make([]byte, 1)
		_, err = tr.Read(buf)
		Expect(err).To(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically(">=", 80*time.Millisecond))
	})

	It("rejects an endpoint with no port", func() {
		_, err := endpoint.Parse("memcache://host-with-no-port")
		Expect(err).To(HaveOccurred())
	})
})
