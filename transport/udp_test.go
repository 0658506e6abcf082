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

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// udpEchoServer reads one framed datagram request and echoes its payload
// back under the same request id and sequence/total shape, enough to
// exercise the client-side framing and reassembly without a real
// memcached server.
func udpEchoServer() (*net.UDPConn, string) {
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	c, err := net.ListenUDP("udp", addr)
	Expect(err).ToNot(HaveOccurred())

	go func() {
		buf := make([]byte, 65536)
		for {
			n, raddr, err := c.ReadFromUDP(buf)
			if err != nil {
				return
			}
			reply := append([]byte(nil), buf[:n]...)
			_, _ = c.WriteToUDP(reply, raddr)
		}
	}()

	return c, c.LocalAddr().String()
}

var _ = Describe("UDP transport", func() {
	It("frames a request and reassembles a single-datagram reply", func() {
		srv, addr := udpEchoServer()
		defer srv.Close()

		e, err := endpoint.Parse("memcache+udp://" + addr)
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		_, err = tr.Write([]byte("get foo\r\n"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, len("get foo\r\n"))
		_, err = tr.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("get foo\r\n"))
	})

	It("selects UDP from the udp=true query parameter on a memcache:// URL", func() {
		e, err := endpoint.Parse("memcache://127.0.0.1:11211?udp=true")
		Expect(err).ToNot(HaveOccurred())
		Expect(e.Network).To(Equal(endpoint.NetworkUDP))
	})

	It("timeout setters are no-ops and never error", func() {
		srv, addr := udpEchoServer()
		defer srv.Close()

		e, err := endpoint.Parse("memcache+udp://" + addr)
		Expect(err).ToNot(HaveOccurred())

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		Expect(tr.SetReadTimeout(0)).ToNot(HaveOccurred())
		Expect(tr.SetWriteTimeout(0)).ToNot(HaveOccurred())
	})
})
