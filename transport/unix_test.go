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
	"os"
	"path/filepath"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Unix transport", func() {
	It("round-trips bytes over a local socket", func() {
		dir, err := os.MkdirTemp("", "memcache-unix-*")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)

		sock := filepath.Join(dir, "memcached.sock")
		l, err := net.Listen("unix", sock)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		go func() {
			c, err := l.Accept()
			if err != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, 16)
			n, _ := c.Read(buf)
			_, _ = c.Write(buf[:n])
		}()

		e, err := endpoint.Parse("memcache://" + sock)
		Expect(err).ToNot(HaveOccurred())
		Expect(e.Path).To(Equal(sock))

		tr, err := transport.Dial(e, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		_, err = tr.Write([]byte("ping"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 4)
		_, err = tr.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("ping"))
	})

	It("fails to dial a socket path that doesn't exist", func() {
		e, err := endpoint.Parse("memcache:///nonexistent/path/to.sock")
		Expect(err).ToNot(HaveOccurred())

		_, err = transport.Dial(e, nil)
		Expect(err).To(HaveOccurred())
	})
})
