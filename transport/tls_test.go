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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/mtls"
	"github.com/nabbar/memcache/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// selfSignedServer starts a TLS echo listener on an ephemeral port backed
// by a freshly generated, self-signed certificate - enough to exercise the
// handshake path with verify_mode=none without a real CA.
func selfSignedServer() (net.Listener, string) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	Expect(err).ToNot(HaveOccurred())

	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}

	l, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	Expect(err).ToNot(HaveOccurred())

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

	return l, l.Addr().String()
}

var _ = Describe("TLS transport", func() {
	It("completes a handshake and round-trips bytes with verify_mode=none", func() {
		l, addr := selfSignedServer()
		defer l.Close()

		e, err := endpoint.Parse("memcache+tls://" + addr + "?verify_mode=none")
		Expect(err).ToNot(HaveOccurred())
		Expect(e.Network).To(Equal(endpoint.NetworkTLS))

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

	It("fails the handshake when the server certificate can't be verified", func() {
		l, addr := selfSignedServer()
		defer l.Close()

		e, err := endpoint.Parse("memcache+tls://" + addr)
		Expect(err).ToNot(HaveOccurred())

		_, err = transport.Dial(e, mtls.Default())
		Expect(err).To(HaveOccurred())
	})
})
