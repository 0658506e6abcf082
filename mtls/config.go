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

package mtls

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/nabbar/memcache/merrors"
)

type config struct {
	verify VerifyMode
	roots  *x509.CertPool
	certs  []tls.Certificate
}

func (c *config) WithRootCA(pemBytes []byte) error {
	if c.roots == nil {
		c.roots = x509.NewCertPool()
	}

	if !c.roots.AppendCertsFromPEM(pemBytes) {
		return merrors.TLS("no valid certificate found in root CA PEM data")
	}

	return nil
}

func (c *config) WithCertificate(certPEM, keyPEM []byte) error {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return merrors.TLS("invalid client certificate pair", err)
	}

	c.certs = append(c.certs, cert)
	return nil
}

func (c *config) WithVerifyMode(mode VerifyMode) {
	c.verify = mode
}

func (c *config) TLS(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		RootCAs:            c.roots,
		Certificates:       c.certs,
		InsecureSkipVerify: c.verify == VerifyNone,
		MinVersion:         tls.VersionTLS12,
	}
}

func (c *config) Clone() Config {
	n := &config{
		verify: c.verify,
		certs:  append([]tls.Certificate(nil), c.certs...),
	}

	if c.roots != nil {
		n.roots = c.roots.Clone()
	}

	return n
}
