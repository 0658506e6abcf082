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

package transport

import (
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/mtls"
)

// tlsTransport wraps a stream TCP connection in a TLS session, built from
// the endpoint's verify_mode/ca_path/cert_path/key_path query parameters via
// mtls.Config. TLS-specific failures (handshake, certificate) surface as a
// distinct merrors.KindTLS error. Like the plain TCP variant, the
// configured read/write timeouts are armed afresh on every operation.
type tlsTransport struct {
	conn   *tls.Conn
	rto    time.Duration
	wto    time.Duration
	closed atomic.Bool
}

var _ Transport = (*tlsTransport)(nil)

func dialTLS(e *endpoint.Endpoint, cfg mtls.Config) (Transport, error) {
	if cfg == nil {
		var err error
		cfg, err = mtls.FromPaths(mtls.ParseVerifyMode(e.VerifyMode), e.CAPath, e.CertPath, e.KeyPath)
		if err != nil {
			return nil, err
		}
	}

	addr, err := net.ResolveTCPAddr("tcp", e.Address())
	if err != nil {
		return nil, merrors.IO("resolving tls endpoint address", err)
	}

	d := net.Dialer{Timeout: e.Timeout}
	raw, err := d.Dial("tcp", addr.String())
	if err != nil {
		return nil, merrors.IO("dialing tls endpoint", err)
	}

	if tc, ok := raw.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(e.TCPNoDelay)
	}

	tlsConn := tls.Client(raw, cfg.TLS(e.Host))

	if e.Timeout > 0 {
		_ = tlsConn.SetDeadline(time.Now().Add(e.Timeout))
	}

	if err = tlsConn.Handshake(); err != nil {
		_ = raw.Close()
		return nil, merrors.TLS("tls handshake failed", err)
	}

	return &tlsTransport{conn: tlsConn, rto: e.Timeout, wto: e.Timeout}, nil
}

func (t *tlsTransport) Read(p []byte) (int, error) {
	if t.rto > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.rto))
	} else {
		_ = t.conn.SetReadDeadline(time.Time{})
	}
	n, err := t.conn.Read(p)
	if err != nil {
		t.closed.Store(true)
		return n, err
	}
	return n, nil
}

func (t *tlsTransport) Write(p []byte) (int, error) {
	if t.wto > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.wto))
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	n, err := t.conn.Write(p)
	if err != nil {
		t.closed.Store(true)
		return n, err
	}
	return n, nil
}

func (t *tlsTransport) Flush() error {
	return nil
}

func (t *tlsTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *tlsTransport) SetReadTimeout(d time.Duration) error {
	t.rto = d
	return nil
}

func (t *tlsTransport) SetWriteTimeout(d time.Duration) error {
	t.wto = d
	return nil
}

func (t *tlsTransport) IsConnected() bool {
	return !t.closed.Load()
}
