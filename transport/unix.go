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
	"net"
	"sync/atomic"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
)

// unixTransport is the local socket variant: a Unix-domain stream. A socket
// path that cannot be resolved is rejected as a Client error; a failed dial
// (including on a platform without Unix-domain socket support) surfaces as
// an IO error. The configured read/write timeouts are armed afresh on every
// operation, as on the TCP variant.
type unixTransport struct {
	conn   *net.UnixConn
	rto    time.Duration
	wto    time.Duration
	closed atomic.Bool
}

var _ Transport = (*unixTransport)(nil)

func dialUnix(e *endpoint.Endpoint) (Transport, error) {
	addr, err := net.ResolveUnixAddr("unix", e.Path)
	if err != nil {
		return nil, merrors.Client("invalid unix socket path", err)
	}

	d := net.Dialer{Timeout: e.Timeout}
	c, err := d.Dial("unix", addr.String())
	if err != nil {
		return nil, merrors.IO("dialing unix endpoint", err)
	}

	return &unixTransport{conn: c.(*net.UnixConn), rto: e.Timeout, wto: e.Timeout}, nil
}

func (t *unixTransport) Read(p []byte) (int, error) {
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

func (t *unixTransport) Write(p []byte) (int, error) {
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

func (t *unixTransport) Flush() error {
	return nil
}

func (t *unixTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *unixTransport) SetReadTimeout(d time.Duration) error {
	t.rto = d
	return nil
}

func (t *unixTransport) SetWriteTimeout(d time.Duration) error {
	t.wto = d
	return nil
}

func (t *unixTransport) IsConnected() bool {
	return !t.closed.Load()
}
