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

// tcpTransport is the stream TCP variant. Nagle's algorithm is disabled by
// default (SetNoDelay(true)); tcp_nodelay=false on the endpoint URL leaves
// it enabled. The configured read/write timeouts are per operation: each
// Read and Write arms a fresh deadline, so a pooled connection reused
// minutes after dialing still gives every call its full budget.
type tcpTransport struct {
	conn   *net.TCPConn
	rto    time.Duration
	wto    time.Duration
	closed atomic.Bool
}

var _ Transport = (*tcpTransport)(nil)

func dialTCP(e *endpoint.Endpoint) (Transport, error) {
	addr, err := net.ResolveTCPAddr("tcp", e.Address())
	if err != nil {
		return nil, merrors.IO("resolving tcp address", err)
	}

	d := net.Dialer{Timeout: e.Timeout}
	c, err := d.Dial("tcp", addr.String())
	if err != nil {
		return nil, merrors.IO("dialing tcp endpoint", err)
	}

	tc := c.(*net.TCPConn)
	if err = tc.SetNoDelay(e.TCPNoDelay); err != nil {
		_ = tc.Close()
		return nil, merrors.IO("setting tcp_nodelay", err)
	}

	return &tcpTransport{conn: tc, rto: e.Timeout, wto: e.Timeout}, nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
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

func (t *tcpTransport) Write(p []byte) (int, error) {
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

func (t *tcpTransport) Flush() error {
	return nil
}

func (t *tcpTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *tcpTransport) SetReadTimeout(d time.Duration) error {
	t.rto = d
	return nil
}

func (t *tcpTransport) SetWriteTimeout(d time.Duration) error {
	t.wto = d
	return nil
}

func (t *tcpTransport) IsConnected() bool {
	return !t.closed.Load()
}
