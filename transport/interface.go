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

// Package transport implements the four byte-stream variants a protocol
// session can run over (stream TCP, TLS over TCP, datagram, local socket)
// behind one contract.
package transport

import (
	"io"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/mtls"
)

// Transport is the byte-stream contract every variant presents to a
// protocol.Session: read/write with timeouts, flush, and close. Timeout
// setters are no-ops on non-stream transports (datagram).
type Transport interface {
	io.ReadWriter
	io.Closer

	// Flush pushes any buffered bytes to the wire. Stream transports that
	// write unbuffered treat this as a no-op.
	Flush() error

	// SetReadTimeout bounds every subsequent Read call: each Read gets a
	// fresh d-long budget. A zero duration disables the timeout.
	SetReadTimeout(d time.Duration) error
	// SetWriteTimeout bounds every subsequent Write call: each Write gets
	// a fresh d-long budget. A zero duration disables the timeout.
	SetWriteTimeout(d time.Duration) error

	// IsConnected reports whether the underlying socket is still believed
	// open.
	IsConnected() bool
}

// Dial opens the transport variant selected by e.Network, performing
// whatever handshake that variant requires (TCP connect, TLS handshake,
// Unix dial) before returning. tlsCfg is only consulted for NetworkTLS
// endpoints and may be nil, in which case a Config is built from the
// endpoint's own verify_mode/ca_path/cert_path/key_path parameters.
func Dial(e *endpoint.Endpoint, tlsCfg mtls.Config) (Transport, error) {
	switch e.Network {
	case endpoint.NetworkTCP:
		return dialTCP(e)
	case endpoint.NetworkTLS:
		return dialTLS(e, tlsCfg)
	case endpoint.NetworkUDP:
		return dialUDP(e)
	case endpoint.NetworkUnix:
		return dialUnix(e)
	default:
		return nil, merrors.Client("unsupported transport network")
	}
}
