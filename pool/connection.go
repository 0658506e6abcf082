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

package pool

import (
	"time"

	"github.com/nabbar/memcache/atomic"
	"github.com/nabbar/memcache/protocol"
	"github.com/nabbar/memcache/transport"
)

// Connection is one live transport plus one ProtocolSession bound to it.
// It is mutated only while Leased by exactly one caller; the pool never
// hands the same Connection to two callers at once.
type Connection struct {
	transport transport.Transport
	session   protocol.Session
	state     atomic.Value[State]
}

func newConnection(t transport.Transport, s protocol.Session) *Connection {
	return &Connection{transport: t, session: s}
}

// Session returns the protocol session this Connection carries. Callers use
// it to issue commands for the duration of the lease.
func (c *Connection) Session() protocol.Session {
	return c.session
}

// State reports this Connection's current lifecycle position.
func (c *Connection) State() State {
	return c.state.Load()
}

// Broken reports whether either the pool marked this Connection Broken, or
// its Session detected a framing invariant violation on its own. Once true
// the Connection must never be leased again.
func (c *Connection) Broken() bool {
	return c.state.Load() == StateBroken || c.session.Broken()
}

func (c *Connection) close() error {
	c.state.Store(StateBroken)
	return c.transport.Close()
}

// SetReadTimeout sets this Connection's transport read timeout. A no-op on
// non-stream transports (UDP).
func (c *Connection) SetReadTimeout(d time.Duration) error {
	return c.transport.SetReadTimeout(d)
}

// SetWriteTimeout sets this Connection's transport write timeout. A no-op
// on non-stream transports (UDP).
func (c *Connection) SetWriteTimeout(d time.Duration) error {
	return c.transport.SetWriteTimeout(d)
}
