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

// Package pool implements a bounded, per-server connection pool with a
// lease/return discipline: a hard cap on live connections and FIFO waiter
// service. A semaphore.Weighted admission gate bounds how many Connections
// may exist at once, and a buffered channel of idle Connections preserves
// FIFO service order for blocked waiters without a hand-rolled counting
// semaphore.
package pool

import (
	"context"

	"github.com/nabbar/memcache/merrors"
)

// State is a Connection's position in its lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateLeased
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateLeased:
		return "leased"
	case StateBroken:
		return "broken"
	default:
		return "idle"
	}
}

// Pool is a bounded per-server pool of live protocol sessions.
type Pool interface {
	// Lease returns an idle Connection, or creates a new one if the pool is
	// under its configured max size. It blocks (respecting ctx) if the pool
	// is at capacity and no Connection is idle.
	Lease(ctx context.Context) (*Connection, error)

	// Return gives a Connection back to the pool. If broken is true, or the
	// Connection's own Session reports itself broken, it is discarded
	// instead of being made available again.
	Return(c *Connection, broken bool)

	// Close drains and closes every Connection the pool currently holds.
	// Connections still leased out at Close time are closed when returned.
	Close() error

	// Endpoint returns the server address this pool is bound to, used for
	// logging and metrics labeling.
	Endpoint() string
}

// errPoolClosed builds the error Lease returns once Close has been called.
func errPoolClosed() error {
	return merrors.Client("connection pool is closed")
}
