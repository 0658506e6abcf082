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
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/metrics"
	"github.com/nabbar/memcache/mlog"
	"github.com/nabbar/memcache/mtls"
	"github.com/nabbar/memcache/protocol"
	"github.com/nabbar/memcache/protocol/ascii"
	"github.com/nabbar/memcache/protocol/binary"
	"github.com/nabbar/memcache/transport"
)

// pool is the default Pool implementation: a semaphore.Weighted admission
// gate bounds how many Connections may exist concurrently, and a buffered
// channel holds the subset of those that are currently idle and ready for
// reuse. Both are sized to maxSize, so a send to idle from Return never
// blocks: at most maxSize Connections are ever live, and only idle ones
// occupy the channel.
type pool struct {
	ep      *endpoint.Endpoint
	tlsCfg  mtls.Config
	maxSize int64

	sem   *semaphore.Weighted
	idle  chan *Connection
	freed chan struct{} // pulsed when a discarded Connection frees a slot

	log     mlog.Logger
	metrics *metrics.Pool

	mu     sync.Mutex
	closed bool
}

var _ Pool = (*pool)(nil)

// Option configures a Pool at construction time.
type Option func(*pool)

// WithLogger attaches a Logger for lifecycle events (lease, return, broken,
// close). The default is mlog.Discard.
func WithLogger(l mlog.Logger) Option {
	return func(p *pool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics attaches a metrics.Pool for occupancy/command reporting. A
// nil value (the default) disables metrics entirely.
func WithMetrics(m *metrics.Pool) Option {
	return func(p *pool) {
		p.metrics = m
	}
}

// WithTLSConfig attaches a pre-built mtls.Config, bypassing the endpoint's
// own verify_mode/ca_path/cert_path/key_path query parameters. Used when
// the caller wants to share one Config across every pool.
func WithTLSConfig(cfg mtls.Config) Option {
	return func(p *pool) {
		p.tlsCfg = cfg
	}
}

// New builds a Pool bound to one server endpoint, with at most maxSize
// Connections alive at once. Connections are created lazily on first Lease.
func New(ep *endpoint.Endpoint, maxSize int, opts ...Option) Pool {
	if maxSize <= 0 {
		maxSize = 1
	}

	p := &pool{
		ep:      ep,
		maxSize: int64(maxSize),
		sem:     semaphore.NewWeighted(int64(maxSize)),
		idle:    make(chan *Connection, maxSize),
		freed:   make(chan struct{}, 1),
		log:     mlog.Discard,
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

func (p *pool) Endpoint() string {
	return p.ep.Raw
}

// Lease returns an idle Connection if one exists; otherwise, if the pool
// has not yet reached maxSize live Connections, it dials and hands back a
// fresh one. If the pool is already at capacity with nothing idle, Lease
// blocks on the idle channel (FIFO across waiters) until ctx is done or a
// Connection is returned.
func (p *pool) Lease(ctx context.Context) (*Connection, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, errPoolClosed()
	}

	select {
	case c := <-p.idle:
		p.onLeaseGranted(c, true)
		return c, nil
	default:
	}

	if p.sem.TryAcquire(1) {
		return p.dialLeased()
	}

	// At capacity with nothing idle: wait for a Return, or for a discarded
	// Connection to free a slot so a fresh dial can replace it. A blocking
	// channel receive serves waiters in FIFO order.
	for {
		select {
		case c := <-p.idle:
			p.onLeaseGranted(c, true)
			return c, nil
		case <-p.freed:
			if p.sem.TryAcquire(1) {
				return p.dialLeased()
			}
		case <-ctx.Done():
			return nil, merrors.IO("lease timed out waiting for a connection", ctx.Err())
		}
	}
}

// dialLeased dials a fresh Connection for a caller already holding one
// semaphore slot, handing the slot back (and pulsing freed, so another
// waiter can retry) if the dial fails.
func (p *pool) dialLeased() (*Connection, error) {
	c, err := p.dial()
	if err != nil {
		p.sem.Release(1)
		p.signalFreed()
		p.metrics.DialFailed(p.Endpoint())
		p.log.Warnf("pool %s: dial failed: %v", p.Endpoint(), err)
		return nil, err
	}
	p.onLeaseGranted(c, false)
	return c, nil
}

func (p *pool) onLeaseGranted(c *Connection, fromIdle bool) {
	c.state.Store(StateLeased)
	if fromIdle {
		p.metrics.IdleConsumed(p.Endpoint())
	}
	p.metrics.LeaseGranted(p.Endpoint())
	p.log.Debugf("pool %s: leased a connection", p.Endpoint())
}

func (p *pool) signalFreed() {
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *pool) dial() (*Connection, error) {
	t, err := transport.Dial(p.ep, p.tlsCfg)
	if err != nil {
		return nil, err
	}

	s := newSession(p.ep, t)

	if p.ep.HasAuth {
		if err = s.Auth(p.ep.Username, p.ep.Password); err != nil {
			_ = t.Close()
			return nil, err
		}
	}

	return newConnection(t, s), nil
}

// newSession picks the ascii or binary framing engine per the endpoint's
// protocol query parameter, using the datagram-aware constructor for UDP
// endpoints so multi-key gets refuses at the session layer.
func newSession(ep *endpoint.Endpoint, t transport.Transport) protocol.Session {
	datagram := ep.Network == endpoint.NetworkUDP

	if ep.Protocol == endpoint.ProtocolAscii {
		if datagram {
			return ascii.NewDatagram(t)
		}
		return ascii.New(t)
	}

	if datagram {
		return binary.NewDatagram(t)
	}
	return binary.New(t)
}

// Return gives a Connection back to the pool. A broken Connection (either
// because the caller says so, or the Session itself detected a framing
// violation) is closed and its slot freed for a future fresh dial; a
// healthy Connection goes back on the idle channel.
func (p *pool) Return(c *Connection, broken bool) {
	if c == nil {
		return
	}

	broken = broken || c.Broken()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if broken || closed {
		_ = c.close()
		p.sem.Release(1)
		p.signalFreed()
		p.metrics.LeaseReturned(p.Endpoint(), true)
		p.log.Debugf("pool %s: connection discarded (broken=%v closed=%v)", p.Endpoint(), broken, closed)
		return
	}

	c.state.Store(StateIdle)
	p.idle <- c
	p.metrics.LeaseReturned(p.Endpoint(), false)
	p.log.Debugf("pool %s: connection returned to idle", p.Endpoint())
}

// Close drains every idle Connection and marks the pool closed. Leased
// Connections still outstanding are closed as they're returned.
func (p *pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for {
		select {
		case c := <-p.idle:
			if err := c.close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			p.log.Debugf("pool %s: closed", p.Endpoint())
			return firstErr
		}
	}
}
