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

// Package memcache is a sharded memcached client: one Client fans out
// across any number of servers, picking a destination per key with a
// pluggable hash and keeping a bounded pool of live connections to each.
package memcache

import (
	"context"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/metrics"
	"github.com/nabbar/memcache/mlog"
	"github.com/nabbar/memcache/pool"
	"github.com/nabbar/memcache/protocol"
	"github.com/nabbar/memcache/router"
)

// Client fans out Get/Set/Delete and friends across a sharded set of
// servers. The zero value is not usable; build one with Connect.
type Client struct {
	router *router.Router[pool.Pool]

	// HashFunction picks which server a key is routed to. It may be
	// reassigned at any time, taking effect on the next call: the Router's
	// hash is a closure reading this field live. Changing it while
	// pipelining is in flight does not affect requests already dispatched.
	HashFunction router.HashFunc

	log     mlog.Logger
	metrics *metrics.Pool
}

// Entry is one key/value/flags triple for a batch Sets call.
type Entry struct {
	Key     string
	Value   []byte
	Flags   uint32
	Exptime uint32
}

// ServerVersion pairs a server's endpoint with the version string it
// reported.
type ServerVersion struct {
	Endpoint string
	Version  string
}

// ServerStats pairs a server's endpoint with the stats it reported.
type ServerStats struct {
	Endpoint string
	Stats    map[string]string
}

// Connect builds a Client from one or more server URLs (pass a URL or
// URLs). Each URL becomes exactly one connection pool.
func Connect(target Connectable, opts ...Option) (*Client, error) {
	if target == nil {
		return nil, merrors.Client("memcache: Connect requires at least one server URL")
	}

	raws := target.urls()
	if len(raws) == 0 {
		return nil, merrors.Client("memcache: Connect requires at least one server URL")
	}

	cfg := &clientConfig{poolSize: 1}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.log == nil {
		cfg.log = mlog.Discard
	}

	pools := make([]pool.Pool, 0, len(raws))
	for _, raw := range raws {
		ep, err := endpoint.Parse(raw)
		if err != nil {
			return nil, err
		}

		popts := []pool.Option{pool.WithLogger(cfg.log)}
		if cfg.metrics != nil {
			popts = append(popts, pool.WithMetrics(cfg.metrics))
		}
		if cfg.tlsCfg != nil {
			popts = append(popts, pool.WithTLSConfig(cfg.tlsCfg))
		}

		pools = append(pools, pool.New(ep, cfg.poolSize, popts...))
	}

	hash := cfg.hash
	if hash == nil {
		hash = router.Default
	}

	c := &Client{HashFunction: hash, log: cfg.log, metrics: cfg.metrics}
	c.router = router.New(pools, func(key string) uint64 { return c.HashFunction(key) })

	cfg.log.Debugf("memcache: connected to %d server(s)", len(pools))
	return c, nil
}

// lease leases a connection from pool p, runs fn against its Session, and
// always returns the connection whether fn errors or not. Every operation
// below except SetReadTimeout and SetWriteTimeout shares this one checkout
// path; those two lease from each pool directly.
func (c *Client) lease(ctx context.Context, p pool.Pool, op string, fn func(s protocol.Session) error) error {
	conn, err := p.Lease(ctx)
	if err != nil {
		c.log.Warnf("memcache: lease from %s failed: %v", p.Endpoint(), err)
		return err
	}
	err = fn(conn.Session())
	c.metrics.CommandIssued(p.Endpoint(), op, err)
	p.Return(conn, false)
	return err
}

// Close closes every server's connection pool. Outstanding leased
// connections are closed as they are returned.
func (c *Client) Close() error {
	var firstErr error
	for _, p := range c.router.Pools() {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// --- single-key operations ---

// Get fetches one key. found is false, with a nil error, if the key is not
// present.
func (c *Client) Get(ctx context.Context, key string) (item *protocol.Item, found bool, err error) {
	err = c.lease(ctx, c.router.Pick(key), "get", func(s protocol.Session) error {
		var e error
		item, found, e = s.Get(key)
		return e
	})
	return
}

// Set stores value under key unconditionally.
func (c *Client) Set(ctx context.Context, key string, value []byte, flags, exptime uint32) error {
	return c.lease(ctx, c.router.Pick(key), "set", func(s protocol.Session) error {
		return s.Set(key, value, flags, exptime)
	})
}

// Add stores value under key only if key does not already exist.
func (c *Client) Add(ctx context.Context, key string, value []byte, flags, exptime uint32) error {
	return c.lease(ctx, c.router.Pick(key), "add", func(s protocol.Session) error {
		return s.Add(key, value, flags, exptime)
	})
}

// Replace stores value under key only if key already exists.
func (c *Client) Replace(ctx context.Context, key string, value []byte, flags, exptime uint32) error {
	return c.lease(ctx, c.router.Pick(key), "replace", func(s protocol.Session) error {
		return s.Replace(key, value, flags, exptime)
	})
}

// Append adds data to the end of an existing key's value.
func (c *Client) Append(ctx context.Context, key string, value []byte) error {
	return c.lease(ctx, c.router.Pick(key), "append", func(s protocol.Session) error {
		return s.Append(key, value)
	})
}

// Prepend adds data to the start of an existing key's value.
func (c *Client) Prepend(ctx context.Context, key string, value []byte) error {
	return c.lease(ctx, c.router.Pick(key), "prepend", func(s protocol.Session) error {
		return s.Prepend(key, value)
	})
}

// Cas stores value under key only if its cas token still matches the one
// given, reporting whether the store happened.
func (c *Client) Cas(ctx context.Context, key string, value []byte, flags, exptime uint32, cas uint64) (stored bool, err error) {
	err = c.lease(ctx, c.router.Pick(key), "cas", func(s protocol.Session) error {
		var e error
		stored, e = s.Cas(key, value, flags, exptime, cas)
		return e
	})
	return
}

// Delete removes key, reporting whether it was present.
func (c *Client) Delete(ctx context.Context, key string) (existed bool, err error) {
	err = c.lease(ctx, c.router.Pick(key), "delete", func(s protocol.Session) error {
		var e error
		existed, e = s.Delete(key)
		return e
	})
	return
}

// Increment adds delta to key's numeric value, reporting the new value.
func (c *Client) Increment(ctx context.Context, key string, delta uint64) (newValue uint64, err error) {
	err = c.lease(ctx, c.router.Pick(key), "increment", func(s protocol.Session) error {
		var e error
		newValue, e = s.Increment(key, delta)
		return e
	})
	return
}

// Decrement subtracts delta from key's numeric value, reporting the new
// value.
func (c *Client) Decrement(ctx context.Context, key string, delta uint64) (newValue uint64, err error) {
	err = c.lease(ctx, c.router.Pick(key), "decrement", func(s protocol.Session) error {
		var e error
		newValue, e = s.Decrement(key, delta)
		return e
	})
	return
}

// Touch updates key's expiration without altering its value, reporting
// whether it was present.
func (c *Client) Touch(ctx context.Context, key string, exptime uint32) (existed bool, err error) {
	err = c.lease(ctx, c.router.Pick(key), "touch", func(s protocol.Session) error {
		var e error
		existed, e = s.Touch(key, exptime)
		return e
	})
	return
}

// --- batch operations ---

// Gets fetches several keys, fanning out one pipelined request per
// destination server and merging the results. A multi-key batch issues
// exactly one request per server it touches; a key absent from the result
// map was a cache miss, not an error.
func (c *Client) Gets(ctx context.Context, keys []string) (map[string]*protocol.Item, error) {
	result := make(map[string]*protocol.Item, len(keys))
	pools := c.router.Pools()

	for idx, group := range c.router.Group(keys) {
		p := pools[idx]
		err := c.lease(ctx, p, "gets", func(s protocol.Session) error {
			items, e := s.Gets(group)
			if e != nil {
				return e
			}
			for k, v := range items {
				result[k] = v
			}
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// Sets stores every entry, partitioned by destination server. On the first
// per-server failure, Sets stops and returns that error; entries already
// written to other servers are not rolled back. Atomicity is per key only,
// never a cross-key or cross-server transaction.
func (c *Client) Sets(ctx context.Context, entries []Entry) error {
	byIndex := make(map[int][]Entry, len(entries))
	for _, e := range entries {
		idx := c.router.Index(e.Key)
		byIndex[idx] = append(byIndex[idx], e)
	}

	pools := c.router.Pools()
	for idx, group := range byIndex {
		p := pools[idx]
		err := c.lease(ctx, p, "set", func(s protocol.Session) error {
			for _, e := range group {
				if err := s.Set(e.Key, e.Value, e.Flags, e.Exptime); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Deletes removes several keys, partitioned by destination server, and
// reports which were present. Stops at the first per-server error.
func (c *Client) Deletes(ctx context.Context, keys []string) (map[string]bool, error) {
	result := make(map[string]bool, len(keys))
	pools := c.router.Pools()

	for idx, group := range c.router.Group(keys) {
		p := pools[idx]
		err := c.lease(ctx, p, "delete", func(s protocol.Session) error {
			for _, k := range group {
				existed, e := s.Delete(k)
				if e != nil {
					return e
				}
				result[k] = existed
			}
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// --- cluster-wide operations ---

// Version reports every server's version string. A server that fails to
// respond aborts the whole call with its error.
func (c *Client) Version(ctx context.Context) ([]ServerVersion, error) {
	out := make([]ServerVersion, 0, c.router.Len())
	for _, p := range c.router.Pools() {
		var v string
		err := c.lease(ctx, p, "version", func(s protocol.Session) error {
			var e error
			v, e = s.Version()
			return e
		})
		if err != nil {
			return out, err
		}
		out = append(out, ServerVersion{Endpoint: p.Endpoint(), Version: v})
	}
	return out, nil
}

// Stats reports every server's stats map.
func (c *Client) Stats(ctx context.Context) ([]ServerStats, error) {
	out := make([]ServerStats, 0, c.router.Len())
	for _, p := range c.router.Pools() {
		var st map[string]string
		err := c.lease(ctx, p, "stats", func(s protocol.Session) error {
			var e error
			st, e = s.Stats()
			return e
		})
		if err != nil {
			return out, err
		}
		out = append(out, ServerStats{Endpoint: p.Endpoint(), Stats: st})
	}
	return out, nil
}

// Flush clears every server immediately. The first server to fail aborts
// the call; servers already flushed stay flushed.
func (c *Client) Flush(ctx context.Context) error {
	for _, p := range c.router.Pools() {
		if err := c.lease(ctx, p, "flush", func(s protocol.Session) error { return s.Flush() }); err != nil {
			return err
		}
	}
	return nil
}

// FlushWithDelay schedules a flush on every server after delaySeconds.
func (c *Client) FlushWithDelay(ctx context.Context, delaySeconds uint32) error {
	for _, p := range c.router.Pools() {
		err := c.lease(ctx, p, "flush_with_delay", func(s protocol.Session) error {
			return s.FlushWithDelay(delaySeconds)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SetReadTimeout applies d as the read timeout on one connection per
// server, leasing a connection from every pool in turn and setting the
// timeout on it. A no-op for non-stream connections.
func (c *Client) SetReadTimeout(ctx context.Context, d time.Duration) error {
	for _, p := range c.router.Pools() {
		conn, err := p.Lease(ctx)
		if err != nil {
			return err
		}
		err = conn.SetReadTimeout(d)
		p.Return(conn, err != nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetWriteTimeout applies d as the write timeout on one connection per
// server. A no-op for non-stream connections.
func (c *Client) SetWriteTimeout(ctx context.Context, d time.Duration) error {
	for _, p := range c.router.Pools() {
		conn, err := p.Lease(ctx)
		if err != nil {
			return err
		}
		err = conn.SetWriteTimeout(d)
		p.Return(conn, err != nil)
		if err != nil {
			return err
		}
	}
	return nil
}
