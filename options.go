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

package memcache

import (
	"github.com/nabbar/memcache/metrics"
	"github.com/nabbar/memcache/mlog"
	"github.com/nabbar/memcache/mtls"
	"github.com/nabbar/memcache/router"
)

// Option configures a Client at Connect time.
type Option func(*clientConfig)

type clientConfig struct {
	poolSize int
	log      mlog.Logger
	metrics  *metrics.Pool
	tlsCfg   mtls.Config
	hash     router.HashFunc
}

// WithPoolSize sets the maximum number of live connections maintained per
// server. The default is 1.
func WithPoolSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithLogger attaches a Logger shared by every server's connection pool.
func WithLogger(l mlog.Logger) Option {
	return func(c *clientConfig) {
		c.log = l
	}
}

// WithMetrics attaches a metrics.Pool shared by every server's connection
// pool, so Prometheus scrapes see the whole cluster's occupancy in one set
// of label-partitioned series.
func WithMetrics(m *metrics.Pool) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// WithTLSConfig attaches a pre-built mtls.Config shared by every TLS
// endpoint, bypassing each endpoint URL's own verify_mode/ca_path/
// cert_path/key_path query parameters.
func WithTLSConfig(cfg mtls.Config) Option {
	return func(c *clientConfig) {
		c.tlsCfg = cfg
	}
}

// WithHashFunction sets the initial sharding hash. It can also be changed
// after Connect by assigning Client.HashFunction directly.
func WithHashFunction(h router.HashFunc) Option {
	return func(c *clientConfig) {
		c.hash = h
	}
}
