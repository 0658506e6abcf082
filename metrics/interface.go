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

// Package metrics exposes a small set of Prometheus collectors describing
// pool occupancy and command volume, built on
// github.com/prometheus/client_golang's GaugeVec/CounterVec collectors with
// one label set per server endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pool is the metrics surface a connection pool reports through. A nil
// *Pool is valid and every method on it is a no-op, so metrics stay
// entirely opt-in.
type Pool struct {
	idle      *prometheus.GaugeVec
	leased    *prometheus.GaugeVec
	broken    *prometheus.CounterVec
	commands  *prometheus.CounterVec
	dialFails *prometheus.CounterVec
}

// NewPool builds and registers the pool collectors on reg. Passing a nil
// registerer (prometheus.NewRegistry() if the caller wants isolation, or
// prometheus.DefaultRegisterer for process-wide metrics) is the caller's
// choice; NewPool itself never touches the global registry.
func NewPool(reg prometheus.Registerer, namespace string) *Pool {
	p := &Pool{
		idle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "idle_connections",
			Help:      "Number of idle connections currently held per server endpoint.",
		}, []string{"endpoint"}),
		leased: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "leased_connections",
			Help:      "Number of connections currently leased out per server endpoint.",
		}, []string{"endpoint"}),
		broken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "broken_connections_total",
			Help:      "Connections discarded because a framing invariant was violated.",
		}, []string{"endpoint"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "commands_total",
			Help:      "Protocol commands issued per server endpoint, operation and outcome.",
		}, []string{"endpoint", "op", "outcome"}),
		dialFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "dial_failures_total",
			Help:      "Failed attempts to create a new pooled connection.",
		}, []string{"endpoint"}),
	}

	if reg != nil {
		reg.MustRegister(p.idle, p.leased, p.broken, p.commands, p.dialFails)
	}

	return p
}

func (p *Pool) LeaseGranted(endpoint string) {
	if p == nil {
		return
	}
	p.leased.WithLabelValues(endpoint).Inc()
}

func (p *Pool) LeaseReturned(endpoint string, broken bool) {
	if p == nil {
		return
	}
	p.leased.WithLabelValues(endpoint).Dec()
	if broken {
		p.broken.WithLabelValues(endpoint).Inc()
	} else {
		p.idle.WithLabelValues(endpoint).Inc()
	}
}

func (p *Pool) IdleConsumed(endpoint string) {
	if p == nil {
		return
	}
	p.idle.WithLabelValues(endpoint).Dec()
}

func (p *Pool) DialFailed(endpoint string) {
	if p == nil {
		return
	}
	p.dialFails.WithLabelValues(endpoint).Inc()
}

// CommandIssued counts one completed command, labeled "ok" or "error" by
// its outcome so failure rates are visible per operation.
func (p *Pool) CommandIssued(endpoint, op string, err error) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.commands.WithLabelValues(endpoint, op, outcome).Inc()
}
