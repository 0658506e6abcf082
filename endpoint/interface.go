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

// Package endpoint parses the memcache:// URL grammar into an Endpoint
// value the transport and protocol packages can act on directly: scheme
// dispatch, a handful of recognized query parameters, and
// userinfo-triggered auth. Unrecognized query parameters are ignored.
package endpoint

import (
	"net/url"
	"strconv"
	"time"

	"github.com/nabbar/memcache/merrors"
)

// Network identifies the wire transport an Endpoint selects.
type Network uint8

const (
	NetworkTCP Network = iota
	NetworkTLS
	NetworkUDP
	NetworkUnix
)

// Protocol identifies the framing engine an Endpoint selects.
type Protocol uint8

const (
	// ProtocolBinary is the default: more compact framing, SASL auth.
	ProtocolBinary Protocol = iota
	ProtocolAscii
)

// Endpoint is the parsed, validated form of one memcache:// URL: one
// server, owning exactly one connection pool.
type Endpoint struct {
	Raw string

	Network Network
	Host    string // set for TCP/TLS/UDP
	Port    string
	Path    string // set for Unix

	Protocol   Protocol
	TCPNoDelay bool
	Timeout    time.Duration

	VerifyMode string // "none" | "peer", consumed by mtls.ParseVerifyMode
	CAPath     string
	CertPath   string
	KeyPath    string

	Username string
	Password string
	HasAuth  bool
}

// Parse parses one endpoint URL:
//
//	memcache://host:port                  -> TCP
//	memcache://host:port?udp=true         -> UDP
//	memcache+udp://host:port              -> UDP
//	memcache:///path/to/sock              -> Unix (empty host)
//	memcache+tls://host:port              -> TLS over TCP
func Parse(raw string) (*Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, merrors.Client("invalid endpoint URL", err)
	}

	switch u.Scheme {
	case "memcache", "memcache+udp", "memcache+tls":
	default:
		return nil, merrors.Client("unrecognized endpoint scheme: " + u.Scheme)
	}

	q := u.Query()

	e := &Endpoint{
		Raw:        raw,
		TCPNoDelay: true,
		Protocol:   ProtocolBinary,
	}

	if v := q.Get("protocol"); v == "ascii" {
		e.Protocol = ProtocolAscii
	}

	if v := q.Get("tcp_nodelay"); v == "false" {
		e.TCPNoDelay = false
	}

	if v := q.Get("timeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, merrors.Client("invalid timeout query parameter", err)
		}
		e.Timeout = time.Duration(secs) * time.Second
	}

	e.VerifyMode = q.Get("verify_mode")
	e.CAPath = q.Get("ca_path")
	e.CertPath = q.Get("cert_path")
	e.KeyPath = q.Get("key_path")

	if u.User != nil {
		e.HasAuth = true
		e.Username = u.User.Username()
		e.Password, _ = u.User.Password()
	}

	isUDP := u.Scheme == "memcache+udp" || q.Get("udp") == "true"

	switch {
	case u.Scheme == "memcache+tls":
		e.Network = NetworkTLS
		e.Host, e.Port = splitHostPort(u)
	case isUDP:
		e.Network = NetworkUDP
		e.Host, e.Port = splitHostPort(u)
	case u.Host == "" && u.Path != "":
		e.Network = NetworkUnix
		e.Path = u.Path
	default:
		e.Network = NetworkTCP
		e.Host, e.Port = splitHostPort(u)
	}

	if e.Network != NetworkUnix && e.Port == "" {
		return nil, merrors.Client("endpoint URL is missing a port: " + raw)
	}

	return e, nil
}

func splitHostPort(u *url.URL) (host, port string) {
	host = u.Hostname()
	port = u.Port()
	return
}

// Address returns the dial address for TCP/TLS/UDP endpoints ("host:port"),
// or the socket path for Unix endpoints.
func (e *Endpoint) Address() string {
	if e.Network == NetworkUnix {
		return e.Path
	}
	return e.Host + ":" + e.Port
}
