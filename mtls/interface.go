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

// Package mtls builds a *tls.Config for the memcache TLS transport from the
// verify_mode/ca_path/cert_path/key_path endpoint query parameters: a small
// builder interface producing a tls.Config per server name, with no
// cipher/curve allow-lists and no client-auth policy registry.
package mtls

import "crypto/tls"

// VerifyMode selects how the client validates the server's certificate.
type VerifyMode uint8

const (
	// VerifyPeer validates the server certificate against RootCAs (or the
	// system pool when RootCAs is empty). This is the default.
	VerifyPeer VerifyMode = iota
	// VerifyNone disables certificate validation. Only ever used when the
	// endpoint URL explicitly asks for it (verify_mode=none).
	VerifyNone
)

// Config is the builder interface for a TLS transport's certificate
// material. A zero Config is valid and produces a TLS config that verifies
// the server against the system root pool.
type Config interface {
	// WithRootCA adds a PEM-encoded CA certificate used to validate the
	// server's certificate chain.
	WithRootCA(pemBytes []byte) error
	// WithCertificate adds a client certificate pair presented during the
	// handshake (mutual TLS).
	WithCertificate(certPEM, keyPEM []byte) error
	// WithVerifyMode sets whether the server certificate is validated.
	WithVerifyMode(mode VerifyMode)

	// TLS builds the *tls.Config to use for a connection to the given
	// server name (used for both ServerName and SNI).
	TLS(serverName string) *tls.Config

	// Clone returns an independent copy of this Config.
	Clone() Config
}

// Default returns a Config that verifies the server certificate against the
// system root pool and presents no client certificate.
func Default() Config {
	return &config{verify: VerifyPeer}
}
