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

package mtls

import (
	"os"

	"github.com/nabbar/memcache/merrors"
)

// FromPaths builds a Config from the endpoint URL's verify_mode, ca_path,
// cert_path and key_path query parameters. Any of the three path
// parameters may be empty; an empty ca_path leaves the system root pool in
// place, an empty cert/key pair leaves the client unauthenticated.
func FromPaths(verify VerifyMode, caPath, certPath, keyPath string) (Config, error) {
	c := &config{verify: verify}

	if caPath != "" {
		b, err := os.ReadFile(caPath)
		if err != nil {
			return nil, merrors.TLS("reading ca_path", err)
		}
		if err = c.WithRootCA(b); err != nil {
			return nil, err
		}
	}

	if certPath != "" || keyPath != "" {
		if certPath == "" || keyPath == "" {
			return nil, merrors.TLS("cert_path and key_path must be given together")
		}

		certB, err := os.ReadFile(certPath)
		if err != nil {
			return nil, merrors.TLS("reading cert_path", err)
		}

		keyB, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, merrors.TLS("reading key_path", err)
		}

		if err = c.WithCertificate(certB, keyB); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ParseVerifyMode maps the endpoint URL's verify_mode query value ("none" or
// "peer") to a VerifyMode. Any value other than "none" is treated as "peer",
// matching the connect-time default.
func ParseVerifyMode(s string) VerifyMode {
	if s == "none" {
		return VerifyNone
	}
	return VerifyPeer
}
