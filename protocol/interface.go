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

// Package protocol declares the operation set a ProtocolSession exposes over
// a live transport, and the handful of types both the ascii and binary
// framing engines share. It is the contract pool and the Client facade code
// against; protocol/ascii and protocol/binary are its two implementations.
package protocol

import "github.com/nabbar/memcache/merrors"

// MaxKeyLength is the longest key a server will accept. Every operation
// checks this before writing a single byte to the wire.
const MaxKeyLength = 250

// Item is one stored value as it travels the wire: an opaque byte payload,
// its flags word, and (for gets) the cas token assigned by the server.
type Item struct {
	Key   string
	Value []byte
	Flags uint32
	Cas   uint64
}

// Session is the operation set both framing engines implement, mirroring
// the wire-level commands a memcached server understands. All operations
// are synchronous: a Session call does not return until either its reply
// has been fully consumed or the Connection has been marked broken.
type Session interface {
	Get(key string) (*Item, bool, error)
	Gets(keys []string) (map[string]*Item, error)

	Set(key string, value []byte, flags, exptime uint32) error
	Add(key string, value []byte, flags, exptime uint32) error
	Replace(key string, value []byte, flags, exptime uint32) error
	Append(key string, value []byte) error
	Prepend(key string, value []byte) error
	Cas(key string, value []byte, flags, exptime uint32, cas uint64) (bool, error)

	Delete(key string) (bool, error)
	Increment(key string, delta uint64) (uint64, error)
	Decrement(key string, delta uint64) (uint64, error)
	Touch(key string, exptime uint32) (bool, error)

	Flush() error
	FlushWithDelay(delaySeconds uint32) error
	Version() (string, error)
	Stats() (map[string]string, error)
	Auth(username, password string) error

	// Broken reports whether a framing invariant was violated on this
	// session (short read, malformed header, bad magic). Once true the
	// pool must never lease this session's Connection again.
	Broken() bool
}

// CheckKey enforces the 250-byte key ceiling and the no-whitespace,
// no-control-character rule before any I/O is attempted; an invalid key
// never reaches the wire.
func CheckKey(key string) error {
	if len(key) == 0 {
		return merrors.Client("key must not be empty")
	}
	if len(key) > MaxKeyLength {
		return merrors.Client("key is too long")
	}
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7F {
			return merrors.Client("key contains whitespace or control characters")
		}
	}
	return nil
}
