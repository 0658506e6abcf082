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

// Package binary implements the binary memcached protocol: a 24-byte
// request/response header followed by extras, key and value, with
// opaque-correlated pipelining for multi-key get.
package binary

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/protocol"
)

// Session is a protocol.Session bound to one binary-protocol transport.
type Session struct {
	rw       io.ReadWriter
	opaque   uint32
	broken   bool
	datagram bool
}

var _ protocol.Session = (*Session)(nil)

// New wraps a live byte-stream transport (already connected) in the
// binary protocol engine.
func New(rw io.ReadWriter) *Session {
	return &Session{rw: rw}
}

// NewDatagram wraps a live datagram transport in the binary protocol
// engine. Gets refuses to run: multi-key gets cannot correlate replies
// across packet loss.
func NewDatagram(rw io.ReadWriter) *Session {
	return &Session{rw: rw, datagram: true}
}

// Broken reports whether a framing invariant (bad magic, short read) was
// violated on this session.
func (s *Session) Broken() bool {
	return s.broken
}

func (s *Session) nextOpaque() uint32 {
	return atomic.AddUint32(&s.opaque, 1)
}

// roundTrip sends one request and reads its matching response, verifying
// the response magic byte and the echoed opaque.
func (s *Session) roundTrip(op opcode, key string, extras, value []byte, cas uint64) (header, []byte, error) {
	opq := s.nextOpaque()

	if err := writeRequest(s.rw, op, opq, cas, extras, []byte(key), value); err != nil {
		s.broken = true
		return header{}, nil, err
	}

	h, body, err := readResponse(s.rw)
	if err != nil {
		s.broken = true
		return header{}, nil, err
	}
	if h.opaque != opq {
		s.broken = true
		return header{}, nil, merrors.Server("opaque mismatch in binary response")
	}

	return h, body, nil
}

func statusError(cmd merrors.Command) error {
	if cmd == merrors.CommandNone {
		return nil
	}
	return merrors.CommandStatus(cmd)
}

func (s *Session) Get(key string) (*protocol.Item, bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return nil, false, err
	}

	h, body, err := s.roundTrip(opGet, key, nil, nil, 0)
	if err != nil {
		return nil, false, err
	}

	cmd := h.status()
	if cmd == merrors.CommandKeyNotFound {
		return nil, false, nil
	}
	if err := statusError(cmd); err != nil {
		return nil, false, err
	}

	if len(body) < h.extrasAndKeyLen() {
		s.broken = true
		return nil, false, merrors.Server("short extras in get response")
	}

	var flags uint32
	if h.extrasLen >= 4 {
		flags = binary.BigEndian.Uint32(body[:4])
	}
	value := body[h.extrasAndKeyLen():]

	return &protocol.Item{Key: key, Value: append([]byte(nil), value...), Flags: flags, Cas: h.cas}, true, nil
}

// Gets pipelines one GetKQ per key followed by a terminating NoOp, and
// correlates replies by opaque, mirroring the quiet-command/NOOP batching
// pattern memcached's binary protocol is built around.
func (s *Session) Gets(keys []string) (map[string]*protocol.Item, error) {
	if s.datagram {
		return nil, merrors.Client("gets is not supported over a datagram transport")
	}
	for _, k := range keys {
		if err := protocol.CheckKey(k); err != nil {
			return nil, err
		}
	}

	opaqueToKey := make(map[uint32]string, len(keys))
	for _, key := range keys {
		opq := s.nextOpaque()
		if err := writeRequest(s.rw, opGetKQ, opq, 0, nil, []byte(key), nil); err != nil {
			s.broken = true
			return nil, err
		}
		opaqueToKey[opq] = key
	}

	noopOpaque := s.nextOpaque()
	if err := writeRequest(s.rw, opNoOp, noopOpaque, 0, nil, nil, nil); err != nil {
		s.broken = true
		return nil, err
	}

	result := make(map[string]*protocol.Item, len(keys))
	for {
		h, body, err := readResponse(s.rw)
		if err != nil {
			s.broken = true
			return nil, err
		}

		if h.opcode == opNoOp && h.opaque == noopOpaque {
			return result, nil
		}

		key, ok := opaqueToKey[h.opaque]
		if !ok {
			continue
		}
		if h.status() != merrors.CommandNone {
			continue
		}
		if len(body) < h.extrasAndKeyLen() {
			s.broken = true
			return nil, merrors.Server("short body in get response")
		}

		var flags uint32
		if h.extrasLen >= 4 {
			flags = binary.BigEndian.Uint32(body[:4])
		}
		// The GetKQ response body is extras, then the echoed key, then the
		// value.
		value := body[h.extrasAndKeyLen():]
		result[key] = &protocol.Item{Key: key, Value: append([]byte(nil), value...), Flags: flags, Cas: h.cas}
	}
}

func storeExtras(flags, exptime uint32) []byte {
	extras := make([]byte, 8)
	binary.BigEndian.PutUint32(extras[0:4], flags)
	binary.BigEndian.PutUint32(extras[4:8], exptime)
	return extras
}

func (s *Session) store(op opcode, key string, value []byte, flags, exptime uint32, cas uint64) error {
	if err := protocol.CheckKey(key); err != nil {
		return err
	}

	h, _, err := s.roundTrip(op, key, storeExtras(flags, exptime), value, cas)
	if err != nil {
		return err
	}
	return statusError(h.status())
}

func (s *Session) Set(key string, value []byte, flags, exptime uint32) error {
	return s.store(opSet, key, value, flags, exptime, 0)
}

func (s *Session) Add(key string, value []byte, flags, exptime uint32) error {
	return s.store(opAdd, key, value, flags, exptime, 0)
}

func (s *Session) Replace(key string, value []byte, flags, exptime uint32) error {
	return s.store(opReplace, key, value, flags, exptime, 0)
}

func (s *Session) Append(key string, value []byte) error {
	if err := protocol.CheckKey(key); err != nil {
		return err
	}
	h, _, err := s.roundTrip(opAppend, key, nil, value, 0)
	if err != nil {
		return err
	}
	return statusError(h.status())
}

func (s *Session) Prepend(key string, value []byte) error {
	if err := protocol.CheckKey(key); err != nil {
		return err
	}
	h, _, err := s.roundTrip(opPrepend, key, nil, value, 0)
	if err != nil {
		return err
	}
	return statusError(h.status())
}

// Cas never surfaces KeyExists or KeyNotFound as an error: the store
// command's soft-fail contract collapses both into a false return.
func (s *Session) Cas(key string, value []byte, flags, exptime uint32, cas uint64) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}

	h, _, err := s.roundTrip(opSet, key, storeExtras(flags, exptime), value, cas)
	if err != nil {
		return false, err
	}

	cmd := h.status()
	if cmd == merrors.CommandKeyExists || cmd == merrors.CommandKeyNotFound {
		return false, nil
	}
	if err := statusError(cmd); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) Delete(key string) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}

	h, _, err := s.roundTrip(opDelete, key, nil, nil, 0)
	if err != nil {
		return false, err
	}

	switch h.status() {
	case merrors.CommandNone:
		return true, nil
	case merrors.CommandKeyNotFound:
		return false, nil
	default:
		return false, statusError(h.status())
	}
}

func (s *Session) delta(op opcode, key string, amount uint64) (uint64, error) {
	if err := protocol.CheckKey(key); err != nil {
		return 0, err
	}

	extras := make([]byte, 20)
	binary.BigEndian.PutUint64(extras[0:8], amount)
	binary.BigEndian.PutUint64(extras[8:16], 0)
	binary.BigEndian.PutUint32(extras[16:20], 0xFFFFFFFF)

	h, body, err := s.roundTrip(op, key, extras, nil, 0)
	if err != nil {
		return 0, err
	}
	if err := statusError(h.status()); err != nil {
		return 0, err
	}
	if len(body) < 8 {
		s.broken = true
		return 0, merrors.Server("short counter value in delta response")
	}
	return binary.BigEndian.Uint64(body[len(body)-8:]), nil
}

func (s *Session) Increment(key string, delta uint64) (uint64, error) {
	return s.delta(opIncrement, key, delta)
}

func (s *Session) Decrement(key string, delta uint64) (uint64, error) {
	return s.delta(opDecrement, key, delta)
}

func (s *Session) Touch(key string, exptime uint32) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}

	extras := make([]byte, 4)
	binary.BigEndian.PutUint32(extras, exptime)

	h, _, err := s.roundTrip(opTouch, key, extras, nil, 0)
	if err != nil {
		return false, err
	}

	switch h.status() {
	case merrors.CommandNone:
		return true, nil
	case merrors.CommandKeyNotFound:
		return false, nil
	default:
		return false, statusError(h.status())
	}
}

func (s *Session) flush(exptime *uint32) error {
	var extras []byte
	if exptime != nil {
		extras = make([]byte, 4)
		binary.BigEndian.PutUint32(extras, *exptime)
	}
	h, _, err := s.roundTrip(opFlush, "", extras, nil, 0)
	if err != nil {
		return err
	}
	return statusError(h.status())
}

func (s *Session) Flush() error {
	return s.flush(nil)
}

func (s *Session) FlushWithDelay(delaySeconds uint32) error {
	return s.flush(&delaySeconds)
}

func (s *Session) Version() (string, error) {
	h, body, err := s.roundTrip(opVersion, "", nil, nil, 0)
	if err != nil {
		return "", err
	}
	if err := statusError(h.status()); err != nil {
		return "", err
	}
	return string(body), nil
}

// Stats pipelines a single Stat request with an empty key, then drains
// key/value pairs until the server's empty-key terminator response.
func (s *Session) Stats() (map[string]string, error) {
	opq := s.nextOpaque()
	if err := writeRequest(s.rw, opStat, opq, 0, nil, nil, nil); err != nil {
		s.broken = true
		return nil, err
	}

	result := make(map[string]string)
	for {
		h, body, err := readResponse(s.rw)
		if err != nil {
			s.broken = true
			return nil, err
		}
		if err := statusError(h.status()); err != nil {
			return nil, err
		}
		if h.keyLen == 0 {
			return result, nil
		}
		if len(body) < int(h.keyLen) {
			s.broken = true
			return nil, merrors.Server("short body in stat response")
		}
		key := string(body[:h.keyLen])
		value := string(body[h.keyLen:])
		result[key] = value
	}
}

// Auth performs SASL PLAIN authentication: mechanism "PLAIN" as the key,
// "\0user\0pass" as the value.
func (s *Session) Auth(username, password string) error {
	value := []byte("\x00" + username + "\x00" + password)
	h, _, err := s.roundTrip(opSASLAuth, "PLAIN", nil, value, 0)
	if err != nil {
		return err
	}
	return statusError(h.status())
}
