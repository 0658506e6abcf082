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

// Package ascii implements the text memcached protocol: CRLF-terminated
// command lines, STORED/NOT_STORED/EXISTS/NOT_FOUND replies, and VALUE/END
// retrieval blocks.
package ascii

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nabbar/memcache/merrors"
	"github.com/nabbar/memcache/protocol"
)

type storeCommand string

const (
	cmdSet     storeCommand = "set"
	cmdAdd     storeCommand = "add"
	cmdReplace storeCommand = "replace"
	cmdAppend  storeCommand = "append"
	cmdPrepend storeCommand = "prepend"
	cmdCas     storeCommand = "cas"
)

// Session is a protocol.Session bound to one text-protocol transport.
type Session struct {
	rw       io.ReadWriter
	r        *bufio.Reader
	broken   bool
	datagram bool
}

var _ protocol.Session = (*Session)(nil)

// New wraps a live byte-stream transport (already connected) in the text
// protocol engine.
func New(rw io.ReadWriter) *Session {
	return &Session{rw: rw, r: bufio.NewReader(rw)}
}

// NewDatagram wraps a live datagram transport in the text protocol engine.
// Gets refuses to run: multi-key gets cannot correlate replies across
// packet loss.
func NewDatagram(rw io.ReadWriter) *Session {
	return &Session{rw: rw, r: bufio.NewReader(rw), datagram: true}
}

// Broken reports whether a framing invariant was violated on this session.
func (s *Session) Broken() bool {
	return s.broken
}

func (s *Session) writeLine(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.rw, format, args...); err != nil {
		s.broken = true
		return merrors.IO("failed to write command", err)
	}
	return nil
}

func (s *Session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		s.broken = true
		return "", merrors.IO("failed to read server reply", err)
	}
	return line, nil
}

// isMemcacheError reports whether a reply line is one of the three
// server-side error lines instead of a normal reply.
func isMemcacheError(line string) bool {
	return line == "ERROR\r\n" || strings.HasPrefix(line, "CLIENT_ERROR") || strings.HasPrefix(line, "SERVER_ERROR")
}

func (s *Session) errorFromLine(line string) error {
	trimmed := strings.TrimRight(line, "\r\n")
	switch {
	case line == "ERROR\r\n":
		return merrors.CommandStatus(merrors.CommandUnknownCommand)
	case strings.HasPrefix(trimmed, "CLIENT_ERROR"):
		return merrors.Client(strings.TrimSpace(strings.TrimPrefix(trimmed, "CLIENT_ERROR")))
	case strings.HasPrefix(trimmed, "SERVER_ERROR"):
		return merrors.Server(strings.TrimSpace(strings.TrimPrefix(trimmed, "SERVER_ERROR")))
	default:
		s.broken = true
		return merrors.Server("invalid server response: " + trimmed)
	}
}

type storeOptions struct {
	exptime uint32
	cas     uint64
	hasCas  bool
	noreply bool
}

func (s *Session) store(cmd storeCommand, key string, value []byte, flags uint32, opts storeOptions) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}
	if cmd == cmdCas && !opts.hasCas {
		return false, merrors.Client("cas command should have a casid")
	}

	header := fmt.Sprintf("%s %s %d %d %d", cmd, key, flags, opts.exptime, len(value))
	if cmd == cmdCas {
		header += fmt.Sprintf(" %d", opts.cas)
	}
	if opts.noreply {
		header += " noreply"
	}
	header += "\r\n"

	if _, err := io.WriteString(s.rw, header); err != nil {
		s.broken = true
		return false, merrors.IO("failed to write store header", err)
	}
	if _, err := s.rw.Write(value); err != nil {
		s.broken = true
		return false, merrors.IO("failed to write value", err)
	}
	if _, err := io.WriteString(s.rw, "\r\n"); err != nil {
		s.broken = true
		return false, merrors.IO("failed to write value terminator", err)
	}

	if opts.noreply {
		return true, nil
	}

	line, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch {
	case isMemcacheError(line):
		return false, s.errorFromLine(line)
	case line == "STORED\r\n":
		return true, nil
	case line == "NOT_STORED\r\n":
		return false, nil
	case line == "EXISTS\r\n":
		return false, merrors.CommandStatus(merrors.CommandKeyExists)
	case line == "NOT_FOUND\r\n":
		return false, merrors.CommandStatus(merrors.CommandKeyNotFound)
	default:
		s.broken = true
		return false, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}
}

func (s *Session) Set(key string, value []byte, flags, exptime uint32) error {
	_, err := s.store(cmdSet, key, value, flags, storeOptions{exptime: exptime})
	return err
}

func (s *Session) Add(key string, value []byte, flags, exptime uint32) error {
	_, err := s.store(cmdAdd, key, value, flags, storeOptions{exptime: exptime})
	return err
}

func (s *Session) Replace(key string, value []byte, flags, exptime uint32) error {
	_, err := s.store(cmdReplace, key, value, flags, storeOptions{exptime: exptime})
	return err
}

func (s *Session) Append(key string, value []byte) error {
	_, err := s.store(cmdAppend, key, value, 0, storeOptions{})
	return err
}

func (s *Session) Prepend(key string, value []byte) error {
	_, err := s.store(cmdPrepend, key, value, 0, storeOptions{})
	return err
}

// Cas never surfaces KeyExists or KeyNotFound as an error: per the store
// command's soft-fail contract, both collapse to a false return.
func (s *Session) Cas(key string, value []byte, flags, exptime uint32, cas uint64) (bool, error) {
	ok, err := s.store(cmdCas, key, value, flags, storeOptions{exptime: exptime, cas: cas, hasCas: true})
	if err != nil {
		if merrors.IsKeyExists(err) || merrors.IsKeyNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (s *Session) Get(key string) (*protocol.Item, bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return nil, false, err
	}
	if err := s.writeLine("get %s\r\n", key); err != nil {
		return nil, false, err
	}

	line, err := s.readLine()
	if err != nil {
		return nil, false, err
	}

	switch {
	case isMemcacheError(line):
		return nil, false, s.errorFromLine(line)
	case strings.HasPrefix(line, "END"):
		return nil, false, nil
	case !strings.HasPrefix(line, "VALUE"):
		s.broken = true
		return nil, false, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}

	fields := strings.Fields(strings.TrimRight(line, "\r\n"))
	if len(fields) != 4 || fields[1] != key {
		s.broken = true
		return nil, false, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}

	flags, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return nil, false, merrors.Parse("invalid flags field", err)
	}
	length, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, false, merrors.Parse("invalid length field", err)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		s.broken = true
		return nil, false, merrors.IO("short read on value payload", err)
	}

	if trailer, err := s.readLine(); err != nil {
		return nil, false, err
	} else if trailer != "\r\n" {
		s.broken = true
		return nil, false, merrors.Server("missing value terminator")
	}

	if end, err := s.readLine(); err != nil {
		return nil, false, err
	} else if end != "END\r\n" {
		s.broken = true
		return nil, false, merrors.Server("missing END terminator")
	}

	return &protocol.Item{Key: key, Value: buf, Flags: uint32(flags)}, true, nil
}

func (s *Session) Gets(keys []string) (map[string]*protocol.Item, error) {
	if s.datagram {
		return nil, merrors.Client("gets is not supported over a datagram transport")
	}
	for _, k := range keys {
		if err := protocol.CheckKey(k); err != nil {
			return nil, err
		}
	}
	if err := s.writeLine("gets %s\r\n", strings.Join(keys, " ")); err != nil {
		return nil, err
	}

	result := make(map[string]*protocol.Item, len(keys))
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}

		switch {
		case isMemcacheError(line):
			return nil, s.errorFromLine(line)
		case strings.HasPrefix(line, "END"):
			return result, nil
		case !strings.HasPrefix(line, "VALUE"):
			s.broken = true
			return nil, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
		}

		fields := strings.Fields(strings.TrimRight(line, "\r\n"))
		if len(fields) != 5 {
			s.broken = true
			return nil, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
		}

		key := fields[1]
		flags, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, merrors.Parse("invalid flags field", err)
		}
		length, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, merrors.Parse("invalid length field", err)
		}
		cas, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return nil, merrors.Parse("invalid cas field", err)
		}

		buf := make([]byte, length)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			s.broken = true
			return nil, merrors.IO("short read on value payload", err)
		}

		if trailer, err := s.readLine(); err != nil {
			return nil, err
		} else if trailer != "\r\n" {
			s.broken = true
			return nil, merrors.Server("missing value terminator")
		}

		result[key] = &protocol.Item{Key: key, Value: buf, Flags: uint32(flags), Cas: cas}
	}
}

func (s *Session) Delete(key string) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}
	if err := s.writeLine("delete %s\r\n", key); err != nil {
		return false, err
	}

	line, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch {
	case isMemcacheError(line):
		return false, s.errorFromLine(line)
	case line == "DELETED\r\n":
		return true, nil
	case line == "NOT_FOUND\r\n":
		return false, nil
	default:
		s.broken = true
		return false, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}
}

func (s *Session) incrDecr(verb, key string, amount uint64) (uint64, error) {
	if err := protocol.CheckKey(key); err != nil {
		return 0, err
	}
	if err := s.writeLine("%s %s %d\r\n", verb, key, amount); err != nil {
		return 0, err
	}

	line, err := s.readLine()
	if err != nil {
		return 0, err
	}

	switch {
	case isMemcacheError(line):
		return 0, s.errorFromLine(line)
	case line == "NOT_FOUND\r\n":
		return 0, merrors.CommandStatus(merrors.CommandKeyNotFound)
	}

	n, err := strconv.ParseUint(strings.TrimRight(line, "\r\n"), 10, 64)
	if err != nil {
		s.broken = true
		return 0, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}
	return n, nil
}

func (s *Session) Increment(key string, delta uint64) (uint64, error) {
	return s.incrDecr("incr", key, delta)
}

func (s *Session) Decrement(key string, delta uint64) (uint64, error) {
	return s.incrDecr("decr", key, delta)
}

func (s *Session) Touch(key string, exptime uint32) (bool, error) {
	if err := protocol.CheckKey(key); err != nil {
		return false, err
	}
	if err := s.writeLine("touch %s %d\r\n", key, exptime); err != nil {
		return false, err
	}

	line, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch {
	case isMemcacheError(line):
		return false, s.errorFromLine(line)
	case line == "TOUCHED\r\n":
		return true, nil
	case line == "NOT_FOUND\r\n":
		return false, nil
	default:
		s.broken = true
		return false, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}
}

func (s *Session) Flush() error {
	if err := s.writeLine("flush_all\r\n"); err != nil {
		return err
	}
	return s.expectOK()
}

func (s *Session) FlushWithDelay(delaySeconds uint32) error {
	if err := s.writeLine("flush_all %d\r\n", delaySeconds); err != nil {
		return err
	}
	return s.expectOK()
}

func (s *Session) expectOK() error {
	line, err := s.readLine()
	if err != nil {
		return err
	}
	if isMemcacheError(line) {
		return s.errorFromLine(line)
	}
	if line != "OK\r\n" {
		s.broken = true
		return merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}
	return nil
}

func (s *Session) Version() (string, error) {
	if err := s.writeLine("version\r\n"); err != nil {
		return "", err
	}

	line, err := s.readLine()
	if err != nil {
		return "", err
	}
	if isMemcacheError(line) {
		return "", s.errorFromLine(line)
	}
	if !strings.HasPrefix(line, "VERSION") {
		s.broken = true
		return "", merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
	}

	v := strings.TrimPrefix(line, "VERSION ")
	v = strings.TrimRight(v, "\r\n")
	return v, nil
}

func (s *Session) Stats() (map[string]string, error) {
	if err := s.writeLine("stats\r\n"); err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}

		switch {
		case isMemcacheError(line):
			return nil, s.errorFromLine(line)
		case strings.HasPrefix(line, "END"):
			return result, nil
		case !strings.HasPrefix(line, "STAT"):
			s.broken = true
			return nil, merrors.Server("invalid server response: " + strings.TrimRight(line, "\r\n"))
		}

		trimmed := strings.TrimRight(line, "\r\n")
		fields := strings.SplitN(trimmed, " ", 3)
		if len(fields) < 3 {
			s.broken = true
			return nil, merrors.Server("invalid server response: " + trimmed)
		}
		result[fields[1]] = fields[2]
	}
}

// Auth sends the username/password pair as a synthetic "set auth" command,
// matching the text protocol's conventional SASL-less auth handshake.
func (s *Session) Auth(username, password string) error {
	_, err := s.store(cmdSet, "auth", []byte(fmt.Sprintf("%s %s", username, password)), 0, storeOptions{})
	return err
}
