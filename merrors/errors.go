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

package merrors

import (
	"errors"
	"fmt"
)

func newFrame() frame {
	f := getFrame()
	return frame{Function: f.Function, File: f.File, Line: f.Line}
}

// New builds an Error of the given Kind with the given message and optional
// parent errors.
func New(kind Kind, message string, parent ...error) Error {
	e := &merr{kind: kind, msg: message, frm: newFrame()}
	e.Add(parent...)
	return e
}

// Newf builds an Error of the given Kind with a formatted message.
func Newf(kind Kind, pattern string, args ...any) Error {
	return &merr{kind: kind, msg: fmt.Sprintf(pattern, args...), frm: newFrame()}
}

// IO builds a KindIO error, typically wrapping a net.Error from the
// transport layer.
func IO(message string, parent ...error) Error {
	return New(KindIO, message, parent...)
}

// Client builds a KindClient error: a request rejected before any I/O, such
// as a key over 250 bytes.
func Client(message string, parent ...error) Error {
	return New(KindClient, message, parent...)
}

// Server builds a KindServer error: a malformed or unexpected response, such
// as a binary frame with a bad magic byte.
func Server(message string, parent ...error) Error {
	return New(KindServer, message, parent...)
}

// Parse builds a KindParse error: a value adapter failed to convert the
// wire bytes into the requested Go type.
func Parse(message string, parent ...error) Error {
	return New(KindParse, message, parent...)
}

// TLS builds a KindTLS error: configuration or handshake failure.
func TLS(message string, parent ...error) Error {
	return New(KindTLS, message, parent...)
}

// CommandStatus builds a KindCommand error carrying the given status code,
// used whenever the server replies with a well-formed but non-success
// status (NOT_FOUND, EXISTS, and so on).
func CommandStatus(cmd Command) Error {
	return &merr{kind: KindCommand, cmd: cmd, msg: cmd.String(), frm: newFrame()}
}

// Is reports whether err is a merrors.Error (possibly wrapped).
func Is(err error) bool {
	var e Error
	return errors.As(err, &e)
}

// Get returns err as a merrors.Error if it is one, nil otherwise.
func Get(err error) Error {
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// HasKind reports whether err, or any error it wraps, carries the given
// Kind.
func HasKind(err error, k Kind) bool {
	if e := Get(err); e != nil {
		return e.IsKind(k)
	}
	return false
}

// HasCommand reports whether err is a KindCommand error carrying the given
// status code. Used by the ascii and binary protocol Cas implementations to
// turn KeyExists/KeyNotFound into a soft boolean result instead of
// propagating the error.
func HasCommand(err error, cmd Command) bool {
	if e := Get(err); e != nil {
		return e.Kind() == KindCommand && e.Command() == cmd
	}
	return false
}

// IsKeyNotFound reports whether err is the KindCommand/CommandKeyNotFound
// error.
func IsKeyNotFound(err error) bool {
	return HasCommand(err, CommandKeyNotFound)
}

// IsKeyExists reports whether err is the KindCommand/CommandKeyExists error.
func IsKeyExists(err error) bool {
	return HasCommand(err, CommandKeyExists)
}
