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

// Package merrors provides the closed error taxonomy used across the memcache
// client: every failure returned by transport, pool, protocol and router code
// carries one of the Kind values below plus an optional status code and parent
// chain, and is comparable with the standard errors.Is/errors.As.
package merrors

// Kind classifies a failure into one of the categories the client surfaces to
// callers. It intentionally stays closed and small instead of the open,
// HTTP-status-shaped registry a general purpose errors package would use.
type Kind uint8

const (
	// KindUnknown is the zero value, never returned by this package directly.
	KindUnknown Kind = iota
	// KindIO covers failures from the underlying transport: dial, read, write,
	// timeouts and closed-connection errors.
	KindIO
	// KindClient covers malformed requests detected before any I/O happens,
	// such as an over-length key.
	KindClient
	// KindServer covers malformed or unexpected responses from the server,
	// including a bad binary-protocol magic byte.
	KindServer
	// KindCommand covers status codes the server returned for a well-formed
	// command: key not found, key exists, value too large, and so on.
	KindCommand
	// KindParse covers failures converting a wire value into the type the
	// caller asked for (bool, int, float, string).
	KindParse
	// KindTLS covers TLS configuration and handshake failures.
	KindTLS
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindCommand:
		return "command"
	case KindParse:
		return "parse"
	case KindTLS:
		return "tls"
	default:
		return "unknown"
	}
}

// Command status codes, shared between the ascii and binary protocol
// implementations. Values above 0 map 1:1 onto the binary protocol's 16-bit
// status field; the ascii protocol maps its reply lines onto the same set.
type Command uint16

const (
	CommandNone                   Command = 0x0000
	CommandKeyNotFound            Command = 0x0001
	CommandKeyExists              Command = 0x0002
	CommandValueTooLarge          Command = 0x0003
	CommandInvalidArguments       Command = 0x0004
	CommandItemNotStored          Command = 0x0005
	CommandNonNumericValue        Command = 0x0006
	CommandAuthenticationRequired Command = 0x0020
	CommandUnknownCommand         Command = 0x0081
	CommandOutOfMemory            Command = 0x0082
)

func (c Command) String() string {
	switch c {
	case CommandKeyNotFound:
		return "key not found"
	case CommandKeyExists:
		return "key exists"
	case CommandValueTooLarge:
		return "value too large"
	case CommandInvalidArguments:
		return "invalid arguments"
	case CommandItemNotStored:
		return "item not stored"
	case CommandNonNumericValue:
		return "incr/decr on non-numeric value"
	case CommandAuthenticationRequired:
		return "authentication required"
	case CommandUnknownCommand:
		return "unknown command"
	case CommandOutOfMemory:
		return "server out of memory"
	default:
		return "unknown command status"
	}
}

// CommandFromStatus maps a binary protocol status field to a Command code.
// Unrecognized status values are preserved as-is, so the raw number stays
// available through Error.Command.
func CommandFromStatus(status uint16) Command {
	return Command(status)
}
