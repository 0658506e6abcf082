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

package transport

import (
	"encoding/binary"
	"net"
	"sync/atomic"
	"time"

	"github.com/nabbar/memcache/endpoint"
	"github.com/nabbar/memcache/merrors"
)

// udpFrameHeader is memcached's 8-byte UDP request/response frame header:
// a 16-bit request id chosen by the client, a 16-bit sequence number, a
// 16-bit count of total datagrams in the message, and a reserved 16-bit
// field.
const udpFrameHeaderLen = 8

const udpMaxPayload = 1400 // leaves room for the 8-byte frame header under a 1472-byte UDP MTU payload.

type udpFrameHeader struct {
	requestID uint16
	sequence  uint16
	total     uint16
	reserved  uint16
}

func (h udpFrameHeader) marshal() []byte {
	b := make([]byte, udpFrameHeaderLen)
	binary.BigEndian.PutUint16(b[0:2], h.requestID)
	binary.BigEndian.PutUint16(b[2:4], h.sequence)
	binary.BigEndian.PutUint16(b[4:6], h.total)
	binary.BigEndian.PutUint16(b[6:8], h.reserved)
	return b
}

func unmarshalUDPFrameHeader(b []byte) udpFrameHeader {
	return udpFrameHeader{
		requestID: binary.BigEndian.Uint16(b[0:2]),
		sequence:  binary.BigEndian.Uint16(b[2:4]),
		total:     binary.BigEndian.Uint16(b[4:6]),
		reserved:  binary.BigEndian.Uint16(b[6:8]),
	}
}

// udpTransport frames each request/response pair with the memcached UDP
// frame header and presents a byte stream by concatenating payloads in
// sequence order, filtering duplicate or stale datagrams by request id.
type udpTransport struct {
	conn      net.Conn
	requestID uint16
	timeout   time.Duration
	closed    atomic.Bool

	pending map[uint16][]byte // sequence -> payload, for the in-flight read
	total   uint16
	readBuf []byte // assembled payload not yet consumed by Read
}

var _ Transport = (*udpTransport)(nil)

func dialUDP(e *endpoint.Endpoint) (Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", e.Address())
	if err != nil {
		return nil, merrors.IO("resolving udp address", err)
	}

	c, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, merrors.IO("dialing udp endpoint", err)
	}

	if e.Timeout > 0 {
		deadline := time.Now().Add(e.Timeout)
		_ = c.SetReadDeadline(deadline)
		_ = c.SetWriteDeadline(deadline)
	}

	return &udpTransport{conn: c, timeout: e.Timeout, pending: make(map[uint16][]byte)}, nil
}

// Write sends p as one or more framed datagrams sharing a freshly chosen
// request id. The session always writes a full request before reading any
// reply, so one Write call is one complete message.
func (t *udpTransport) Write(p []byte) (int, error) {
	t.requestID++
	reqID := t.requestID

	chunks := chunk(p, udpMaxPayload)
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}

	for seq, payload := range chunks {
		hdr := udpFrameHeader{requestID: reqID, sequence: uint16(seq), total: uint16(len(chunks))}
		frame := append(hdr.marshal(), payload...)
		if _, err := t.conn.Write(frame); err != nil {
			t.closed.Store(true)
			return 0, err
		}
	}

	// Reset read-side reassembly state so the next Read only accepts
	// datagrams that answer this request id.
	t.pending = make(map[uint16][]byte)
	t.total = 0
	t.readBuf = nil

	return len(p), nil
}

func chunk(p []byte, size int) [][]byte {
	if len(p) == 0 {
		return nil
	}
	var out [][]byte
	for len(p) > 0 {
		n := size
		if n > len(p) {
			n = len(p)
		}
		out = append(out, p[:n])
		p = p[n:]
	}
	return out
}

// Read returns bytes from the current reply, pulling and reassembling
// datagrams as needed. Datagrams whose request id doesn't match the last
// Write are discarded as stale or duplicate traffic.
func (t *udpTransport) Read(p []byte) (int, error) {
	for len(t.readBuf) == 0 {
		if err := t.fillOneDatagram(); err != nil {
			return 0, err
		}
	}

	n := copy(p, t.readBuf)
	t.readBuf = t.readBuf[n:]
	return n, nil
}

func (t *udpTransport) fillOneDatagram() error {
	buf := make([]byte, 65536)

	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			t.closed.Store(true)
			return err
		}
		if n < udpFrameHeaderLen {
			continue // short/garbage datagram, ignore
		}

		hdr := unmarshalUDPFrameHeader(buf[:udpFrameHeaderLen])
		if hdr.requestID != t.requestID {
			continue // stale reply to a previous request, or duplicate
		}

		if _, dup := t.pending[hdr.sequence]; dup {
			continue
		}

		t.pending[hdr.sequence] = append([]byte(nil), buf[udpFrameHeaderLen:n]...)
		t.total = hdr.total

		if uint16(len(t.pending)) >= t.total {
			assembled := make([]byte, 0, n*int(t.total))
			for seq := uint16(0); seq < t.total; seq++ {
				assembled = append(assembled, t.pending[seq]...)
			}
			t.readBuf = assembled
			return nil
		}
	}
}

func (t *udpTransport) Flush() error {
	return nil
}

func (t *udpTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

// SetReadTimeout and SetWriteTimeout are no-ops on the datagram transport;
// no error is reported. The connect-time timeout, if any, is still applied
// once at dial as the socket's read/write deadline.
func (t *udpTransport) SetReadTimeout(time.Duration) error {
	return nil
}

func (t *udpTransport) SetWriteTimeout(time.Duration) error {
	return nil
}

func (t *udpTransport) IsConnected() bool {
	return !t.closed.Load()
}
