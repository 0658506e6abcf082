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

package binary

import (
	"encoding/binary"
	"io"

	"github.com/nabbar/memcache/merrors"
)

// header is the 24-byte binary protocol frame preceding extras, key and
// value on every request and response.
type header struct {
	magic        uint8
	opcode       opcode
	keyLen       uint16
	extrasLen    uint8
	dataType     uint8
	statusOrVB   uint16 // vbucket id on request, status code on response
	totalBodyLen uint32
	opaque       uint32
	cas          uint64
}

func (h header) status() merrors.Command {
	return merrors.CommandFromStatus(h.statusOrVB)
}

func (h header) bodyLen() int {
	return int(h.totalBodyLen)
}

func (h header) extrasAndKeyLen() int {
	return int(h.extrasLen) + int(h.keyLen)
}

func (h header) valueLen() int {
	return h.bodyLen() - h.extrasAndKeyLen()
}

func writeRequest(w io.Writer, op opcode, opaque uint32, cas uint64, extras, key, value []byte) error {
	buf := make([]byte, headerLen+len(extras)+len(key)+len(value))

	buf[0] = magicRequest
	buf[1] = uint8(op)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(key)))
	buf[4] = uint8(len(extras))
	buf[5] = 0
	binary.BigEndian.PutUint16(buf[6:8], 0)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(extras)+len(key)+len(value)))
	binary.BigEndian.PutUint32(buf[12:16], opaque)
	binary.BigEndian.PutUint64(buf[16:24], cas)

	n := headerLen
	n += copy(buf[n:], extras)
	n += copy(buf[n:], key)
	copy(buf[n:], value)

	if _, err := w.Write(buf); err != nil {
		return merrors.IO("failed to write binary request", err)
	}
	return nil
}

// readResponse reads one 24-byte header and its body, validating the
// response magic byte. A bad magic is a protocol framing violation: the
// caller must mark the Connection Broken.
func readResponse(r io.Reader) (header, []byte, error) {
	var raw [headerLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return header{}, nil, merrors.IO("short read on response header", err)
	}

	h := header{
		magic:        raw[0],
		opcode:       opcode(raw[1]),
		keyLen:       binary.BigEndian.Uint16(raw[2:4]),
		extrasLen:    raw[4],
		dataType:     raw[5],
		statusOrVB:   binary.BigEndian.Uint16(raw[6:8]),
		totalBodyLen: binary.BigEndian.Uint32(raw[8:12]),
		opaque:       binary.BigEndian.Uint32(raw[12:16]),
		cas:          binary.BigEndian.Uint64(raw[16:24]),
	}

	if h.magic != magicResponse {
		return header{}, nil, merrors.Server("bad magic byte in binary response")
	}

	body := make([]byte, h.bodyLen())
	if _, err := io.ReadFull(r, body); err != nil {
		return header{}, nil, merrors.IO("short read on response body", err)
	}

	return h, body, nil
}
