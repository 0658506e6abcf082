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

// Package mvalue implements the value-adapter contract between caller types
// and wire items: converting a caller-supplied Go value to the (bytes,
// flags) pair a memcached item is stored as, and back. Integer values are
// decimal-ASCII encoded.
package mvalue

import (
	"strconv"

	"github.com/nabbar/memcache/merrors"
)

// Flag bits recorded alongside a stored value so a later Get/Gets can
// reconstruct the original Go type without the caller repeating it.
const (
	FlagBytes Flag = 0
	FlagBool  Flag = 1 << 0
	FlagInt   Flag = 1 << 1
	FlagFloat Flag = 1 << 2
	FlagUTF8  Flag = 1 << 3
)

// Flag is the 32-bit application-defined metadata word attached to every
// stored value.
type Flag uint32

// Encoder converts a caller-supplied value into wire bytes plus a flags
// word. It is the write-side half of the value adapter contract.
type Encoder interface {
	Encode() (data []byte, flags Flag, err error)
}

// Decoder converts wire bytes plus a flags word back into a caller-visible
// representation. It is the read-side half of the value adapter contract.
type Decoder interface {
	Decode(data []byte, flags Flag) error
}

// EncodeBytes is the identity adapter: stores data unchanged with FlagBytes.
func EncodeBytes(data []byte) ([]byte, Flag, error) {
	return data, FlagBytes, nil
}

// EncodeString stores s as its raw UTF-8 bytes with FlagUTF8.
func EncodeString(s string) ([]byte, Flag, error) {
	return []byte(s), FlagUTF8, nil
}

// EncodeInt decimal-encodes n with FlagInt, used by Increment/Decrement
// seed values and by callers storing integer counters directly.
func EncodeInt(n int64) ([]byte, Flag, error) {
	return []byte(strconv.FormatInt(n, 10)), FlagInt, nil
}

// EncodeBool encodes b as "0"/"1" with FlagBool.
func EncodeBool(b bool) ([]byte, Flag, error) {
	if b {
		return []byte("1"), FlagBool, nil
	}
	return []byte("0"), FlagBool, nil
}

// DecodeString returns data as a string regardless of flags.
func DecodeString(data []byte, _ Flag) (string, error) {
	return string(data), nil
}

// DecodeInt parses data as a base-10 signed integer. Returns a KindParse
// error if data is not a valid integer.
func DecodeInt(data []byte, _ Flag) (int64, error) {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, merrors.Parse("value is not a valid integer: "+string(data), err)
	}
	return n, nil
}

// DecodeBool parses data as "0"/"1" (or "false"/"true").
func DecodeBool(data []byte, _ Flag) (bool, error) {
	switch string(data) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, merrors.Parse("value is not a valid boolean: " + string(data))
	}
}

