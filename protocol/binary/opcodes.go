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

// opcode identifies the command or response kind carried by a header.
// Values follow the memcached binary protocol's published opcode table.
type opcode uint8

const (
	opGet       opcode = 0x00
	opSet       opcode = 0x01
	opAdd       opcode = 0x02
	opReplace   opcode = 0x03
	opDelete    opcode = 0x04
	opIncrement opcode = 0x05
	opDecrement opcode = 0x06
	opQuit      opcode = 0x07
	opFlush     opcode = 0x08
	opGetQ      opcode = 0x09
	opNoOp      opcode = 0x0A
	opVersion   opcode = 0x0B
	opGetK      opcode = 0x0C
	opGetKQ     opcode = 0x0D
	opAppend    opcode = 0x0E
	opPrepend   opcode = 0x0F
	opStat      opcode = 0x10
	opTouch     opcode = 0x1C

	opSASLListMechs opcode = 0x20
	opSASLAuth      opcode = 0x21
)

const (
	magicRequest  uint8 = 0x80
	magicResponse uint8 = 0x81
)

const headerLen = 24
