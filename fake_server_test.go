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

package memcache_test

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/gomega"
)

// fakeItem is one stored value in a fakeMemcached's table.
type fakeItem struct {
	value []byte
	flags uint32
	cas   uint64
}

// fakeMemcached is a minimal in-process text-protocol server standing in
// for a real memcached instance, speaking enough of the protocol to drive
// the end-to-end scenarios rather than returning one fixed canned reply.
type fakeMemcached struct {
	mu      sync.Mutex
	items   map[string]*fakeItem
	casNext uint64

	ln net.Listener
}

func newFakeMemcached() *fakeMemcached {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	f := &fakeMemcached{items: make(map[string]*fakeItem), ln: ln}
	go f.acceptLoop()
	return f
}

func (f *fakeMemcached) Addr() string {
	return f.ln.Addr().String()
}

func (f *fakeMemcached) Close() error {
	return f.ln.Close()
}

func (f *fakeMemcached) acceptLoop() {
	for {
		c, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handleConn(c)
	}
}

func (f *fakeMemcached) nextCas() uint64 {
	f.casNext++
	return f.casNext
}

func (f *fakeMemcached) handleConn(c net.Conn) {
	defer c.Close()
	r := bufio.NewReader(c)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		verb := fields[0]
		var reply string
		switch verb {
		case "set", "add", "replace", "append", "prepend", "cas":
			reply = f.handleStore(r, verb, fields)
		case "get":
			reply = f.handleGet(fields, false)
		case "gets":
			reply = f.handleGet(fields, true)
		case "delete":
			reply = f.handleDelete(fields)
		case "incr":
			reply = f.handleIncrDecr(fields, true)
		case "decr":
			reply = f.handleIncrDecr(fields, false)
		case "touch":
			reply = "TOUCHED\r\n"
		case "flush_all":
			reply = f.handleFlush(fields)
		case "version":
			reply = "VERSION 1.6.0-fake\r\n"
		case "stats":
			reply = "STAT pid 1\r\nEND\r\n"
		default:
			reply = "ERROR\r\n"
		}

		if _, err := io.WriteString(c, reply); err != nil {
			return
		}
	}
}

func (f *fakeMemcached) handleStore(r *bufio.Reader, verb string, fields []string) string {
	// set/add/replace <key> <flags> <exptime> <bytes> | cas also has <casid>
	if len(fields) < 5 {
		return "ERROR\r\n"
	}
	key := fields[1]
	flags, _ := strconv.ParseUint(fields[2], 10, 32)
	length, err := strconv.Atoi(fields[4])
	if err != nil {
		return "ERROR\r\n"
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "ERROR\r\n"
	}
	if _, err := r.ReadString('\n'); err != nil {
		return "ERROR\r\n"
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	existing, present := f.items[key]

	if verb == "cas" {
		if len(fields) < 6 {
			return "ERROR\r\n"
		}
		want, _ := strconv.ParseUint(fields[5], 10, 64)
		if !present {
			return "NOT_FOUND\r\n"
		}
		if existing.cas != want {
			return "EXISTS\r\n"
		}
		f.items[key] = &fakeItem{value: buf, flags: uint32(flags), cas: f.nextCas()}
		return "STORED\r\n"
	}

	switch verb {
	case "add":
		if present {
			return "NOT_STORED\r\n"
		}
	case "replace":
		if !present {
			return "NOT_STORED\r\n"
		}
	case "append":
		if !present {
			return "NOT_STORED\r\n"
		}
		buf = append(append([]byte(nil), existing.value...), buf...)
		flags = uint64(existing.flags)
	case "prepend":
		if !present {
			return "NOT_STORED\r\n"
		}
		buf = append(append([]byte(nil), buf...), existing.value...)
		flags = uint64(existing.flags)
	}

	f.items[key] = &fakeItem{value: buf, flags: uint32(flags), cas: f.nextCas()}
	return "STORED\r\n"
}

func (f *fakeMemcached) handleGet(fields []string, withCas bool) string {
	if len(fields) < 2 {
		return "ERROR\r\n"
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var sb strings.Builder
	for _, key := range fields[1:] {
		it, ok := f.items[key]
		if !ok {
			continue
		}
		if withCas {
			fmt.Fprintf(&sb, "VALUE %s %d %d %d\r\n", key, it.flags, len(it.value), it.cas)
		} else {
			fmt.Fprintf(&sb, "VALUE %s %d %d\r\n", key, it.flags, len(it.value))
		}
		sb.Write(it.value)
		sb.WriteString("\r\n")
	}
	sb.WriteString("END\r\n")
	return sb.String()
}

func (f *fakeMemcached) handleDelete(fields []string) string {
	if len(fields) < 2 {
		return "ERROR\r\n"
	}
	key := fields[1]

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[key]; !ok {
		return "NOT_FOUND\r\n"
	}
	delete(f.items, key)
	return "DELETED\r\n"
}

func (f *fakeMemcached) handleIncrDecr(fields []string, up bool) string {
	if len(fields) < 3 {
		return "ERROR\r\n"
	}
	key := fields[1]
	delta, _ := strconv.ParseUint(fields[2], 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[key]
	if !ok {
		return "NOT_FOUND\r\n"
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(it.value)), 10, 64)
	if err != nil {
		return "CLIENT_ERROR cannot increment or decrement non-numeric value\r\n"
	}
	if up {
		n += delta
	} else if delta > n {
		n = 0
	} else {
		n -= delta
	}
	it.value = []byte(strconv.FormatUint(n, 10))
	it.cas = f.nextCas()
	return fmt.Sprintf("%d\r\n", n)
}

func (f *fakeMemcached) handleFlush(fields []string) string {
	if len(fields) >= 2 {
		delay, err := strconv.Atoi(fields[1])
		if err == nil && delay > 0 {
			time.AfterFunc(time.Duration(delay)*time.Second, f.flushNow)
			return "OK\r\n"
		}
	}
	f.flushNow()
	return "OK\r\n"
}

func (f *fakeMemcached) flushNow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string]*fakeItem)
}
