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

import "strconv"

// Error is the interface every error returned across package boundaries in
// this module satisfies: a Kind, an optional command status code, a parent
// chain, and a construction-site trace.
type Error interface {
	error

	// Kind returns the category of this error.
	Kind() Kind
	// IsKind reports whether this error, or any of its parents, has the
	// given Kind.
	IsKind(k Kind) bool

	// Command returns the command status code carried by a KindCommand
	// error, or CommandNone otherwise.
	Command() Command

	// HasParent reports whether this error wraps at least one parent error.
	HasParent() bool
	// Add appends one or more non-nil parent errors.
	Add(parent ...error)

	// Unwrap exposes the parent chain for errors.Is / errors.As.
	Unwrap() []error

	// Trace returns a short "function:file:line" description of where the
	// error was constructed, for logging.
	Trace() string
}

type merr struct {
	kind Kind
	cmd  Command
	msg  string
	frm  frame
	par  []error
}

type frame struct {
	Function string
	File     string
	Line     int
}

func (e *merr) Error() string {
	return e.msg
}

func (e *merr) Kind() Kind {
	return e.kind
}

func (e *merr) IsKind(k Kind) bool {
	if e.kind == k {
		return true
	}

	for _, p := range e.par {
		if m, ok := p.(Error); ok && m.IsKind(k) {
			return true
		}
	}

	return false
}

func (e *merr) Command() Command {
	return e.cmd
}

func (e *merr) HasParent() bool {
	return len(e.par) > 0
}

func (e *merr) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.par = append(e.par, p)
		}
	}
}

func (e *merr) Unwrap() []error {
	return e.par
}

func (e *merr) Trace() string {
	if e.frm.File == "" {
		return ""
	}
	return e.frm.Function + ":" + e.frm.File + ":" + strconv.Itoa(e.frm.Line)
}
