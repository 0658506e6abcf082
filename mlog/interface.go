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

// Package mlog is the logging facade used by pool, transport and the Client
// facade: a small package-local Logger interface in front of a concrete
// logrus backend.
package mlog

import (
	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging surface every package in this module logs
// through. Connection lifecycle transitions (lease, return, broken) and pool
// creation/close events log at Debug; transport and protocol errors at Warn.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Discard is a Logger that drops everything. It is the default when no
// Logger is configured, so a Client never pays for logging it didn't ask
// for.
var Discard Logger = discard{}

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

// entry adapts a *logrus.Entry to the Logger interface.
type entry struct {
	e *logrus.Entry
}

// New wraps a *logrus.Logger as a Logger, tagging every line with the given
// field set (typically {"endpoint": "..."}).
func New(l *logrus.Logger, fields logrus.Fields) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &entry{e: l.WithFields(fields)}
}

func (l *entry) Debugf(format string, args ...any) {
	l.e.Debugf(format, args...)
}

func (l *entry) Infof(format string, args ...any) {
	l.e.Infof(format, args...)
}

func (l *entry) Warnf(format string, args ...any) {
	l.e.Warnf(format, args...)
}

func (l *entry) Errorf(format string, args ...any) {
	l.e.Errorf(format, args...)
}
