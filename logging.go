// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fuse

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// debugLogger and errorLogger wrap a *logrus.Logger at a fixed level. The
// teacher's debug.go gates a bare *log.Logger behind a flag.Bool; gofuse
// follows the pack's FUSE-adjacent convention (rclone, moby) of using
// logrus instead, with the same call-site shape: one line per
// request/response, one line per error worth surfacing (spec.md §7).
type debugLogger struct {
	log *logrus.Logger
}

type errorLogger struct {
	log *logrus.Logger
}

// NewDebugLogger returns a debugLogger writing to w at debug level.
func NewDebugLogger(w io.Writer) *debugLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &debugLogger{log: l}
}

// NewErrorLogger returns an errorLogger writing to w at error level.
func NewErrorLogger(w io.Writer) *errorLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.ErrorLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &errorLogger{log: l}
}

func (d *debugLogger) requestf(unique uint64, op Opcode, format string, args ...interface{}) {
	if d == nil {
		return
	}
	d.log.WithFields(logrus.Fields{"unique": unique, "op": op.String()}).Debugf(format, args...)
}

func (e *errorLogger) errorf(unique uint64, op Opcode, format string, args ...interface{}) {
	if e == nil {
		return
	}
	e.log.WithFields(logrus.Fields{"unique": unique, "op": op.String()}).Errorf(format, args...)
}

// discardOnce guards lazy construction of a package-level discard logger
// used when the caller supplies neither DebugLogger nor ErrorLogger.
var discardOnce sync.Once
var discardDebug *debugLogger
var discardError *errorLogger

func discardLoggers() (*debugLogger, *errorLogger) {
	discardOnce.Do(func() {
		discardDebug = NewDebugLogger(io.Discard)
		discardError = NewErrorLogger(io.Discard)
	})
	return discardDebug, discardError
}
