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
	"bytes"
	"unsafe"
)

// protocolError is returned by argCursor when a fetch would read past the end
// of the supplied buffer. The dispatcher treats this the same as a short
// read: EIO (spec.md §7).
type protocolError string

func (e protocolError) Error() string { return "fuse: protocol error: " + string(e) }

// argCursor consumes a request payload as a sequence of typed records,
// NUL-terminated names, and a final blob of trailing data. It never copies;
// every accessor returns a view into the original buffer.
//
// Grounded on the teacher's internal/buffer.InMessage.Consume/ConsumeBytes.
type argCursor struct {
	buf []byte
}

func newArgCursor(buf []byte) *argCursor {
	return &argCursor{buf: buf}
}

// remaining returns the number of unconsumed bytes.
func (c *argCursor) remaining() int {
	return len(c.buf)
}

// fetch reinterprets the next n bytes as *T, advancing the cursor past them.
// Callers must not retain the pointer past the lifetime of the underlying
// read buffer.
func fetch[T any](c *argCursor) (*T, error) {
	var zero T
	n := int(unsafe.Sizeof(zero))
	if len(c.buf) < n {
		return nil, protocolError("short record")
	}
	p := (*T)(unsafe.Pointer(&c.buf[0]))
	c.buf = c.buf[n:]
	return p, nil
}

// fetchString consumes a NUL-terminated byte string, returning it without
// the trailing NUL and advancing the cursor past it.
func (c *argCursor) fetchString() (string, error) {
	i := bytes.IndexByte(c.buf, 0)
	if i < 0 {
		return "", protocolError("unterminated name")
	}
	s := string(c.buf[:i])
	c.buf = c.buf[i+1:]
	return s, nil
}

// fetchN consumes and returns exactly n bytes.
func (c *argCursor) fetchN(n int) ([]byte, error) {
	if len(c.buf) < n {
		return nil, protocolError("short payload")
	}
	b := c.buf[:n]
	c.buf = c.buf[n:]
	return b, nil
}

// fetchRest consumes and returns every remaining byte.
func (c *argCursor) fetchRest() []byte {
	b := c.buf
	c.buf = nil
	return b
}
