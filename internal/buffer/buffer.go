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

// Package buffer implements the low-level, allocation-free byte buffers used
// to read kernel requests and build kernel replies. It is a generalization
// of the teacher's internal/buffer package: the header type is supplied by
// the caller as a byte count rather than hard-coded, since gofuse's wire
// package (not internal to this module layout) owns the actual struct
// definitions.
package buffer

import "errors"

// ErrShortRead is returned by InMessage.Init when the kernel's read returned
// fewer bytes than a well-formed fuse_in_header requires; this indicates a
// kernel/library protocol mismatch and is not expected in normal operation.
var ErrShortRead = errors.New("fuse: short read from kernel")

// MaxWriteSize bounds how much payload a single WRITE may carry, and how
// large the read buffer for incoming messages must be (see spec.md §4.6 and
// §8's boundary behavior test). 128 KiB is the value FUSE itself
// recommends for non-macOS platforms; macOS callers should override this at
// session-construction time (spec.md §6's Config surface).
const MaxWriteSize = 128 * 1024

// MaxReadSize is the largest message the kernel will ever write to the
// device in one call: a header, plus the largest payload (a WRITE), plus
// slack for alignment and small requests riding along. One extra page keeps
// us safely above MaxWriteSize even if the kernel rounds up.
const MaxReadSize = MaxWriteSize + 4096

// OutBuffer accumulates a single outgoing message: a fixed-size header
// segment (whose layout the caller owns) followed by zero or more appended
// payload segments. It is reused across replies to avoid per-reply
// allocation, mirroring the teacher's OutMessage.
type OutBuffer struct {
	headerSize int
	slice      []byte

	// Out-of-line payload segments recorded by AppendNoCopy, written after
	// the contiguous part by a single writev. The teacher's OutMessage calls
	// this its Sglist.
	extra [][]byte
}

// NewOutBuffer returns an OutBuffer whose first headerSize bytes are zeroed
// and reserved for the reply header; extra bytes of spare capacity are
// pre-allocated to avoid reallocation for typical payload sizes.
func NewOutBuffer(headerSize int, extra int) *OutBuffer {
	b := &OutBuffer{headerSize: headerSize}
	b.slice = make([]byte, headerSize, headerSize+extra)
	return b
}

// Reset restores b to just its zeroed header, ready for reuse.
func (b *OutBuffer) Reset() {
	for i := range b.slice[:b.headerSize] {
		b.slice[i] = 0
	}
	b.slice = b.slice[:b.headerSize]
	b.extra = nil
}

// HeaderBytes returns a mutable view of the header segment.
func (b *OutBuffer) HeaderBytes() []byte {
	return b.slice[:b.headerSize]
}

// Append copies src onto the end of b's payload, growing as needed.
func (b *OutBuffer) Append(src []byte) {
	b.slice = append(b.slice, src...)
}

// AppendString is like Append but accepts a string, avoiding a caller-side
// conversion allocation in the common case of appending a symlink target or
// xattr name.
func (b *OutBuffer) AppendString(src string) {
	b.slice = append(b.slice, src...)
}

// Grow appends n zeroed bytes and returns a slice referencing them, so the
// caller can fill in a fixed-size record in place.
func (b *OutBuffer) Grow(n int) []byte {
	l := len(b.slice)
	b.slice = append(b.slice, make([]byte, n)...)
	return b.slice[l : l+n]
}

// AppendNoCopy records src as an out-of-line payload segment following
// whatever has been appended so far, without copying it. src must stay alive
// and unmodified until the message has been written. Large payloads (READ
// data, packed directory entries) take this path so the kernel write is a
// single writev over the original buffers.
func (b *OutBuffer) AppendNoCopy(src []byte) {
	if len(src) == 0 {
		return
	}
	b.extra = append(b.extra, src)
}

// Segments returns the message as a scatter-gather list: the contiguous
// header-plus-copied-payload segment first, then each AppendNoCopy segment
// in order.
func (b *OutBuffer) Segments() [][]byte {
	return append([][]byte{b.slice}, b.extra...)
}

// Len returns the total size of the message, including the header and any
// out-of-line segments.
func (b *OutBuffer) Len() int {
	n := len(b.slice)
	for _, e := range b.extra {
		n += len(e)
	}
	return n
}

// Bytes returns the full contents of the message, header included. When
// out-of-line segments are present this flattens them into a fresh slice;
// the write path uses Segments instead and never pays for the copy.
func (b *OutBuffer) Bytes() []byte {
	if len(b.extra) == 0 {
		return b.slice
	}
	out := append([]byte(nil), b.slice...)
	for _, e := range b.extra {
		out = append(out, e...)
	}
	return out
}

// InHeaderSize is the size in bytes of the kernel's fixed-size in-header
// (fuse_in_header), which leads every request regardless of opcode. Kept
// here, rather than derived via unsafe.Sizeof against the wire package's
// InHeader struct, so this package has no dependency on its caller (the
// teacher's internal/fusekernel sits below internal/buffer the same way).
const InHeaderSize = 40

// InMessage is a single incoming request read from the kernel in one Read
// call: the fixed in-header followed by opcode-specific argument bytes. A
// cursor tracks how much of the argument area has been consumed so far,
// generalizing the teacher's internal/buffer.InMessage (there stubbed out;
// here given a real, allocation-reused implementation).
type InMessage struct {
	data   []byte
	n      int
	offset int
}

// NewInMessage allocates an InMessage with enough backing storage for the
// largest message the kernel will ever send (MaxReadSize).
func NewInMessage() *InMessage {
	return &InMessage{data: make([]byte, MaxReadSize)}
}

// reader is the subset of *os.File used by Init, isolated so tests can
// substitute an in-memory reader without the a package dependency on os.
type reader interface {
	Read(p []byte) (int, error)
}

// Init reads one message from r into m, discarding any previous contents.
// The cursor is left positioned just after the in-header, ready for the
// first call to Consume/ConsumeBytes.
func (m *InMessage) Init(r reader) error {
	n, err := r.Read(m.data)
	if err != nil {
		return err
	}
	m.n = n
	m.offset = InHeaderSize
	if n < InHeaderSize {
		return ErrShortRead
	}
	return nil
}

// HeaderBytes returns the fixed in-header segment of the most recently read
// message.
func (m *InMessage) HeaderBytes() []byte {
	return m.data[:InHeaderSize]
}

// Len reports how many unconsumed argument bytes remain.
func (m *InMessage) Len() int {
	return m.n - m.offset
}

// Consume returns a pointer to the next n bytes of the argument area and
// advances the cursor past them, or returns nil if fewer than n bytes
// remain.
func (m *InMessage) Consume(n int) []byte {
	if n < 0 || m.offset+n > m.n {
		return nil
	}
	b := m.data[m.offset : m.offset+n]
	m.offset += n
	return b
}

// ConsumeBytes returns every remaining argument byte, advancing the cursor
// to the end of the message. Used for variable-length trailing fields
// (paths, symlink targets, xattr payloads).
func (m *InMessage) ConsumeBytes() []byte {
	b := m.data[m.offset:m.n]
	m.offset = m.n
	return b
}
