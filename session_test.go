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
	"context"
	"io"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuselib/gofuse/internal/buffer"
)

// rawMessage packs a fuse_in_header plus payload into the bytes a kernel
// read(2) would have delivered, for feeding directly to a fake receiver.
func rawMessage(unique uint64, op Opcode, payload []byte) []byte {
	h := InHeader{
		Len:    uint32(InHeaderSize + len(payload)),
		Opcode: uint32(op),
		Unique: unique,
		Nodeid: 1,
	}
	hdrBytes := (*[unsafe.Sizeof(InHeader{})]byte)(unsafe.Pointer(&h))[:]
	out := append([]byte(nil), hdrBytes...)
	return append(out, payload...)
}

// queuedReceiver feeds a fixed sequence of raw messages to a Session's read
// loop and then returns a terminal error (io.EOF by default), standing in
// for Channel without needing a real kernel descriptor.
type queuedReceiver struct {
	msgs [][]byte
	idx  int
	err  error
}

func (q *queuedReceiver) Receive(msg *buffer.InMessage) error {
	if q.idx >= len(q.msgs) {
		if q.err != nil {
			return q.err
		}
		return io.EOF
	}
	next := q.msgs[q.idx]
	q.idx++
	return msg.Init(&singleShotReader{data: next})
}

// singleShotReader returns its entire payload on the first Read, exactly as
// a single read(2) on /dev/fuse delivers one whole message.
type singleShotReader struct {
	data []byte
	done bool
}

func (r *singleShotReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	return copy(p, r.data), nil
}

func TestSessionServeReturnsNilOnCleanShutdown(t *testing.T) {
	impl := &fakeImplementer{}
	d, _ := newTestDispatcher(impl)
	recv := &queuedReceiver{}
	s := NewSession(recv, d)

	err := s.Serve(context.Background())
	assert.NoError(t, err)
}

func TestSessionServeDispatchesInitThenLookup(t *testing.T) {
	impl := &fakeImplementer{}
	d, sender := newTestDispatcher(impl)

	initIn := InitIn{Major: 7, Minor: 26, MaxReadahead: 4096}
	initBytes := (*[unsafe.Sizeof(InitIn{})]byte)(unsafe.Pointer(&initIn))[:]

	name := append([]byte("hello.txt"), 0)
	recv := &queuedReceiver{msgs: [][]byte{
		rawMessage(1, OpInit, initBytes),
		rawMessage(2, OpLookup, name),
	}}
	sess := NewSession(recv, d)

	err := sess.Serve(context.Background())
	require.NoError(t, err)
	assert.True(t, impl.lookupCalled)
	assert.True(t, d.initialized)

	hdr := sender.lastHeader(t)
	assert.Equal(t, int32(0), hdr.Error)
}

func TestSessionServeReturnsNonEOFError(t *testing.T) {
	impl := &fakeImplementer{}
	d, _ := newTestDispatcher(impl)
	boom := io.ErrClosedPipe
	recv := &queuedReceiver{err: boom}

	err := runServe(t, recv, d)
	assert.Equal(t, boom, err)
}

func runServe(t *testing.T, recv receiver, d *Dispatcher) error {
	t.Helper()
	sess := NewSession(recv, d)
	return sess.Serve(context.Background())
}

func TestSessionHandleInterruptCancelsInFlightOp(t *testing.T) {
	impl := &fakeImplementer{}
	d, _ := newTestDispatcher(impl)
	sess := NewSession(&queuedReceiver{}, d)

	ctx, cancel := context.WithCancel(context.Background())
	sess.beginOp(42, cancel)

	sess.HandleInterrupt(42)

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should have been cancelled by HandleInterrupt")
	}

	// A second interrupt for the same (already cancelled) op is a no-op, not
	// a panic: beginOp's entry is only removed by endOp, so this exercises
	// that HandleInterrupt tolerates being called again.
	sess.HandleInterrupt(42)
}

func TestSessionEndOpRemovesInFlightEntry(t *testing.T) {
	impl := &fakeImplementer{}
	d, _ := newTestDispatcher(impl)
	sess := NewSession(&queuedReceiver{}, d)

	_, cancel := context.WithCancel(context.Background())
	sess.beginOp(7, cancel)
	sess.endOp(7)

	sess.mu.Lock()
	_, ok := sess.inFlight[7]
	sess.mu.Unlock()
	assert.False(t, ok, "endOp should remove the in-flight entry")
}
