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

	"github.com/jacobsa/syncutil"

	"github.com/fuselib/gofuse/internal/buffer"
)

// receiver is the subset of Channel's surface the read-dispatch loop
// needs. Kept as an interface, rather than a direct *Channel field, so a
// Session can be driven by a fake in tests without opening a real kernel
// descriptor.
type receiver interface {
	Receive(msg *buffer.InMessage) error
}

// Session owns the single-threaded read-dispatch loop described in
// spec.md §5: it blocks reading one message at a time from a Channel,
// parses it into a Request, and hands it to a Dispatcher. Handlers may
// themselves block or may hand their Reply off to another goroutine; the
// loop itself never blocks on anything but the kernel read.
//
// Grounded on the teacher's Connection/mountedFileSystem read loop
// (connection.go's ReadOp, server.go's Serve).
type Session struct {
	channel receiver
	disp    *Dispatcher

	// mu guards inFlight, following the teacher's use of
	// syncutil.InvariantMutex to keep an always-checkable invariant over a
	// shared map. The Serve loop adds and removes entries (beginOp/endOp);
	// HandleInterrupt, which may be called from any goroutine, reads them.
	mu       syncutil.InvariantMutex
	inFlight map[uint64]context.CancelFunc
}

// NewSession constructs a Session around channel, dispatching requests to
// disp.
func NewSession(channel receiver, disp *Dispatcher) *Session {
	s := &Session{
		channel:  channel,
		disp:     disp,
		inFlight: make(map[uint64]context.CancelFunc),
	}
	s.mu = syncutil.NewInvariantMutex(s.checkInvariants)
	return s
}

func (s *Session) checkInvariants() {
	if s.inFlight == nil {
		panic("Session.inFlight must never be nil")
	}
}

// Serve runs the read-dispatch loop until the kernel closes the connection
// (ENODEV, surfaced as io.EOF) or ctx is cancelled. It returns nil on a
// clean kernel-initiated shutdown.
func (s *Session) Serve(ctx context.Context) error {
	msg := buffer.NewInMessage()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.channel.Receive(msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		req, err := parseRequest(msg)
		if err != nil {
			// A malformed message from the kernel is a protocol-level bug;
			// there is no trustworthy unique to reply to, so the message is
			// dropped with a trace in the error log.
			s.disp.errLog.errorf(0, 0, "dropping malformed kernel message: %v", err)
			continue
		}

		// INTERRUPT is handled inline and never reaches the Dispatcher, per
		// spec.md §4.3's footnote and the teacher's Connection.ReadOp.
		if req.Opcode == OpInterrupt {
			if in, err := fetch[InterruptIn](req.args); err == nil {
				s.HandleInterrupt(in.Unique)
			}
			continue
		}

		reqCtx, cancel := context.WithCancel(ctx)
		s.beginOp(req.Unique, cancel)

		s.disp.Dispatch(reqCtx, req)

		s.endOp(req.Unique)
	}
}

func (s *Session) beginOp(unique uint64, cancel context.CancelFunc) {
	s.mu.Lock()
	s.inFlight[unique] = cancel
	s.mu.Unlock()
}

func (s *Session) endOp(unique uint64) {
	s.mu.Lock()
	if cancel, ok := s.inFlight[unique]; ok {
		cancel()
		delete(s.inFlight, unique)
	}
	s.mu.Unlock()
}

// HandleInterrupt cancels the context associated with the in-flight request
// named by fuseID, if any. It is the Session's response to an INTERRUPT
// opcode, mirroring the teacher's Connection.handleInterrupt.
func (s *Session) HandleInterrupt(fuseID uint64) {
	s.mu.Lock()
	cancel, ok := s.inFlight[fuseID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
