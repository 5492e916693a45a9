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
	"os"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/fuselib/gofuse/internal/buffer"
)

// Channel owns the raw kernel connection: the open /dev/fuse-equivalent
// descriptor and the mountpoint it was opened for. It knows how to read one
// request at a time and write one reply at a time, retrying the transient
// errors the kernel is known to produce, exactly as the teacher's
// Connection.readMessage/writeOutMessage do; see spec.md §2, §5.
type Channel struct {
	dev        *os.File
	mountpoint string

	// writeMu serializes writes when the platform's writev is not atomic
	// with respect to concurrent writers (the teacher gates this behind a
	// build-specific flag for fuse-t; gofuse always serializes since more
	// than one goroutine may hold a live Reply concurrently).
	writeMu sync.Mutex

	closeOnce sync.Once
}

// NewChannel wraps an already-opened kernel fd for the given mountpoint. dev
// is taken over; closing the Channel closes dev.
func NewChannel(dev *os.File, mountpoint string) *Channel {
	return &Channel{dev: dev, mountpoint: mountpoint}
}

// Mountpoint returns the directory this channel is attached to.
func (c *Channel) Mountpoint() string {
	return c.mountpoint
}

// Receive reads the next raw request into msg, retrying on ENOENT, EINTR
// and EAGAIN, and
// translating ENODEV into io.EOF to signal a clean kernel-initiated
// shutdown, per spec.md §5's read-dispatch loop invariant.
func (c *Channel) Receive(msg *buffer.InMessage) error {
	for {
		err := msg.Init(c.dev)
		if pe, ok := err.(*os.PathError); ok {
			switch pe.Err {
			case syscall.ENODEV:
				return io.EOF
			case syscall.ENOENT, syscall.EINTR, syscall.EAGAIN:
				continue
			}
		}
		return err
	}
}

// Send writes one fully assembled reply to the kernel. When the message
// carries out-of-line payload segments (AppendNoCopy) they are written
// together with the header by a single writev(2); otherwise a plain
// write(2) of the contiguous bytes suffices. Either path is serialized
// against concurrent senders.
func (c *Channel) Send(out *buffer.OutBuffer) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	segs := out.Segments()

	var n int
	var err error
	if len(segs) == 1 {
		n, err = unix.Write(int(c.dev.Fd()), segs[0])
	} else {
		n, err = unix.Writev(int(c.dev.Fd()), segs)
	}
	if err != nil {
		// ENOENT means the kernel already abandoned this request (e.g. it
		// was interrupted); this is routine and not an error worth
		// surfacing to the implementer, matching the teacher's handling in
		// its reply path.
		if err == syscall.ENOENT {
			return nil
		}
		return errors.Wrap(err, "fuse: write reply")
	}
	if n != out.Len() {
		return errors.Errorf("fuse: short write of reply: wrote %d of %d bytes", n, out.Len())
	}
	return nil
}

// Close closes the kernel descriptor. It does not unmount; callers that
// mounted via a Mounter should call Mounter.Unmount separately, matching the
// teacher's separation of connection teardown from mount teardown.
func (c *Channel) Close() (err error) {
	c.closeOnce.Do(func() {
		err = c.dev.Close()
	})
	return
}
