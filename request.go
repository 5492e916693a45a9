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
	"unsafe"

	"github.com/fuselib/gofuse/internal/buffer"
)

// Request is one parsed, not-yet-dispatched kernel message: its fixed
// header plus a cursor over the opcode-specific argument bytes that follow
// it. Grounded on the teacher's Connection.ReadOp / convertInMessage, which
// performs the equivalent header-then-cursor split inline; gofuse names the
// intermediate value so Dispatcher and Reply can both refer to it.
type Request struct {
	Unique uint64
	Opcode Opcode
	NodeID uint64
	Uid    uint32
	Gid    uint32
	Pid    uint32

	args *argCursor
}

// parseRequest interprets msg, which must already have been populated by a
// successful Channel.Receive, as a Request. It fails if the message is
// shorter than its own declared header, or if the header's Len field
// disagrees with the number of bytes the kernel actually delivered - either
// way a kernel/library ABI mismatch that spec.md §7 maps to EIO.
func parseRequest(msg *buffer.InMessage) (*Request, error) {
	hdrBytes := msg.HeaderBytes()
	if len(hdrBytes) != InHeaderSize {
		return nil, protocolError("short in-header")
	}
	h := (*InHeader)(unsafe.Pointer(&hdrBytes[0]))

	if int(h.Len) != InHeaderSize+msg.Len() {
		return nil, protocolError("header length disagrees with message size")
	}

	r := &Request{
		Unique: h.Unique,
		Opcode: Opcode(h.Opcode),
		NodeID: h.Nodeid,
		Uid:    h.Uid,
		Gid:    h.Gid,
		Pid:    h.Pid,
		args:   newArgCursor(msg.ConsumeBytes()),
	}
	return r, nil
}

// Remaining reports how many unconsumed argument bytes this request carries.
// Handlers that read a fixed-size argument struct and then some variable
// trailing data (SETXATTR, WRITE) use this to size the trailing slice.
func (r *Request) Remaining() int {
	return r.args.remaining()
}
