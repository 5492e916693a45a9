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

	"github.com/fuselib/gofuse/internal/buffer"
)

// MountConfig controls the session that Mount establishes. The zero value
// is a reasonable default for Linux. CLI flag parsing is explicitly out of
// scope for this package (spec.md §1); samples/mount_hello shows how a
// caller wires flags into this struct.
type MountConfig struct {
	// MaxWriteSize bounds the size of a single WRITE payload this session
	// will accept, and sizes the read buffer accordingly (spec.md §4.6,
	// §8 boundary behavior). Zero selects buffer.MaxWriteSize.
	MaxWriteSize uint32

	// OpContext is the parent context.Context for every handler
	// invocation. Defaults to context.Background().
	OpContext context.Context

	// ReadOnly requests that the kernel enforce read-only semantics. Passed
	// through to the Mounter as a mount option.
	ReadOnly bool

	// Options are additional opaque mount option strings forwarded
	// verbatim to the Mounter (spec.md §6).
	Options []string

	// Behavioral opt-ins mirroring the teacher's connection.go flags.
	DisableWritebackCaching bool
	EnableSymlinkCaching    bool
	EnableNoOpenSupport     bool
	EnableNoOpendirSupport  bool
	EnableParallelDirOps    bool
	EnableAtomicTrunc       bool
	EnableReaddirplus       bool
	EnableAutoReaddirplus   bool

	// DebugLogger, when non-nil, receives one line per request and one per
	// reply. ErrorLogger, when non-nil, receives one line per handler
	// error that isn't part of normal operation (spec.md §7). When both
	// are left nil, Mount substitutes loggers that discard everything; see
	// logging.go.
	DebugLogger *debugLogger
	ErrorLogger *errorLogger
}

func (c *MountConfig) maxWriteSize() uint32 {
	if c.MaxWriteSize == 0 {
		return buffer.MaxWriteSize
	}
	return c.MaxWriteSize
}

func (c *MountConfig) opContext() context.Context {
	if c.OpContext == nil {
		return context.Background()
	}
	return c.OpContext
}

// getOptions renders the ReadOnly flag and Options slice into the
// comma-joined option string fusermount expects.
func (c *MountConfig) getOptions() string {
	opts := append([]string{}, c.Options...)
	if c.ReadOnly {
		opts = append(opts, "ro")
	}

	out := ""
	for i, o := range opts {
		if i > 0 {
			out += ","
		}
		out += o
	}
	return out
}
