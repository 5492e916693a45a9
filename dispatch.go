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
)

// Implementer is implemented by file systems served over a Session. One
// method per reply-bearing opcode family from spec.md §4.3's routing table;
// fuseutil.NotImplementedImplementer supplies a default for every method
// (ENOSYS for most; see its doc for the exceptions) so a caller can embed it
// and override only what it cares about, exactly as the
// teacher's NotImplementedFileSystem does for fuseops.FileSystem.
type Implementer interface {
	// Init is called once, during the INIT handshake, after the kernel's
	// protocol version has been validated and recorded but before the
	// session is marked initialized. Returning a non-nil error aborts the
	// handshake: the error's errno is sent as the INIT reply and the session
	// never becomes initialized.
	Init(ctx context.Context, req *Request) error

	Lookup(ctx context.Context, req *Request, parent uint64, name string, reply *ReplyEntry)
	Forget(ctx context.Context, req *Request, ino uint64, nlookup uint64)
	BatchForget(ctx context.Context, req *Request, entries []ForgetEntry)
	GetAttr(ctx context.Context, req *Request, ino uint64, in GetattrIn, reply *ReplyAttr)
	SetAttr(ctx context.Context, req *Request, ino uint64, in SetattrIn, reply *ReplyAttr)
	Readlink(ctx context.Context, req *Request, ino uint64, reply *ReplyData)
	Mknod(ctx context.Context, req *Request, parent uint64, name string, in MknodIn, reply *ReplyEntry)
	Mkdir(ctx context.Context, req *Request, parent uint64, name string, in MkdirIn, reply *ReplyEntry)
	Unlink(ctx context.Context, req *Request, parent uint64, name string, reply *ReplyEmpty)
	Rmdir(ctx context.Context, req *Request, parent uint64, name string, reply *ReplyEmpty)
	Symlink(ctx context.Context, req *Request, parent uint64, name, target string, reply *ReplyEntry)
	Rename(ctx context.Context, req *Request, parent uint64, name string, newParent uint64, newName string, flags uint32, reply *ReplyEmpty)
	Link(ctx context.Context, req *Request, ino uint64, newParent uint64, newName string, reply *ReplyEntry)
	Open(ctx context.Context, req *Request, ino uint64, in OpenIn, reply *ReplyOpen)
	Read(ctx context.Context, req *Request, ino uint64, in ReadIn, reply *ReplyData)
	Write(ctx context.Context, req *Request, ino uint64, in WriteIn, data []byte, reply *ReplyWrite)
	Flush(ctx context.Context, req *Request, ino uint64, fh uint64, lockOwner uint64, reply *ReplyEmpty)
	Release(ctx context.Context, req *Request, ino uint64, in ReleaseIn, reply *ReplyEmpty)
	Fsync(ctx context.Context, req *Request, ino uint64, in FsyncIn, reply *ReplyEmpty)
	Opendir(ctx context.Context, req *Request, ino uint64, in OpenIn, reply *ReplyOpen)
	Readdir(ctx context.Context, req *Request, ino uint64, in ReadIn, reply *ReplyDirectory)
	Readdirplus(ctx context.Context, req *Request, ino uint64, in ReadIn, reply *ReplyDirectory)
	Releasedir(ctx context.Context, req *Request, ino uint64, in ReleaseIn, reply *ReplyEmpty)
	Fsyncdir(ctx context.Context, req *Request, ino uint64, in FsyncIn, reply *ReplyEmpty)
	Statfs(ctx context.Context, req *Request, ino uint64, reply *ReplyStatFs)
	Setxattr(ctx context.Context, req *Request, ino uint64, in SetxattrIn, name string, value []byte, reply *ReplyEmpty)
	Getxattr(ctx context.Context, req *Request, ino uint64, in GetxattrIn, name string, reply *ReplyXAttr)
	Listxattr(ctx context.Context, req *Request, ino uint64, in GetxattrIn, reply *ReplyXAttr)
	Removexattr(ctx context.Context, req *Request, ino uint64, name string, reply *ReplyEmpty)
	Access(ctx context.Context, req *Request, ino uint64, in AccessIn, reply *ReplyEmpty)
	Create(ctx context.Context, req *Request, parent uint64, name string, in CreateIn, reply *ReplyCreate)
	GetLk(ctx context.Context, req *Request, ino uint64, in LkIn, reply *ReplyLock)
	SetLk(ctx context.Context, req *Request, ino uint64, in LkIn, sleep bool, reply *ReplyEmpty)
	Bmap(ctx context.Context, req *Request, ino uint64, in BmapIn, reply *ReplyBmap)
	Fallocate(ctx context.Context, req *Request, ino uint64, in FallocateIn, reply *ReplyEmpty)
	Lseek(ctx context.Context, req *Request, ino uint64, in LseekIn, reply *ReplyLseek)
	Destroy(ctx context.Context, req *Request)
}

// ForgetEntry is one {ino, nlookup} pair from a BATCH_FORGET request.
type ForgetEntry struct {
	Ino     uint64
	Nlookup uint64
}

// Dispatcher owns the opcode routing table: it interprets a parsed Request's
// argument bytes into typed arguments, constructs the matching Reply
// variant, defers the exactly-once EIO fallback, and calls the Implementer.
// Grounded on the shape of the teacher's per-op kernelResponse methods,
// generalized from one struct-per-opcode into one function-per-opcode over
// the shared Request/Reply types (spec.md §4.3, §4.5).
type Dispatcher struct {
	impl     Implementer
	sender   Sender
	cfg      *MountConfig
	errLog   *errorLogger
	debugLog *debugLogger

	protocol    Protocol
	initialized bool
	destroyed   bool
}

// NewDispatcher returns a Dispatcher that routes to impl and replies via
// sender, negotiating the handshake according to cfg.
func NewDispatcher(impl Implementer, sender Sender, cfg *MountConfig, debugLog *debugLogger, errLog *errorLogger) *Dispatcher {
	return &Dispatcher{impl: impl, sender: sender, cfg: cfg, debugLog: debugLog, errLog: errLog}
}

// Dispatch interprets and handles one request. It never blocks beyond
// whatever the Implementer method itself blocks for.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) {
	d.debugLog.requestf(req.Unique, req.Opcode, "<- %s", req.Opcode)

	// Pre-init and post-destroy gating: every opcode except INIT is EIO
	// before the handshake completes, and every opcode after DESTROY is EIO
	// too, matching the teacher's connection state machine (spec.md §4.1,
	// §7). Gating runs before opcode recognition, so an unknown opcode
	// arriving outside the initialized window gets EIO rather than ENOSYS.
	if req.Opcode != OpInit && !d.initialized {
		d.replyErrno(req, EIO)
		return
	}
	if d.destroyed {
		d.replyErrno(req, EIO)
		return
	}

	ctx, report := traceRequest(ctx, req.Opcode, req.Unique)
	defer report(nil)

	switch req.Opcode {
	case OpInit:
		d.dispatchInit(ctx, req)
	case OpDestroy:
		d.destroyed = true
		d.impl.Destroy(ctx, req)
		newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog).Ok()
	case OpLookup:
		d.dispatchLookup(ctx, req)
	case OpForget:
		d.dispatchForget(ctx, req)
	case OpBatchForget:
		d.dispatchBatchForget(ctx, req)
	case OpGetattr:
		d.dispatchGetattr(ctx, req)
	case OpSetattr:
		d.dispatchSetattr(ctx, req)
	case OpReadlink:
		d.dispatchReadlink(ctx, req)
	case OpMknod:
		d.dispatchMknod(ctx, req)
	case OpMkdir:
		d.dispatchMkdir(ctx, req)
	case OpUnlink:
		d.dispatchUnlink(ctx, req)
	case OpRmdir:
		d.dispatchRmdir(ctx, req)
	case OpSymlink:
		d.dispatchSymlink(ctx, req)
	case OpRename:
		d.dispatchRename(ctx, req, false)
	case OpRename2:
		d.dispatchRename(ctx, req, true)
	case OpLink:
		d.dispatchLink(ctx, req)
	case OpOpen:
		d.dispatchOpen(ctx, req, false)
	case OpOpendir:
		d.dispatchOpen(ctx, req, true)
	case OpRead:
		d.dispatchRead(ctx, req)
	case OpWrite:
		d.dispatchWrite(ctx, req)
	case OpFlush:
		d.dispatchFlush(ctx, req)
	case OpRelease:
		d.dispatchRelease(ctx, req, false)
	case OpReleasedir:
		d.dispatchRelease(ctx, req, true)
	case OpFsync:
		d.dispatchFsync(ctx, req, false)
	case OpFsyncdir:
		d.dispatchFsync(ctx, req, true)
	case OpReaddir:
		d.dispatchReaddir(ctx, req, false)
	case OpReaddirplus:
		d.dispatchReaddir(ctx, req, true)
	case OpStatfs:
		d.dispatchStatfs(ctx, req)
	case OpSetxattr:
		d.dispatchSetxattr(ctx, req)
	case OpGetxattr:
		d.dispatchGetxattr(ctx, req, false)
	case OpListxattr:
		d.dispatchGetxattr(ctx, req, true)
	case OpRemovexattr:
		d.dispatchRemovexattr(ctx, req)
	case OpAccess:
		d.dispatchAccess(ctx, req)
	case OpCreate:
		d.dispatchCreate(ctx, req)
	case OpGetlk:
		d.dispatchGetlk(ctx, req)
	case OpSetlk:
		d.dispatchSetlk(ctx, req, false)
	case OpSetlkw:
		d.dispatchSetlk(ctx, req, true)
	case OpBmap:
		d.dispatchBmap(ctx, req)
	case OpFallocate:
		d.dispatchFallocate(ctx, req)
	case OpLseek:
		d.dispatchLseek(ctx, req)
	default:
		// INTERRUPT is normally intercepted by the Session's cancellation
		// table before reaching the Dispatcher; if one shows up here anyway
		// it gets the same answer as IOCTL, POLL, NOTIFY_REPLY, CUSE_INIT,
		// the macOS-only opcodes, and any opcode newer than this build knows
		// about: ENOSYS.
		d.replyErrno(req, ENOSYS)
	}
}

func (d *Dispatcher) replyErrno(req *Request, errno error) {
	newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog).Error(errno)
}
