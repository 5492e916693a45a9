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

import "context"

// dispatchInit performs the session handshake: validate the kernel's
// protocol version, give the Implementer's Init hook a chance to veto, then
// negotiate flags and reply. The negotiated parameters (max write size,
// which capability flags survive) are a property of the Session/MountConfig;
// the hook only gets a yes/no say (spec.md §4.2, §4.4).
func (d *Dispatcher) dispatchInit(ctx context.Context, req *Request) {
	in, err := fetch[InitIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}

	if (Protocol{Major: in.Major, Minor: in.Minor}).LT(Protocol{Major: ProtoVersionMinMajor, Minor: ProtoVersionMinMinor}) ||
		in.Major > ProtoVersionMaxMajor {
		d.replyErrno(req, EPROTO)
		return
	}

	// Downgrade to the kernel's version if it is older than ours; the reply
	// carries the negotiated pair and the kernel takes the minimum.
	d.protocol = Protocol{Major: ProtoVersionMaxMajor, Minor: ProtoVersionMaxMinor}
	if (Protocol{Major: in.Major, Minor: in.Minor}).LT(d.protocol) {
		d.protocol = Protocol{Major: in.Major, Minor: in.Minor}
	}

	if err := d.impl.Init(ctx, req); err != nil {
		d.replyErrno(req, err)
		return
	}
	d.initialized = true

	wantFlags := InitFlags(in.Flags) & ImplementationSupportedFlags
	if d.cfg != nil {
		if d.cfg.DisableWritebackCaching {
			wantFlags &^= InitWritebackCache
		}
		if !d.cfg.EnableSymlinkCaching {
			wantFlags &^= InitCacheSymlinks
		}
		if !d.cfg.EnableNoOpenSupport {
			wantFlags &^= InitNoOpenSupport
		}
		if !d.cfg.EnableNoOpendirSupport {
			wantFlags &^= InitNoOpendirSupport
		}
		if !d.cfg.EnableReaddirplus {
			wantFlags &^= InitDoReaddirplus
		}
		if !d.cfg.EnableAutoReaddirplus {
			wantFlags &^= InitReaddirplusAuto
		}
		if !d.cfg.EnableParallelDirOps {
			wantFlags &^= InitParallelDirOps
		}
		if !d.cfg.EnableAtomicTrunc {
			wantFlags &^= InitAtomicTrunc
		}
	}

	cfg := d.cfg
	if cfg == nil {
		cfg = &MountConfig{}
	}
	maxWrite := cfg.maxWriteSize()

	out := InitOut{
		Major:               d.protocol.Major,
		Minor:               d.protocol.Minor,
		MaxReadahead:        in.MaxReadahead,
		MaxBackground:       64,
		CongestionThreshold: 48,
		MaxWrite:            maxWrite,
		TimeGran:            1,
	}
	out.Flags = uint32(wantFlags)
	if wantFlags&InitMaxPages != 0 {
		// Kernel 4.20 raises the per-request page cap from 32 to 256.
		out.MaxPages = 256
	}

	reply := newReplyInit(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	reply.Init(out)
}

func (d *Dispatcher) dispatchLookup(ctx context.Context, req *Request) {
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEntry(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Lookup(ctx, req, req.NodeID, name, reply)
}

func (d *Dispatcher) dispatchForget(ctx context.Context, req *Request) {
	type forgetIn struct{ Nlookup uint64 }
	in, err := fetch[forgetIn](req.args)
	if err != nil {
		return
	}
	d.impl.Forget(ctx, req, req.NodeID, in.Nlookup)
}

func (d *Dispatcher) dispatchBatchForget(ctx context.Context, req *Request) {
	type batchForgetIn struct {
		Count   uint32
		Padding uint32
	}
	hdr, err := fetch[batchForgetIn](req.args)
	if err != nil {
		return
	}
	entries := make([]ForgetEntry, 0, hdr.Count)
	for i := uint32(0); i < hdr.Count; i++ {
		e, err := fetch[ForgetEntry](req.args)
		if err != nil {
			break
		}
		entries = append(entries, *e)
	}
	d.impl.BatchForget(ctx, req, entries)
}

func (d *Dispatcher) dispatchGetattr(ctx context.Context, req *Request) {
	in, err := fetch[GetattrIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyAttr(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.GetAttr(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchSetattr(ctx context.Context, req *Request) {
	in, err := fetch[SetattrIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyAttr(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.SetAttr(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchReadlink(ctx context.Context, req *Request) {
	reply := newReplyData(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Readlink(ctx, req, req.NodeID, reply)
}

func (d *Dispatcher) dispatchMknod(ctx context.Context, req *Request) {
	in, err := fetch[MknodIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEntry(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Mknod(ctx, req, req.NodeID, name, *in, reply)
}

func (d *Dispatcher) dispatchMkdir(ctx context.Context, req *Request) {
	in, err := fetch[MkdirIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEntry(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Mkdir(ctx, req, req.NodeID, name, *in, reply)
}

func (d *Dispatcher) dispatchUnlink(ctx context.Context, req *Request) {
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Unlink(ctx, req, req.NodeID, name, reply)
}

func (d *Dispatcher) dispatchRmdir(ctx context.Context, req *Request) {
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Rmdir(ctx, req, req.NodeID, name, reply)
}

func (d *Dispatcher) dispatchSymlink(ctx context.Context, req *Request) {
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	target, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEntry(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Symlink(ctx, req, req.NodeID, name, target, reply)
}

func (d *Dispatcher) dispatchRename(ctx context.Context, req *Request, v2 bool) {
	var newDir uint64
	var flags uint32
	if v2 {
		in, err := fetch[Rename2In](req.args)
		if err != nil {
			d.replyErrno(req, EIO)
			return
		}
		newDir = in.Newdir
		flags = uint32(in.Flags)
	} else {
		in, err := fetch[RenameIn](req.args)
		if err != nil {
			d.replyErrno(req, EIO)
			return
		}
		newDir = in.Newdir
	}

	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	newName, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Rename(ctx, req, req.NodeID, name, newDir, newName, flags, reply)
}

func (d *Dispatcher) dispatchLink(ctx context.Context, req *Request) {
	in, err := fetch[LinkIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	newName, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEntry(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Link(ctx, req, in.Oldnodeid, req.NodeID, newName, reply)
}

func (d *Dispatcher) dispatchOpen(ctx context.Context, req *Request, dir bool) {
	in, err := fetch[OpenIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyOpen(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	if dir {
		d.impl.Opendir(ctx, req, req.NodeID, *in, reply)
	} else {
		d.impl.Open(ctx, req, req.NodeID, *in, reply)
	}
}

func (d *Dispatcher) dispatchRead(ctx context.Context, req *Request) {
	in, err := fetch[ReadIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyData(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Read(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchWrite(ctx context.Context, req *Request) {
	in, err := fetch[WriteIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	data := req.args.fetchRest()
	reply := newReplyWrite(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Write(ctx, req, req.NodeID, *in, data, reply)
}

func (d *Dispatcher) dispatchFlush(ctx context.Context, req *Request) {
	type flushIn struct {
		Fh        uint64
		Unused    uint32
		Padding   uint32
		LockOwner uint64
	}
	in, err := fetch[flushIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Flush(ctx, req, req.NodeID, in.Fh, in.LockOwner, reply)
}

func (d *Dispatcher) dispatchRelease(ctx context.Context, req *Request, dir bool) {
	in, err := fetch[ReleaseIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	if dir {
		d.impl.Releasedir(ctx, req, req.NodeID, *in, reply)
	} else {
		d.impl.Release(ctx, req, req.NodeID, *in, reply)
	}
}

func (d *Dispatcher) dispatchFsync(ctx context.Context, req *Request, dir bool) {
	in, err := fetch[FsyncIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	if dir {
		d.impl.Fsyncdir(ctx, req, req.NodeID, *in, reply)
	} else {
		d.impl.Fsync(ctx, req, req.NodeID, *in, reply)
	}
}

func (d *Dispatcher) dispatchReaddir(ctx context.Context, req *Request, plus bool) {
	in, err := fetch[ReadIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyDirectory(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog, int(in.Size))
	defer reply.finalize()
	if plus {
		d.impl.Readdirplus(ctx, req, req.NodeID, *in, reply)
	} else {
		d.impl.Readdir(ctx, req, req.NodeID, *in, reply)
	}
}

func (d *Dispatcher) dispatchStatfs(ctx context.Context, req *Request) {
	reply := newReplyStatFs(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Statfs(ctx, req, req.NodeID, reply)
}

func (d *Dispatcher) dispatchSetxattr(ctx context.Context, req *Request) {
	in, err := fetch[SetxattrIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	value, err := req.args.fetchN(int(in.Size))
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Setxattr(ctx, req, req.NodeID, *in, name, value, reply)
}

func (d *Dispatcher) dispatchGetxattr(ctx context.Context, req *Request, list bool) {
	in, err := fetch[GetxattrIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	var name string
	if !list {
		name, err = req.args.fetchString()
		if err != nil {
			d.replyErrno(req, EIO)
			return
		}
	}
	reply := newReplyXAttr(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	if list {
		d.impl.Listxattr(ctx, req, req.NodeID, *in, reply)
	} else {
		d.impl.Getxattr(ctx, req, req.NodeID, *in, name, reply)
	}
}

func (d *Dispatcher) dispatchRemovexattr(ctx context.Context, req *Request) {
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Removexattr(ctx, req, req.NodeID, name, reply)
}

func (d *Dispatcher) dispatchAccess(ctx context.Context, req *Request) {
	in, err := fetch[AccessIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Access(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchCreate(ctx context.Context, req *Request) {
	in, err := fetch[CreateIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	name, err := req.args.fetchString()
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyCreate(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Create(ctx, req, req.NodeID, name, *in, reply)
}

func (d *Dispatcher) dispatchGetlk(ctx context.Context, req *Request) {
	in, err := fetch[LkIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyLock(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.GetLk(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchSetlk(ctx context.Context, req *Request, sleep bool) {
	in, err := fetch[LkIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.SetLk(ctx, req, req.NodeID, *in, sleep, reply)
}

func (d *Dispatcher) dispatchBmap(ctx context.Context, req *Request) {
	in, err := fetch[BmapIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyBmap(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Bmap(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchFallocate(ctx context.Context, req *Request) {
	in, err := fetch[FallocateIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyEmpty(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Fallocate(ctx, req, req.NodeID, *in, reply)
}

func (d *Dispatcher) dispatchLseek(ctx context.Context, req *Request) {
	in, err := fetch[LseekIn](req.args)
	if err != nil {
		d.replyErrno(req, EIO)
		return
	}
	reply := newReplyLseek(req.Unique, req.Opcode, d.sender, d.debugLog, d.errLog)
	defer reply.finalize()
	d.impl.Lseek(ctx, req, req.NodeID, *in, reply)
}
