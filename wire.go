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

import "unsafe"

// Protocol is a FUSE kernel ABI version. The session negotiates the
// intersection of the kernel's and the implementation's protocol during the
// init handshake (see dispatchInit in dispatch_handlers.go).
type Protocol struct {
	Major uint32
	Minor uint32
}

// LT reports whether p is strictly older than other.
func (p Protocol) LT(other Protocol) bool {
	return p.Major < other.Major || (p.Major == other.Major && p.Minor < other.Minor)
}

// The range of protocol versions this implementation supports. During init
// (dispatch_handlers.go) a kernel older than the minimum, or with a newer
// major, is rejected with EPROTO; a newer minor is answered with
// ProtoVersionMaxMinor.
const (
	ProtoVersionMinMajor = 7
	ProtoVersionMinMinor = 6

	ProtoVersionMaxMajor = 7
	ProtoVersionMaxMinor = 26
)

// Opcode identifies the kind of a request sent by the kernel. This is a
// closed enumeration; an opcode this implementation does not recognize is
// answered with ENOSYS (see dispatch.go).
type Opcode uint32

const (
	OpLookup      Opcode = 1
	OpForget      Opcode = 2 // No reply
	OpGetattr     Opcode = 3
	OpSetattr     Opcode = 4
	OpReadlink    Opcode = 5
	OpSymlink     Opcode = 6
	OpMknod       Opcode = 8
	OpMkdir       Opcode = 9
	OpUnlink      Opcode = 10
	OpRmdir       Opcode = 11
	OpRename      Opcode = 12
	OpLink        Opcode = 13
	OpOpen        Opcode = 14
	OpRead        Opcode = 15
	OpWrite       Opcode = 16
	OpStatfs      Opcode = 17
	OpRelease     Opcode = 18
	OpFsync       Opcode = 20
	OpSetxattr    Opcode = 21
	OpGetxattr    Opcode = 22
	OpListxattr   Opcode = 23
	OpRemovexattr Opcode = 24
	OpFlush       Opcode = 25
	OpInit        Opcode = 26
	OpOpendir     Opcode = 27
	OpReaddir     Opcode = 28
	OpReleasedir  Opcode = 29
	OpFsyncdir    Opcode = 30
	OpGetlk       Opcode = 31
	OpSetlk       Opcode = 32
	OpSetlkw      Opcode = 33
	OpAccess      Opcode = 34
	OpCreate      Opcode = 35
	OpInterrupt   Opcode = 36
	OpBmap        Opcode = 37
	OpDestroy     Opcode = 38
	OpIoctl       Opcode = 39
	OpPoll        Opcode = 40
	OpNotifyReply Opcode = 41
	OpBatchForget Opcode = 42
	OpFallocate   Opcode = 43
	OpReaddirplus Opcode = 44
	OpRename2     Opcode = 45
	OpLseek       Opcode = 46

	// macOS-only extensions (plus CUSE_INIT). Conditional additions per
	// spec.md §1; the Dispatcher has no case for any of them, so they are
	// answered with ENOSYS on every build.
	OpSetvolname  Opcode = 61
	OpGetxtimes   Opcode = 62
	OpExchange    Opcode = 63
	OpCuseInit    Opcode = 4096
)

func (o Opcode) String() string {
	switch o {
	case OpLookup:
		return "LOOKUP"
	case OpForget:
		return "FORGET"
	case OpGetattr:
		return "GETATTR"
	case OpSetattr:
		return "SETATTR"
	case OpReadlink:
		return "READLINK"
	case OpSymlink:
		return "SYMLINK"
	case OpMknod:
		return "MKNOD"
	case OpMkdir:
		return "MKDIR"
	case OpUnlink:
		return "UNLINK"
	case OpRmdir:
		return "RMDIR"
	case OpRename, OpRename2:
		return "RENAME"
	case OpLink:
		return "LINK"
	case OpOpen:
		return "OPEN"
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpStatfs:
		return "STATFS"
	case OpRelease:
		return "RELEASE"
	case OpFsync:
		return "FSYNC"
	case OpSetxattr:
		return "SETXATTR"
	case OpGetxattr:
		return "GETXATTR"
	case OpListxattr:
		return "LISTXATTR"
	case OpRemovexattr:
		return "REMOVEXATTR"
	case OpFlush:
		return "FLUSH"
	case OpInit:
		return "INIT"
	case OpOpendir:
		return "OPENDIR"
	case OpReaddir:
		return "READDIR"
	case OpReleasedir:
		return "RELEASEDIR"
	case OpFsyncdir:
		return "FSYNCDIR"
	case OpGetlk:
		return "GETLK"
	case OpSetlk:
		return "SETLK"
	case OpSetlkw:
		return "SETLKW"
	case OpAccess:
		return "ACCESS"
	case OpCreate:
		return "CREATE"
	case OpInterrupt:
		return "INTERRUPT"
	case OpBmap:
		return "BMAP"
	case OpDestroy:
		return "DESTROY"
	case OpIoctl:
		return "IOCTL"
	case OpPoll:
		return "POLL"
	case OpNotifyReply:
		return "NOTIFY_REPLY"
	case OpBatchForget:
		return "BATCH_FORGET"
	case OpFallocate:
		return "FALLOCATE"
	case OpReaddirplus:
		return "READDIRPLUS"
	case OpLseek:
		return "LSEEK"
	default:
		return "UNKNOWN"
	}
}

// InitFlags are the FUSE_* capability bits exchanged during init. The
// negotiated set sent back to the kernel is (kernel flags) & (flags this
// implementation supports), minus any flag the MountConfig leaves disabled;
// see dispatchInit in dispatch_handlers.go.
type InitFlags uint32

const (
	InitAsyncRead         InitFlags = 1 << 0
	InitPosixLocks        InitFlags = 1 << 1
	InitFileOps           InitFlags = 1 << 2
	InitAtomicOTrunc      InitFlags = 1 << 3
	InitExportSupport     InitFlags = 1 << 4
	InitBigWrites         InitFlags = 1 << 5
	InitDontMask          InitFlags = 1 << 6
	InitSpliceWrite       InitFlags = 1 << 7
	InitSpliceMove        InitFlags = 1 << 8
	InitSpliceRead        InitFlags = 1 << 9
	InitFlockLocks        InitFlags = 1 << 10
	InitHasIoctlDir       InitFlags = 1 << 11
	InitAutoInvalData     InitFlags = 1 << 12
	InitDoReaddirplus     InitFlags = 1 << 13
	InitReaddirplusAuto   InitFlags = 1 << 14
	InitAsyncDIO          InitFlags = 1 << 15
	InitWritebackCache    InitFlags = 1 << 16
	InitNoOpenSupport     InitFlags = 1 << 17
	InitParallelDirOps    InitFlags = 1 << 18
	InitHandleKillpriv    InitFlags = 1 << 19
	InitPosixACL          InitFlags = 1 << 20
	InitAbortError        InitFlags = 1 << 21
	InitMaxPages          InitFlags = 1 << 22
	InitCacheSymlinks     InitFlags = 1 << 23
	InitNoOpendirSupport  InitFlags = 1 << 24
	InitExplicitInvalData InitFlags = 1 << 25
	InitAtomicTrunc       InitFlags = 1 << 31 // implementation-reserved bit
)

// ImplementationSupportedFlags is the set of init flags this implementation
// understands. It is ANDed with the kernel's advertised flags in
// dispatchInit's handshake (dispatch_handlers.go), per spec.md §4.6.
const ImplementationSupportedFlags = InitAsyncRead |
	InitBigWrites |
	InitMaxPages |
	InitWritebackCache |
	InitCacheSymlinks |
	InitNoOpenSupport |
	InitNoOpendirSupport |
	InitParallelDirOps |
	InitAtomicTrunc |
	InitDoReaddirplus |
	InitReaddirplusAuto

// FUSE read-ahead is capped to avoid the kernel asking for unreasonably
// large requests; see connection.go's historical rationale in the teacher,
// reproduced here because the kernel behavior it documents is unchanged.
const MaxReadahead = 1 << 20

// InHeader is the fixed 40-byte prefix of every message sent by the kernel.
// Field order and width are bit-exact with the kernel ABI; see spec.md §6.
type InHeader struct {
	Len     uint32
	Opcode  uint32
	Unique  uint64
	Nodeid  uint64
	Uid     uint32
	Gid     uint32
	Pid     uint32
	Padding uint32
}

const InHeaderSize = int(unsafe.Sizeof(InHeader{}))

// OutHeader is the fixed 16-byte prefix of every reply. Error is zero on
// success or a negative errno on failure.
type OutHeader struct {
	Len    uint32
	Error  int32
	Unique uint64
}

const OutHeaderSize = int(unsafe.Sizeof(OutHeader{}))

func init() {
	if InHeaderSize != 40 {
		panic("InHeader is not 40 bytes")
	}
	if OutHeaderSize != 16 {
		panic("OutHeader is not 16 bytes")
	}
}

// EntryOut carries a looked-up or newly-created child inode back to the
// kernel (LOOKUP, MKDIR, SYMLINK, LINK, MKNOD, the entry half of CREATE).
type EntryOut struct {
	Nodeid         uint64
	Generation     uint64
	EntryValid     uint64
	AttrValid      uint64
	EntryValidNsec uint32
	AttrValidNsec  uint32
	Attr           Attr
}

// AttrOut carries inode attributes back to the kernel (GETATTR, SETATTR).
type AttrOut struct {
	AttrValid     uint64
	AttrValidNsec uint32
	Dummy         uint32
	Attr          Attr
}

// Attr is the on-the-wire inode attribute record. Type and permission bits
// are packed into a single Mode field, per spec.md §3.
type Attr struct {
	Ino       uint64
	Size      uint64
	Blocks    uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	Nlink     uint32
	Uid       uint32
	Gid       uint32
	Rdev      uint32
	BlkSize   uint32
	Padding   uint32
}

// OpenOut carries the file/directory handle minted by OPEN/OPENDIR/CREATE.
type OpenOut struct {
	Fh        uint64
	OpenFlags uint32
	Padding   uint32
}

// WriteOut carries the number of bytes accepted by a WRITE.
type WriteOut struct {
	Size    uint32
	Padding uint32
}

// StatfsOut carries filesystem-wide counters for STATFS.
type StatfsOut struct {
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Bsize   uint32
	Namelen uint32
	Frsize  uint32
	Padding uint32
	Spare   [6]uint32
}

// GetattrIn carries the optional file handle hint for GETATTR.
type GetattrIn struct {
	GetattrFlags uint32
	Dummy        uint32
	Fh           uint64
}

const (
	GetattrFh FUSEGetattrFlag = 1 << 0
)

type FUSEGetattrFlag uint32

// SetattrIn's Valid mask selects which fields the kernel actually wants
// changed; unset fields must be left untouched by the implementer, per
// spec.md §4.4's SETATTR contract.
type SetattrIn struct {
	Valid     uint32
	Padding   uint32
	Fh        uint64
	Size      uint64
	LockOwner uint64
	Atime     uint64
	Mtime     uint64
	Unused2   uint64
	AtimeNsec uint32
	MtimeNsec uint32
	Unused3   uint32
	Mode      uint32
	Unused4   uint32
	Uid       uint32
	Gid       uint32
	Unused5   uint32
}

const (
	FattrMode      uint32 = 1 << 0
	FattrUid       uint32 = 1 << 1
	FattrGid       uint32 = 1 << 2
	FattrSize      uint32 = 1 << 3
	FattrAtime     uint32 = 1 << 4
	FattrMtime     uint32 = 1 << 5
	FattrFh        uint32 = 1 << 6
	FattrAtimeNow  uint32 = 1 << 7
	FattrMtimeNow  uint32 = 1 << 8
	FattrLockOwner uint32 = 1 << 9
	FattrCtime     uint32 = 1 << 10
)

// MknodIn carries the arguments for MKNOD.
type MknodIn struct {
	Mode    uint32
	Rdev    uint32
	Umask   uint32
	Padding uint32
}

// MkdirIn carries the arguments for MKDIR.
type MkdirIn struct {
	Mode    uint32
	Umask   uint32
}

// RenameIn carries the arguments for RENAME.
type RenameIn struct {
	Newdir uint64
}

// Rename2Flags are the RENAME2-only behavior flags (e.g. RENAME_NOREPLACE,
// RENAME_EXCHANGE); gofuse forwards them verbatim to the implementer.
type Rename2Flags uint32

// Rename2In carries the arguments for RENAME2.
type Rename2In struct {
	Newdir  uint64
	Flags   Rename2Flags
	Padding uint32
}

// LinkIn carries the arguments for LINK.
type LinkIn struct {
	Oldnodeid uint64
}

// OpenIn carries the open(2) flags for OPEN/OPENDIR.
type OpenIn struct {
	Flags  uint32
	Unused uint32
}

// ReadIn carries the arguments for READ/READDIR/READDIRPLUS.
type ReadIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	ReadFlags  uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

// WriteIn carries the arguments for WRITE.
type WriteIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	WriteFlags uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

const (
	WriteCache     uint32 = 1 << 0
	WriteLockOwner uint32 = 1 << 1
)

// ReleaseIn carries the arguments for RELEASE/RELEASEDIR.
type ReleaseIn struct {
	Fh           uint64
	Flags        uint32
	ReleaseFlags uint32
	LockOwner    uint64
}

const ReleaseFlush uint32 = 1 << 0

// FsyncIn carries the arguments for FSYNC/FSYNCDIR.
type FsyncIn struct {
	Fh         uint64
	FsyncFlags uint32
	Padding    uint32
}

const FsyncFdatasync uint32 = 1 << 0

// SetxattrIn carries the fixed-size prefix of SETXATTR (name and value
// follow in the payload).
type SetxattrIn struct {
	Size     uint32
	Flags    uint32
	Position uint32 // macOS only; zero elsewhere
	Padding  uint32
}

// GetxattrIn carries the fixed-size prefix of GETXATTR/LISTXATTR.
type GetxattrIn struct {
	Size     uint32
	Padding  uint32
	Position uint32 // macOS only; zero elsewhere
}

// GetxattrOut carries the required buffer size when the kernel asked with
// size == 0, per spec.md §8's boundary behavior.
type GetxattrOut struct {
	Size    uint32
	Padding uint32
}

// AccessIn carries the requested permission mask for ACCESS.
type AccessIn struct {
	Mask    uint32
	Padding uint32
}

// CreateIn carries the arguments for CREATE.
type CreateIn struct {
	Flags   uint32
	Mode    uint32
	Umask   uint32
	Padding uint32
}

// FileLock mirrors POSIX struct flock for GETLK/SETLK/SETLKW.
type FileLock struct {
	Start uint64
	End   uint64
	Type  uint32
	Pid   uint32
}

// LkIn carries the arguments for GETLK/SETLK/SETLKW.
type LkIn struct {
	Fh      uint64
	Owner   uint64
	Lk      FileLock
	LkFlags uint32
	Padding uint32
}

const LkFlock uint32 = 1 << 0

// LkOut carries the resulting lock state for GETLK.
type LkOut struct {
	Lk FileLock
}

// BmapIn carries the arguments for BMAP.
type BmapIn struct {
	Block     uint64
	Blocksize uint32
	Padding   uint32
}

// BmapOut carries the resulting physical block number for BMAP.
type BmapOut struct {
	Block uint64
}

// InterruptIn names the unique ID of the request to be interrupted.
type InterruptIn struct {
	Unique uint64
}

// FallocateIn carries the arguments for FALLOCATE.
type FallocateIn struct {
	Fh      uint64
	Offset  uint64
	Length  uint64
	Mode    uint32
	Padding uint32
}

// LseekIn/LseekOut implement SEEK_DATA/SEEK_HOLE forwarding for LSEEK.
type LseekIn struct {
	Fh      uint64
	Offset  uint64
	Whence  uint32
	Padding uint32
}

type LseekOut struct {
	Offset uint64
}

// InitIn is the fixed-size prefix of the kernel's INIT request.
type InitIn struct {
	Major        uint32
	Minor        uint32
	MaxReadahead uint32
	Flags        uint32
}

// InitOut is the implementation's reply to INIT. On protocol minors older
// than 23, the trailing fields are omitted from the wire by ReplyInit.Init
// (a shorter variant), per spec.md §4.6.
type InitOut struct {
	Major               uint32
	Minor               uint32
	MaxReadahead        uint32
	Flags               uint32
	MaxBackground       uint16
	CongestionThreshold uint16
	MaxWrite            uint32
	TimeGran            uint32
	MaxPages            uint16
	Padding             uint16
	Reserved            [8]uint32
}

// initOutSize returns the number of bytes of InitOut that should actually be
// written to the wire for the given negotiated minor version.
func initOutSize(minor uint32) uintptr {
	const short = unsafe.Offsetof(InitOut{}.MaxWrite) + 4 // through MaxWrite
	if minor < 23 {
		return short
	}
	return unsafe.Sizeof(InitOut{})
}

// dirent is the on-wire layout of a single packed directory entry, used by
// dirbuf.go. Kept as an unexported mirror of the kernel's fuse_dirent.
type dirent struct {
	Ino     uint64
	Off     uint64
	Namelen uint32
	Type    uint32
}

const direntHeaderSize = int(unsafe.Sizeof(dirent{}))
const direntAlignment = 8
