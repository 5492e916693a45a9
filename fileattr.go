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

import "time"

// FileType enumerates the kernel's S_IFMT file-type nibble. This is a
// closed set; see spec.md §3.
type FileType uint32

const (
	FileTypeNamedPipe FileType = iota + 1
	FileTypeCharDevice
	FileTypeBlockDevice
	FileTypeDirectory
	FileTypeRegular
	FileTypeSymlink
	FileTypeSocket
)

// modeTypeBits maps a FileType to the S_IFMT bits packed into the high
// nibble of Attr.Mode / dirent.Type, per spec.md §3 ("type+perm are encoded
// as a single 32-bit mode on the wire").
var modeTypeBits = map[FileType]uint32{
	FileTypeNamedPipe:   0o010000,
	FileTypeCharDevice:  0o020000,
	FileTypeDirectory:   0o040000,
	FileTypeBlockDevice: 0o060000,
	FileTypeRegular:     0o100000,
	FileTypeSymlink:     0o120000,
	FileTypeSocket:      0o140000,
}

var modeBitsType = func() map[uint32]FileType {
	out := make(map[uint32]FileType, len(modeTypeBits))
	for t, bits := range modeTypeBits {
		out[bits] = t
	}
	return out
}()

// packMode combines a file type and POSIX permission bits (low 12 bits) into
// the single mode value the kernel expects on the wire.
func packMode(t FileType, perm uint32) uint32 {
	return modeTypeBits[t] | (perm & 0o7777)
}

// unpackMode splits a wire mode value back into its file type and
// permission bits. This is the inverse of packMode: for every FileType
// value, packMode(t, perm) via unpackMode recovers exactly (t, perm).
func unpackMode(mode uint32) (FileType, uint32) {
	return modeBitsType[mode&0o170000], mode & 0o7777
}

// direntType returns the dirent.Type nibble (mode >> 12) for t, per
// spec.md §4.5's readdir encoding rule.
func direntType(t FileType) uint32 {
	return modeTypeBits[t] >> 12
}

// FileAttr is the implementer-facing metadata record backing Entry, Attr and
// Create replies (spec.md §3).
type FileAttr struct {
	Inode  uint64
	Size   uint64
	Blocks uint64

	Atime time.Time
	Mtime time.Time
	Ctime time.Time
	// Crtime is the creation time; meaningful only on macOS builds, ignored
	// elsewhere per spec.md §9's platform-conditional fields note.
	Crtime time.Time

	Type  FileType
	Perm  uint32 // low 12 bits
	Nlink uint32
	Uid   uint32
	Gid   uint32
	Rdev  uint32
	// Flags is macOS-only (chflags(2) semantics); ignored on other builds.
	Flags uint32
}

func timeToWire(t time.Time) (sec uint64, nsec uint32) {
	if t.IsZero() {
		return 0, 0
	}
	return uint64(t.Unix()), uint32(t.Nanosecond())
}

// toWire fills the kernel-facing Attr record for the given inode.
func (a FileAttr) toWire(out *Attr) {
	out.Ino = a.Inode
	out.Size = a.Size
	out.Blocks = a.Blocks
	out.Atime, out.AtimeNsec = timeToWire(a.Atime)
	out.Mtime, out.MtimeNsec = timeToWire(a.Mtime)
	out.Ctime, out.CtimeNsec = timeToWire(a.Ctime)
	out.Mode = packMode(a.Type, a.Perm)
	out.Nlink = a.Nlink
	out.Uid = a.Uid
	out.Gid = a.Gid
	out.Rdev = a.Rdev
}

// expirationToDuration converts an absolute cache-expiration instant into a
// relative duration from now, clamped to be non-negative, matching the
// teacher's server.go convertExpirationTime.
func expirationToDuration(t time.Time) (sec uint64, nsec uint32) {
	if t.IsZero() {
		return 0, 0
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	return uint64(d / time.Second), uint32(d % time.Second)
}
