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

// Package fuseops defines small named types for the inode/handle/offset
// values threaded through an Implementer's methods, so call sites read as
// "a directory offset" rather than a bare uint64. The teacher's own
// fuseops package does the same for its op structs (InodeID, HandleID,
// DirOffset appear throughout ops.go); gofuse's Implementer methods pass
// plain uint64/int64 for simplicity, and callers are free to wrap them in
// these types at their own API boundary.
package fuseops

import (
	"time"

	"github.com/fuselib/gofuse"
)

// InodeID identifies an inode within a mounted file system. Every file
// system has a distinguished root, numbered RootInodeID.
type InodeID uint64

// RootInodeID is the fixed inode number the kernel uses to refer to the
// root of the mounted file system, before any LOOKUP has occurred.
const RootInodeID InodeID = 1

// HandleID identifies an open file or directory handle, as minted by a
// reply to OPEN/OPENDIR/CREATE and referenced by every subsequent READ,
// WRITE, FLUSH, RELEASE, FSYNC, and so on against that handle.
type HandleID uint64

// Generation disambiguates reused inode numbers across the lifetime of a
// file system; see the generation field of the Entry reply (spec.md §3).
type Generation uint64

// ChildInodeEntry describes a child inode the way LOOKUP-family replies
// (LOOKUP, MKDIR, MKNOD, SYMLINK, LINK, the entry half of CREATE) hand one
// back to the kernel: the child's ID and generation, its attributes, and
// how long the kernel may cache each. Its fields map one-for-one onto the
// arguments of ReplyEntry.Entry and ReplyCreate.Created.
type ChildInodeEntry struct {
	Child      InodeID
	Generation Generation
	Attributes fuse.FileAttr

	// Times after which the kernel must revalidate the attributes and the
	// name→inode mapping with new GETATTR/LOOKUP calls. The zero value
	// means no caching.
	AttributesExpiration time.Time
	EntryExpiration      time.Time
}

// DirOffset is an opaque cursor position within a directory's listing, as
// handed back by one READDIR/READDIRPLUS reply and handed in verbatim to
// the next.
type DirOffset int64
