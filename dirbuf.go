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

// DirBuffer is a bounded, 8-byte-aligned buffer of packed directory entries,
// as consumed by the kernel's parse_dirfile. Entries are appended with Add
// until either the caller is done or capacity is exhausted; see spec.md
// §4.5 and §8 invariant 4.
//
// The on-wire entry layout (ino, off, namelen, type, name, padding) is
// ported directly from the teacher's fuseutil.WriteDirent.
type DirBuffer struct {
	buf []byte
	cap int
}

// NewDirBuffer returns a DirBuffer with the given capacity, typically the
// kernel's requested reply size carried on a READDIR/READDIRPLUS request.
func NewDirBuffer(capacity int) *DirBuffer {
	return &DirBuffer{buf: make([]byte, 0, capacity), cap: capacity}
}

// direntSize returns the total on-wire size of an entry with the given name
// length, rounded up to the FUSE_DIRENT_ALIGN boundary (8 bytes).
func direntSize(nameLen int) int {
	n := direntHeaderSize + nameLen
	if rem := n % direntAlignment; rem != 0 {
		n += direntAlignment - rem
	}
	return n
}

// Add appends one directory entry. It returns full=true and leaves the
// buffer unmodified if the entry would not fit within capacity, per
// spec.md §8 invariant 4; the caller is then expected to stop calling Add
// and reply with what has been accumulated so far.
func (d *DirBuffer) Add(ino uint64, off int64, t FileType, name string) (full bool) {
	size := direntSize(len(name))
	if len(d.buf)+size > d.cap {
		return true
	}

	e := dirent{
		Ino:     ino,
		Off:     uint64(off),
		Namelen: uint32(len(name)),
		Type:    direntType(t),
	}

	eBytes := (*[direntHeaderSize]byte)(unsafe.Pointer(&e))[:]
	d.buf = append(d.buf, eBytes...)
	d.buf = append(d.buf, name...)

	pad := direntSize(len(name)) - direntHeaderSize - len(name)
	if pad > 0 {
		var zero [direntAlignment]byte
		d.buf = append(d.buf, zero[:pad]...)
	}

	return false
}

// AddPlus appends one READDIRPLUS entry: the full child entry record a
// LOOKUP reply would carry, followed by the packed dirent. The same
// capacity rule as Add applies, checked against the combined size before
// anything is written.
func (d *DirBuffer) AddPlus(attr FileAttr, generation uint64, off int64, name string) (full bool) {
	size := int(unsafe.Sizeof(EntryOut{})) + direntSize(len(name))
	if len(d.buf)+size > d.cap {
		return true
	}

	var entry EntryOut
	entry.Nodeid = attr.Inode
	entry.Generation = generation
	attr.toWire(&entry.Attr)

	entryBytes := (*[unsafe.Sizeof(EntryOut{})]byte)(unsafe.Pointer(&entry))[:]
	d.buf = append(d.buf, entryBytes...)

	return d.Add(attr.Inode, off, attr.Type, name)
}

// Bytes returns the accumulated, packed entry stream.
func (d *DirBuffer) Bytes() []byte {
	return d.buf
}

// Len returns the number of bytes accumulated so far.
func (d *DirBuffer) Len() int {
	return len(d.buf)
}
