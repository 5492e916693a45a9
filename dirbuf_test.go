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
	"bytes"
	"testing"
	"unsafe"
)

// TestDirBufferPacking reproduces spec.md §8 scenario 2 byte-for-byte.
func TestDirBufferPacking(t *testing.T) {
	d := NewDirBuffer(4096)

	if full := d.Add(0xAABB, 1, FileTypeDirectory, "hello"); full {
		t.Fatal("Add(hello) reported full unexpectedly")
	}
	if full := d.Add(0xCCDD, 2, FileTypeRegular, "world.rs"); full {
		t.Fatal("Add(world.rs) reported full unexpectedly")
	}

	want := []byte{
		0xBB, 0xAA, 0, 0, 0, 0, 0, 0, // ino
		1, 0, 0, 0, 0, 0, 0, 0, // off
		5, 0, 0, 0, // namelen
		4, 0, 0, 0, // type (directory = 0o040000 >> 12 = 4)
		'h', 'e', 'l', 'l', 'o', 0, 0, 0, // name + padding to 8-byte boundary

		0xDD, 0xCC, 0, 0, 0, 0, 0, 0, // ino
		2, 0, 0, 0, 0, 0, 0, 0, // off
		8, 0, 0, 0, // namelen
		8, 0, 0, 0, // type (regular = 0o100000 >> 12 = 8)
		'w', 'o', 'r', 'l', 'd', '.', 'r', 's', // name, already 8-aligned
	}

	if got := d.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("packed entries =\n%v\nwant\n%v", got, want)
	}
	if got, want := d.Len(), 24+8+24+8; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

func TestDirBufferOverflowLeavesBufferUnchanged(t *testing.T) {
	// Capacity fits exactly one "hello" entry (24 + 8 = 32 bytes) and no more.
	d := NewDirBuffer(32)

	if full := d.Add(1, 1, FileTypeDirectory, "hello"); full {
		t.Fatal("first Add reported full, want it to fit exactly")
	}
	before := append([]byte(nil), d.Bytes()...)

	if full := d.Add(2, 2, FileTypeRegular, "world.rs"); !full {
		t.Fatal("second Add should report full once capacity is exhausted")
	}

	if got := d.Bytes(); !bytes.Equal(got, before) {
		t.Fatalf("buffer mutated by a rejected Add: got %v, want %v", got, before)
	}
}

func TestDirBufferAddPlusPacksEntryThenDirent(t *testing.T) {
	d := NewDirBuffer(4096)

	attr := FileAttr{Inode: 0xAABB, Size: 13, Type: FileTypeRegular, Perm: 0o644, Nlink: 1}
	if full := d.AddPlus(attr, 7, 1, "hello"); full {
		t.Fatal("AddPlus reported full unexpectedly")
	}

	entrySize := int(unsafe.Sizeof(EntryOut{}))
	if got, want := d.Len(), entrySize+24+8; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	buf := d.Bytes()
	entry := (*EntryOut)(unsafe.Pointer(&buf[0]))
	if entry.Nodeid != 0xAABB {
		t.Errorf("entry.Nodeid = %#x, want 0xAABB", entry.Nodeid)
	}
	if entry.Generation != 7 {
		t.Errorf("entry.Generation = %d, want 7", entry.Generation)
	}
	if got, want := entry.Attr.Mode, packMode(FileTypeRegular, 0o644); got != want {
		t.Errorf("entry.Attr.Mode = %#o, want %#o", got, want)
	}

	de := (*dirent)(unsafe.Pointer(&buf[entrySize]))
	if de.Ino != 0xAABB {
		t.Errorf("dirent.Ino = %#x, want 0xAABB", de.Ino)
	}
	if de.Namelen != 5 {
		t.Errorf("dirent.Namelen = %d, want 5", de.Namelen)
	}
	if got := string(buf[entrySize+24 : entrySize+24+5]); got != "hello" {
		t.Errorf("name = %q, want %q", got, "hello")
	}
}

func TestDirBufferAddPlusOverflowLeavesBufferUnchanged(t *testing.T) {
	// Capacity below one direntplus entry: AddPlus must reject without
	// writing the entry record half.
	d := NewDirBuffer(64)

	attr := FileAttr{Inode: 1, Type: FileTypeRegular, Perm: 0o644}
	if full := d.AddPlus(attr, 1, 1, "hello"); !full {
		t.Fatal("AddPlus should report full when the combined entry cannot fit")
	}
	if got := d.Len(); got != 0 {
		t.Fatalf("Len() = %d after a rejected AddPlus, want 0", got)
	}
}

func TestDirBufferExactCapacityBoundary(t *testing.T) {
	// Two entries named "a" and "b" each take 24 + 8 = 32 bytes (namelen 1
	// rounds up to the 8-byte alignment boundary). A third must be rejected.
	const entrySize = 32
	d := NewDirBuffer(2 * entrySize)

	if full := d.Add(1, 1, FileTypeRegular, "a"); full {
		t.Fatal("entry 1 unexpectedly rejected")
	}
	if full := d.Add(2, 2, FileTypeRegular, "b"); full {
		t.Fatal("entry 2 unexpectedly rejected")
	}
	if full := d.Add(3, 3, FileTypeRegular, "c"); !full {
		t.Fatal("entry 3 should have been rejected at exact capacity")
	}
	if got, want := d.Len(), 2*entrySize; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}
