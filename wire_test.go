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
	"testing"
	"time"
	"unsafe"

	"github.com/kylelemons/godebug/pretty"
)

func TestHeaderSizesAreBitExact(t *testing.T) {
	if got, want := InHeaderSize, 40; got != want {
		t.Errorf("InHeaderSize = %d, want %d", got, want)
	}
	if got, want := OutHeaderSize, 16; got != want {
		t.Errorf("OutHeaderSize = %d, want %d", got, want)
	}
}

func TestProtocolLT(t *testing.T) {
	cases := []struct {
		a, b Protocol
		want bool
	}{
		{Protocol{7, 5}, Protocol{7, 6}, true},
		{Protocol{7, 6}, Protocol{7, 6}, false},
		{Protocol{7, 7}, Protocol{7, 6}, false},
		{Protocol{6, 99}, Protocol{7, 0}, true},
	}
	for _, c := range cases {
		if got := c.a.LT(c.b); got != c.want {
			t.Errorf("%+v.LT(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	if got, want := OpLookup.String(), "LOOKUP"; got != want {
		t.Errorf("OpLookup.String() = %q, want %q", got, want)
	}
	if got, want := OpRename2.String(), "RENAME"; got != want {
		t.Errorf("OpRename2.String() = %q, want %q", got, want)
	}
	if got, want := Opcode(9999).String(), "UNKNOWN"; got != want {
		t.Errorf("Opcode(9999).String() = %q, want %q", got, want)
	}
}

func TestInitOutSizeShortVariant(t *testing.T) {
	shortWant := unsafe.Offsetof(InitOut{}.MaxWrite) + 4
	if got := initOutSize(22); got != shortWant {
		t.Errorf("initOutSize(22) = %d, want %d", got, shortWant)
	}
	if got, want := initOutSize(23), unsafe.Sizeof(InitOut{}); got != want {
		t.Errorf("initOutSize(23) = %d, want %d", got, want)
	}
	if got, want := initOutSize(26), unsafe.Sizeof(InitOut{}); got != want {
		t.Errorf("initOutSize(26) = %d, want %d", got, want)
	}
}

// TestAttrToWireMatchesFieldByField diffs the wire Attr produced from a
// FileAttr against a hand-built expectation, field by field, rather than
// comparing only a handful of fields by hand - useful here since Attr
// carries over a dozen fields and a missed one wouldn't fail go vet.
func TestAttrToWireMatchesFieldByField(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 8000, time.UTC)
	attr := FileAttr{
		Inode: 42,
		Size:  13,
		Type:  FileTypeRegular,
		Perm:  0o644,
		Nlink: 1,
		Uid:   1000,
		Gid:   1000,
		Atime: now,
		Mtime: now,
		Ctime: now,
	}

	var got Attr
	attr.toWire(&got)

	want := Attr{
		Ino:       42,
		Size:      13,
		Mode:      packMode(FileTypeRegular, 0o644),
		Nlink:     1,
		Uid:       1000,
		Gid:       1000,
		Atime:     uint64(now.Unix()),
		Mtime:     uint64(now.Unix()),
		Ctime:     uint64(now.Unix()),
		AtimeNsec: uint32(now.Nanosecond()),
		MtimeNsec: uint32(now.Nanosecond()),
		CtimeNsec: uint32(now.Nanosecond()),
	}

	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("attr.toWire() diff (-want +got):\n%s", diff)
	}
}

func TestImplementationSupportedFlagsIntersection(t *testing.T) {
	kernel := InitFlags(InitAsyncRead | InitPosixLocks | InitWritebackCache)
	got := kernel & ImplementationSupportedFlags
	want := InitAsyncRead | InitWritebackCache
	if got != want {
		t.Errorf("kernel & ImplementationSupportedFlags = %#x, want %#x", got, want)
	}
}
