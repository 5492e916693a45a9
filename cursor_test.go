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
)

type cursorPair struct {
	A uint32
	B uint32
}

func TestArgCursorFetch(t *testing.T) {
	buf := []byte{1, 0, 0, 0, 2, 0, 0, 0, 0xff}
	c := newArgCursor(buf)

	p, err := fetch[cursorPair](c)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.A != 1 || p.B != 2 {
		t.Fatalf("fetch = %+v, want {1 2}", *p)
	}
	if got, want := c.remaining(), 1; got != want {
		t.Fatalf("remaining() = %d, want %d", got, want)
	}
}

func TestArgCursorFetchShortRecord(t *testing.T) {
	c := newArgCursor([]byte{1, 2, 3})
	if _, err := fetch[cursorPair](c); err == nil {
		t.Fatal("fetch on a too-short buffer succeeded, want an error")
	}
}

func TestArgCursorFetchString(t *testing.T) {
	c := newArgCursor([]byte("hello.txt\x00rest"))
	s, err := c.fetchString()
	if err != nil {
		t.Fatalf("fetchString: %v", err)
	}
	if got, want := s, "hello.txt"; got != want {
		t.Fatalf("fetchString() = %q, want %q", got, want)
	}
	if got, want := string(c.fetchRest()), "rest"; got != want {
		t.Fatalf("fetchRest() = %q, want %q", got, want)
	}
}

func TestArgCursorFetchStringUnterminated(t *testing.T) {
	c := newArgCursor([]byte("no nul here"))
	if _, err := c.fetchString(); err == nil {
		t.Fatal("fetchString on an unterminated buffer succeeded, want an error")
	}
}

func TestArgCursorFetchN(t *testing.T) {
	c := newArgCursor([]byte("abcdef"))
	b, err := c.fetchN(4)
	if err != nil {
		t.Fatalf("fetchN: %v", err)
	}
	if got, want := string(b), "abcd"; got != want {
		t.Fatalf("fetchN(4) = %q, want %q", got, want)
	}
	if got, want := c.remaining(), 2; got != want {
		t.Fatalf("remaining() = %d, want %d", got, want)
	}
}

func TestArgCursorFetchNPastEnd(t *testing.T) {
	c := newArgCursor([]byte("abc"))
	if _, err := c.fetchN(10); err == nil {
		t.Fatal("fetchN(10) on a 3-byte buffer succeeded, want an error")
	}
}
