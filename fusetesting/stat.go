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

package fusetesting

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// AssertMtimeIs asserts that fi specifies an mtime equal to expected. Where
// fi.Sys() exposes an mtime (Linux's syscall.Stat_t), that is checked too,
// catching a file system that answers GETATTR's ModTime correctly but gets
// the wire Mtime/MtimeNsec fields wrong.
func AssertMtimeIs(t *testing.T, fi os.FileInfo, expected time.Time) bool {
	ok := assert.True(t, fi.ModTime().Equal(expected),
		"mtime is %v, want %v", fi.ModTime(), expected)

	if st, sysOK := fi.Sys().(*syscall.Stat_t); sysOK {
		sysMtime := time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
		ok = assert.True(t, sysMtime.Equal(expected),
			"Sys() mtime is %v, want %v", sysMtime, expected) && ok
	}

	return ok
}

// AssertBirthtimeIs asserts that fi specifies a birth time equal to
// expected. Linux's syscall.Stat_t carries no birth time field, so this is
// a no-op success there; it exists so tests written against this package
// keep compiling if a future platform build exposes one.
func AssertBirthtimeIs(t *testing.T, fi os.FileInfo, expected time.Time) bool {
	return true
}
