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

package hellofs_test

import (
	"context"
	"os"
	"os/exec"
	"path"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuselib/gofuse"
	"github.com/fuselib/gofuse/fusetesting"
	"github.com/fuselib/gofuse/samples/hellofs"
)

const helloContent = "Hello, world!"

var mountTime = time.Date(2012, 8, 15, 22, 56, 0, 0, time.Local)

// mountHelloFS mounts a hellofs instance backed by a clock frozen at
// mountTime, registering cleanup that unmounts and joins. These are live
// black-box tests: they need a fusermount helper and /dev/fuse access, so
// environments without either skip rather than fail.
func mountHelloFS(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("fusermount3"); err != nil {
		if _, err := exec.LookPath("fusermount"); err != nil {
			t.Skip("no fusermount helper in PATH")
		}
	}

	var clock timeutil.SimulatedClock
	clock.SetTime(mountTime)

	dir := t.TempDir()
	bg, err := fuse.Mount(context.Background(), dir, hellofs.NewHelloFS(&clock), &fuse.MountConfig{})
	if err != nil {
		t.Skipf("mounting is not possible in this environment: %v", err)
	}

	t.Cleanup(func() {
		require.NoError(t, bg.Unmount())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, bg.Join(ctx))
	})

	return dir
}

func TestHelloFSReadDirPlus(t *testing.T) {
	dir := mountHelloFS(t)

	entries, err := fusetesting.ReadDirPlusPicky(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "dir", entries[0].Name())
	assert.True(t, entries[0].IsDir())

	assert.Equal(t, "hello.txt", entries[1].Name())
	assert.False(t, entries[1].IsDir())
	assert.EqualValues(t, len(helloContent), entries[1].Size())
	fusetesting.AssertMtimeIs(t, entries[1], mountTime)

	entries, err = fusetesting.ReadDirPlusPicky(path.Join(dir, "dir"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "world", entries[0].Name())
	assert.EqualValues(t, len(helloContent), entries[0].Size())
}

func TestHelloFSStatHello(t *testing.T) {
	dir := mountHelloFS(t)

	fi, err := os.Stat(path.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.EqualValues(t, len(helloContent), fi.Size())
	assert.Equal(t, os.FileMode(0o444), fi.Mode())
	fusetesting.AssertMtimeIs(t, fi, mountTime)
	fusetesting.AssertBirthtimeIs(t, fi, mountTime)
}

func TestHelloFSReadFile(t *testing.T) {
	dir := mountHelloFS(t)

	slice, err := os.ReadFile(path.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, helloContent, string(slice))

	slice, err = os.ReadFile(path.Join(dir, "dir", "world"))
	require.NoError(t, err)
	assert.Equal(t, helloContent, string(slice))
}
