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
	"os"
)

// Mounter abstracts the platform-specific work of establishing the kernel
// connection for a mountpoint: invoking the setuid helper (fusermount on
// Linux, mount_osxfusefs on macOS) and handing back the opened /dev/fuse (or
// equivalent) file descriptor. The teacher hardcodes this per-GOOS; gofuse
// exposes it as an interface so callers (and tests) can substitute a fake,
// per spec.md §6.
type Mounter interface {
	// Mount begins mounting dir with the given options. It returns
	// immediately with the kernel fd; mounting completes in the background
	// and the result is delivered on ready.
	Mount(dir string, conf *MountConfig, ready chan<- error) (dev *os.File, err error)

	// Unmount asks the kernel to tear down the mount at dir.
	Unmount(dir string) error
}

// defaultMounter is the Mounter that Mount uses. platformMounter delegates
// to the mount/unmount functions in mounter_linux.go; no other platform
// provides them.
var defaultMounter Mounter = platformMounter{}

type platformMounter struct{}

func (platformMounter) Mount(dir string, conf *MountConfig, ready chan<- error) (*os.File, error) {
	return mount(dir, conf, ready)
}

func (platformMounter) Unmount(dir string) error {
	return unmount(dir)
}
