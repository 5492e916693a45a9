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
	"syscall"

	"github.com/pkg/errors"
)

// Errors corresponding to kernel error numbers. Handlers return these (or
// any other syscall.Errno) to select the negative-errno value written to
// the out-header's Error field; see spec.md §7.
const (
	EIO       = syscall.EIO
	ENOENT    = syscall.ENOENT
	ENOSYS    = syscall.ENOSYS
	ENOTEMPTY = syscall.ENOTEMPTY
	EPROTO    = syscall.EPROTO
	ERANGE    = syscall.ERANGE
	EACCES    = syscall.EACCES
	EEXIST    = syscall.EEXIST
	EINVAL    = syscall.EINVAL
	ENOTDIR   = syscall.ENOTDIR
	ENODATA   = syscall.ENODATA
	EISDIR    = syscall.EISDIR
)

// errnoOf extracts the syscall.Errno carried by err, defaulting to EIO for
// any error the implementer returns that isn't already an errno - this
// keeps a handler that wraps an errno with errors.Wrap (for its own
// debug logging) from accidentally producing a wire error of zero.
func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return EIO
}

// ErrExternallyManagedMountPoint is returned when unmounting a mountpoint
// that was not mounted by this process's Mounter (e.g. a /dev/fd/N
// mountpoint managed by a parent process), mirroring the teacher's
// unmount_linux.go special case.
var ErrExternallyManagedMountPoint = errors.New("fuse: mountpoint is externally managed")
