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
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// findFusermount locates the setuid fusermount helper, preferring the
// fusermount3 name used by recent util-linux/fuse3 packaging.
func findFusermount() (string, error) {
	for _, name := range []string{"fusermount3", "fusermount"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("fuse: no fusermount binary found in PATH")
}

// mount begins mounting dir by exec'ing fusermount over a unix socketpair,
// receiving the kernel /dev/fuse descriptor back via SCM_RIGHTS. This is the
// same handshake fuse-rs's fuse_mount_compat25 and bazil.org/fuse perform in
// C; gofuse does it directly with golang.org/x/sys/unix rather than cgo.
func mount(dir string, conf *MountConfig, ready chan<- error) (dev *os.File, err error) {
	fusermount, err := findFusermount()
	if err != nil {
		return nil, err
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("fuse: socketpair: %v", err)
	}
	local := os.NewFile(uintptr(fds[0]), "fuse-local")
	remote := os.NewFile(uintptr(fds[1]), "fuse-remote")
	defer remote.Close()

	cmd := exec.Command(fusermount, "-o", conf.getOptions(), "--", dir)
	cmd.Env = append(os.Environ(), "_FUSE_COMMFD=3")
	cmd.ExtraFiles = []*os.File{remote}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err = cmd.Start(); err != nil {
		local.Close()
		return nil, fmt.Errorf("fuse: exec %s: %v", fusermount, err)
	}

	fuseFd, err := recvFd(local)
	local.Close()

	go func() {
		waitErr := cmd.Wait()
		if waitErr != nil {
			msg := strings.TrimRight(stderr.String(), "\n")
			if msg != "" {
				waitErr = fmt.Errorf("%v: %s", waitErr, msg)
			}
		}
		if waitErr == nil && err != nil {
			waitErr = err
		}
		ready <- waitErr
	}()

	if err != nil {
		return nil, fmt.Errorf("fuse: receiving fd from %s: %v", fusermount, err)
	}

	return os.NewFile(uintptr(fuseFd), "/dev/fuse"), nil
}

// recvFd reads a single SCM_RIGHTS control message off sock and returns the
// file descriptor it carries.
func recvFd(sock *os.File) (int, error) {
	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))

	raw, err := sock.SyscallConn()
	if err != nil {
		return -1, err
	}

	var n, oobn int
	var recvErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		n, oobn, _, _, recvErr = unix.Recvmsg(int(fd), buf, oob, 0)
		return true
	})
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	if recvErr != nil {
		return -1, recvErr
	}
	if n == 0 && oobn == 0 {
		return -1, fmt.Errorf("fuse: empty response from fusermount")
	}

	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return -1, err
	}
	if len(msgs) != 1 {
		return -1, fmt.Errorf("fuse: expected 1 control message, got %d", len(msgs))
	}

	fds, err := unix.ParseUnixRights(&msgs[0])
	if err != nil {
		return -1, err
	}
	if len(fds) != 1 {
		return -1, fmt.Errorf("fuse: expected 1 fd, got %d", len(fds))
	}

	return fds[0], nil
}

// Just for testing purposes, mirroring the teacher's fuserunmountMock seam.
var fuserunmountMock = fuserunmount

func unmount(dir string) error {
	err := fuserunmountMock(dir)
	if err != nil && strings.HasPrefix(dir, "/dev/fd/") {
		return fmt.Errorf("%w: %s", ErrExternallyManagedMountPoint, err)
	}
	return err
}

func fuserunmount(dir string) error {
	fusermount, err := findFusermount()
	if err != nil {
		return err
	}
	cmd := exec.Command(fusermount, "-u", dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			output = bytes.TrimRight(output, "\n")
			return fmt.Errorf("%v: %s", err, output)
		}
		return err
	}
	return nil
}
