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
	"context"
)

// BackgroundSession runs a Session's Serve loop on its own goroutine and
// reports completion through Join, generalizing the teacher's
// MountedFileSystem (dir + joinStatus channel) from a single hardcoded
// bazil.org/fuse server to any Session.
type BackgroundSession struct {
	dir                 string
	mounter             Mounter
	joinStatus          error
	joinStatusAvailable chan struct{}
}

// Mount establishes the kernel connection at dir using the package's
// default Mounter, waits for the privileged mount call to finish, then
// starts a Session that dispatches to impl serving in the background. Like
// the teacher's own Mount (mounted_file_system.go's waitForReady call),
// this blocks until the file system is actually visible at dir, so a
// mount failure is returned here rather than discovered later through
// Join (spec.md §7: "a mount failure returns an error before any file
// system is visible").
func Mount(ctx context.Context, dir string, impl Implementer, cfg *MountConfig) (*BackgroundSession, error) {
	if cfg == nil {
		cfg = &MountConfig{}
	}

	mounter := defaultMounter

	ready := make(chan error, 1)
	dev, err := mounter.Mount(dir, cfg, ready)
	if err != nil {
		return nil, err
	}

	select {
	case mountErr := <-ready:
		if mountErr != nil {
			dev.Close()
			return nil, mountErr
		}
	case <-ctx.Done():
		dev.Close()
		return nil, ctx.Err()
	}

	bg := &BackgroundSession{
		dir:                 dir,
		mounter:             mounter,
		joinStatusAvailable: make(chan struct{}),
	}

	channel := NewChannel(dev, dir)

	debugLog, errLog := cfg.DebugLogger, cfg.ErrorLogger
	if debugLog == nil && errLog == nil {
		debugLog, errLog = discardLoggers()
	}

	disp := NewDispatcher(impl, channel, cfg, debugLog, errLog)
	sess := NewSession(channel, disp)

	go func() {
		status := sess.Serve(cfg.opContext())
		channel.Close()
		bg.joinStatus = status
		close(bg.joinStatusAvailable)
	}()

	return bg, nil
}

// Dir returns the directory this session is mounted on.
func (bg *BackgroundSession) Dir() string {
	return bg.dir
}

// Join blocks until the session has finished serving, returning whatever
// error caused it to stop (nil on a clean kernel-initiated unmount).
func (bg *BackgroundSession) Join(ctx context.Context) error {
	select {
	case <-bg.joinStatusAvailable:
		return bg.joinStatus
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unmount asks the kernel to tear down the mount, which in turn causes the
// background Session to observe ENODEV and return from Join.
func (bg *BackgroundSession) Unmount() error {
	return bg.mounter.Unmount(bg.dir)
}
