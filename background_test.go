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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMounter stands in for the platform Mounter: it hands back one end of
// an os.Pipe as the "kernel" descriptor and reports mount completion
// synchronously on the ready channel, the way a fast fusermount child would.
type fakeMounter struct {
	dev           *os.File
	readyErr      error
	unmountCalled bool
	unmountDir    string
}

func (m *fakeMounter) Mount(dir string, conf *MountConfig, ready chan<- error) (*os.File, error) {
	ready <- m.readyErr
	return m.dev, nil
}

func (m *fakeMounter) Unmount(dir string) error {
	m.unmountCalled = true
	m.unmountDir = dir
	return nil
}

func withFakeMounter(m Mounter) func() {
	orig := defaultMounter
	defaultMounter = m
	return func() { defaultMounter = orig }
}

// TestMountBlocksUntilReadyThenServes exercises spec.md §7's requirement
// that a successful Mount doesn't return until the file system is actually
// visible, and that the background Session subsequently observes a clean
// kernel-initiated shutdown when the device is closed.
func TestMountBlocksUntilReadyThenServes(t *testing.T) {
	devR, devW, err := os.Pipe()
	require.NoError(t, err)

	fm := &fakeMounter{dev: devR}
	defer withFakeMounter(fm)()

	bg, err := Mount(context.Background(), "/fake/mnt", &fakeImplementer{}, &MountConfig{})
	require.NoError(t, err)
	require.NotNil(t, bg)
	assert.Equal(t, "/fake/mnt", bg.Dir())

	// Closing the write end makes the read end (the session's "kernel"
	// descriptor) observe EOF, standing in for ENODEV.
	require.NoError(t, devW.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, bg.Join(ctx))

	require.NoError(t, bg.Unmount())
	assert.True(t, fm.unmountCalled)
	assert.Equal(t, "/fake/mnt", fm.unmountDir)
}

// TestMountFailsBeforeReturningWhenReadyErrors exercises spec.md §7: a mount
// failure is surfaced by Mount itself, not discovered later through Join.
func TestMountFailsBeforeReturningWhenReadyErrors(t *testing.T) {
	devR, devW, err := os.Pipe()
	require.NoError(t, err)
	defer devW.Close()

	wantErr := errors.New("fusermount: permission denied")
	fm := &fakeMounter{dev: devR, readyErr: wantErr}
	defer withFakeMounter(fm)()

	bg, err := Mount(context.Background(), "/fake/mnt", &fakeImplementer{}, &MountConfig{})
	assert.Nil(t, bg)
	assert.Equal(t, wantErr, err)
}

// TestMountRespectsContextCancellation ensures a caller-cancelled context
// aborts Mount instead of blocking forever on a Mounter that never signals
// readiness.
func TestMountRespectsContextCancellation(t *testing.T) {
	devR, devW, err := os.Pipe()
	require.NoError(t, err)
	defer devR.Close()
	defer devW.Close()

	fm := &blockingMounter{dev: devR}
	defer withFakeMounter(fm)()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bg, err := Mount(ctx, "/fake/mnt", &fakeImplementer{}, &MountConfig{})
	assert.Nil(t, bg)
	assert.Equal(t, context.Canceled, err)
}

// blockingMounter never writes to ready, modeling a Mounter whose privileged
// helper never returns.
type blockingMounter struct {
	dev *os.File
}

func (m *blockingMounter) Mount(dir string, conf *MountConfig, ready chan<- error) (*os.File, error) {
	return m.dev, nil
}

func (m *blockingMounter) Unmount(dir string) error {
	return nil
}
