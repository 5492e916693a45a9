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

// A simple tool for mounting the hellofs sample, used to exercise the
// library by hand during development.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jacobsa/timeutil"

	"github.com/fuselib/gofuse"
	"github.com/fuselib/gofuse/samples/hellofs"
)

var fMountPoint = flag.String("mount_point", "", "Path to mount point.")
var fReadOnly = flag.Bool("read_only", false, "Mount in read-only mode.")
var fDebug = flag.Bool("debug", false, "Enable debug logging.")

func main() {
	flag.Parse()

	if *fMountPoint == "" {
		log.Fatalf("You must set --mount_point.")
	}

	impl := hellofs.NewHelloFS(timeutil.RealClock())

	cfg := &fuse.MountConfig{
		ReadOnly: *fReadOnly,
	}
	if *fDebug {
		cfg.DebugLogger = fuse.NewDebugLogger(os.Stderr)
	}

	bs, err := fuse.Mount(context.Background(), *fMountPoint, impl, cfg)
	if err != nil {
		log.Fatalf("Mount: %v", err)
	}

	// Wait for it to be unmounted.
	if err := bs.Join(context.Background()); err != nil {
		log.Fatalf("Join: %v", err)
	}
}
