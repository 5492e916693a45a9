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

// Package hellofs is a tiny demonstration file system with a fixed
// structure:
//
//	hello.txt
//	dir/
//	    world
//
// Both files contain the string "Hello, world!". It exists to exercise
// gofuse's Implementer interface end to end with the simplest possible
// handler set, mirroring the role the teacher's samples/hellofs package
// plays for fuseops.FileSystem.
package hellofs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/fuselib/gofuse"
	"github.com/fuselib/gofuse/fuseops"
	"github.com/fuselib/gofuse/fuseutil"
)

const content = "Hello, world!"

// Inode numbers are kept as fuseops.InodeID at this package's own API
// boundary - the Implementer methods themselves take plain uint64 (see
// fuseops.InodeID's doc comment) - and converted at each call site.
const (
	rootInode  = fuseops.RootInodeID
	helloInode fuseops.InodeID = 2
	dirInode   fuseops.InodeID = 3
	worldInode fuseops.InodeID = 4
)

type inodeInfo struct {
	attr     fuse.FileAttr
	isDir    bool
	children map[string]fuseops.InodeID
}

// NewHelloFS returns an Implementer serving the fixed hello.txt/dir/world
// layout. clock supplies Atime/Mtime/Ctime for every attribute reply, so
// tests can inject a fake clock the way the teacher's NewHelloFS does.
func NewHelloFS(clock timeutil.Clock) fuse.Implementer {
	return &helloFS{clock: clock}
}

type helloFS struct {
	fuseutil.NotImplementedImplementer
	clock timeutil.Clock
}

func (fs *helloFS) inodes() map[fuseops.InodeID]inodeInfo {
	return map[fuseops.InodeID]inodeInfo{
		rootInode: {
			attr:     fuse.FileAttr{Inode: uint64(rootInode), Type: fuse.FileTypeDirectory, Perm: 0o555, Nlink: 1},
			isDir:    true,
			children: map[string]fuseops.InodeID{"hello.txt": helloInode, "dir": dirInode},
		},
		helloInode: {
			attr: fuse.FileAttr{Inode: uint64(helloInode), Type: fuse.FileTypeRegular, Perm: 0o444, Nlink: 1, Size: uint64(len(content))},
		},
		dirInode: {
			attr:     fuse.FileAttr{Inode: uint64(dirInode), Type: fuse.FileTypeDirectory, Perm: 0o555, Nlink: 1},
			isDir:    true,
			children: map[string]fuseops.InodeID{"world": worldInode},
		},
		worldInode: {
			attr: fuse.FileAttr{Inode: uint64(worldInode), Type: fuse.FileTypeRegular, Perm: 0o444, Nlink: 1, Size: uint64(len(content))},
		},
	}
}

func (fs *helloFS) patch(attr *fuse.FileAttr) {
	now := fs.clock.Now()
	attr.Atime = now
	attr.Mtime = now
	attr.Ctime = now
	attr.Crtime = now
}

func (fs *helloFS) Lookup(ctx context.Context, req *fuse.Request, parent uint64, name string, reply *fuse.ReplyEntry) {
	info, ok := fs.inodes()[fuseops.InodeID(parent)]
	if !ok || !info.isDir {
		reply.Error(fuse.ENOENT)
		return
	}

	child, ok := info.children[name]
	if !ok {
		reply.Error(fuse.ENOENT)
		return
	}

	entry := fuseops.ChildInodeEntry{
		Child:      child,
		Generation: 1,
		Attributes: fs.inodes()[child].attr,
	}
	fs.patch(&entry.Attributes)
	reply.Entry(entry.Attributes, uint64(entry.Generation), entry.EntryExpiration, entry.AttributesExpiration)
}

func (fs *helloFS) GetAttr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.GetattrIn, reply *fuse.ReplyAttr) {
	info, ok := fs.inodes()[fuseops.InodeID(ino)]
	if !ok {
		reply.Error(fuse.ENOENT)
		return
	}

	attr := info.attr
	fs.patch(&attr)
	reply.Attr(attr, time.Time{})
}

func (fs *helloFS) Opendir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.OpenIn, reply *fuse.ReplyOpen) {
	if info, ok := fs.inodes()[fuseops.InodeID(ino)]; !ok || !info.isDir {
		reply.Error(fuse.ENOTDIR)
		return
	}
	reply.Open(0, 0)
}

func (fs *helloFS) Open(ctx context.Context, req *fuse.Request, ino uint64, in fuse.OpenIn, reply *fuse.ReplyOpen) {
	if info, ok := fs.inodes()[fuseops.InodeID(ino)]; !ok || info.isDir {
		reply.Error(fuse.EISDIR)
		return
	}
	reply.Open(0, 0)
}

func (fs *helloFS) Readdir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReadIn, reply *fuse.ReplyDirectory) {
	info, ok := fs.inodes()[fuseops.InodeID(ino)]
	if !ok || !info.isDir {
		reply.Error(fuse.ENOTDIR)
		return
	}

	offset := fuseops.DirOffset(in.Offset)
	names := orderedNames(info.children)
	for i, name := range names {
		if fuseops.DirOffset(i) < offset {
			continue
		}
		child := info.children[name]
		childType := fs.inodes()[child].attr.Type
		if full := reply.Add(uint64(child), int64(i)+1, childType, name); full {
			break
		}
	}
	reply.Ok()
}

func (fs *helloFS) Read(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReadIn, reply *fuse.ReplyData) {
	if _, ok := fs.inodes()[fuseops.InodeID(ino)]; !ok {
		reply.Error(fuse.ENOENT)
		return
	}

	reader := strings.NewReader(content)
	buf := make([]byte, in.Size)
	n, err := reader.ReadAt(buf, int64(in.Offset))
	if err != nil && n == 0 {
		// ReadAt returns io.EOF once the offset is past the end of the
		// string; FUSE wants a zero-length success reply, not an error.
		reply.Data(nil)
		return
	}
	reply.Data(buf[:n])
}

// orderedNames returns m's keys sorted, giving READDIR a stable,
// reproducible offset sequence across calls.
func orderedNames(m map[string]fuseops.InodeID) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
