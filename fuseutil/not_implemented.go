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

package fuseutil

import (
	"context"

	"github.com/fuselib/gofuse"
)

// NotImplementedImplementer answers every Implementer method with
// fuse.ENOSYS, except for the handful of slots spec.md §6 calls out with a
// friendlier default: Open/Opendir hand back a zero file handle, Access
// always succeeds, and Release/Releasedir just acknowledge. Init accepts the
// handshake, and the reply-less Forget/BatchForget/Destroy do nothing. Embed it in a
// file system struct to get default coverage of every method you don't care
// about, so the struct keeps satisfying fuse.Implementer as the interface
// grows - precisely the role the teacher's NotImplementedFileSystem plays
// for fuseops.FileSystem.
type NotImplementedImplementer struct{}

func (NotImplementedImplementer) Init(ctx context.Context, req *fuse.Request) error {
	return nil
}

func (NotImplementedImplementer) Lookup(ctx context.Context, req *fuse.Request, parent uint64, name string, reply *fuse.ReplyEntry) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Forget(ctx context.Context, req *fuse.Request, ino uint64, nlookup uint64) {
}

func (NotImplementedImplementer) BatchForget(ctx context.Context, req *fuse.Request, entries []fuse.ForgetEntry) {
}

func (NotImplementedImplementer) GetAttr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.GetattrIn, reply *fuse.ReplyAttr) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) SetAttr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.SetattrIn, reply *fuse.ReplyAttr) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Readlink(ctx context.Context, req *fuse.Request, ino uint64, reply *fuse.ReplyData) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Mknod(ctx context.Context, req *fuse.Request, parent uint64, name string, in fuse.MknodIn, reply *fuse.ReplyEntry) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Mkdir(ctx context.Context, req *fuse.Request, parent uint64, name string, in fuse.MkdirIn, reply *fuse.ReplyEntry) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Unlink(ctx context.Context, req *fuse.Request, parent uint64, name string, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Rmdir(ctx context.Context, req *fuse.Request, parent uint64, name string, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Symlink(ctx context.Context, req *fuse.Request, parent uint64, name, target string, reply *fuse.ReplyEntry) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Rename(ctx context.Context, req *fuse.Request, parent uint64, name string, newParent uint64, newName string, flags uint32, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Link(ctx context.Context, req *fuse.Request, ino uint64, newParent uint64, newName string, reply *fuse.ReplyEntry) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Open(ctx context.Context, req *fuse.Request, ino uint64, in fuse.OpenIn, reply *fuse.ReplyOpen) {
	reply.Open(0, 0)
}

func (NotImplementedImplementer) Read(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReadIn, reply *fuse.ReplyData) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Write(ctx context.Context, req *fuse.Request, ino uint64, in fuse.WriteIn, data []byte, reply *fuse.ReplyWrite) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Flush(ctx context.Context, req *fuse.Request, ino uint64, fh uint64, lockOwner uint64, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Release(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReleaseIn, reply *fuse.ReplyEmpty) {
	reply.Ok()
}

func (NotImplementedImplementer) Fsync(ctx context.Context, req *fuse.Request, ino uint64, in fuse.FsyncIn, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Opendir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.OpenIn, reply *fuse.ReplyOpen) {
	reply.Open(0, 0)
}

func (NotImplementedImplementer) Readdir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReadIn, reply *fuse.ReplyDirectory) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Readdirplus(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReadIn, reply *fuse.ReplyDirectory) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Releasedir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.ReleaseIn, reply *fuse.ReplyEmpty) {
	reply.Ok()
}

func (NotImplementedImplementer) Fsyncdir(ctx context.Context, req *fuse.Request, ino uint64, in fuse.FsyncIn, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Statfs(ctx context.Context, req *fuse.Request, ino uint64, reply *fuse.ReplyStatFs) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Setxattr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.SetxattrIn, name string, value []byte, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Getxattr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.GetxattrIn, name string, reply *fuse.ReplyXAttr) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Listxattr(ctx context.Context, req *fuse.Request, ino uint64, in fuse.GetxattrIn, reply *fuse.ReplyXAttr) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Removexattr(ctx context.Context, req *fuse.Request, ino uint64, name string, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Access(ctx context.Context, req *fuse.Request, ino uint64, in fuse.AccessIn, reply *fuse.ReplyEmpty) {
	reply.Ok()
}

func (NotImplementedImplementer) Create(ctx context.Context, req *fuse.Request, parent uint64, name string, in fuse.CreateIn, reply *fuse.ReplyCreate) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) GetLk(ctx context.Context, req *fuse.Request, ino uint64, in fuse.LkIn, reply *fuse.ReplyLock) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) SetLk(ctx context.Context, req *fuse.Request, ino uint64, in fuse.LkIn, sleep bool, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Bmap(ctx context.Context, req *fuse.Request, ino uint64, in fuse.BmapIn, reply *fuse.ReplyBmap) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Fallocate(ctx context.Context, req *fuse.Request, ino uint64, in fuse.FallocateIn, reply *fuse.ReplyEmpty) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Lseek(ctx context.Context, req *fuse.Request, ino uint64, in fuse.LseekIn, reply *fuse.ReplyLseek) {
	reply.Error(fuse.ENOSYS)
}

func (NotImplementedImplementer) Destroy(ctx context.Context, req *fuse.Request) {
}
