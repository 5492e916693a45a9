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
	"os"

	"github.com/detailyang/go-fallocate"
)

// Fallocate backs the FALLOCATE opcode for an Implementer whose open files
// are backed by real *os.File descriptors, delegating to go-fallocate
// rather than hand-rolling the fallocate(2)/posix_fallocate portability
// shim. Callers that need FALLOC_FL_* semantics beyond plain space
// reservation should implement those directly, since go-fallocate only
// covers the reservation case.
func Fallocate(f *os.File, offset, length int64) error {
	return fallocate.Fallocate(f, offset, length)
}
