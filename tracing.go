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
	"fmt"

	"github.com/jacobsa/reqtrace"
)

// traceRequest opens a reqtrace span for the lifetime of one dispatched
// request, named after its opcode, mirroring the teacher's use of reqtrace
// around each fuseops.Op. The returned report func must be called exactly
// once, per reqtrace's own contract; Dispatch calls it with nil when the
// handler returns, whatever the handler replied.
func traceRequest(ctx context.Context, op Opcode, unique uint64) (context.Context, reqtrace.ReportFunc) {
	name := fmt.Sprintf("fuse.%s [%d]", op, unique)
	return reqtrace.StartSpan(ctx, name)
}
