// Copyright 2026 CUE Authors
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

package interp

import (
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/stack"
)

// Function is the value a .function construct stores in the current top
// frame: its formal argument names, its unevaluated body, and a
// reference to the stack at the moment of definition. Because Snapshot
// aliases the same *stack.Frame pointers the defining scope is still
// using, a .define made after the function is defined but before it is
// called is visible to the call -- late binding falls out of Go's
// pointer semantics without any extra bookkeeping.
type Function struct {
	Args     []string
	Body     *node.Node
	Snapshot stack.Snapshot
	Pos      node.Pos
}
