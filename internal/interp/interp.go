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

// Package interp is the interpreter core: the dispatch walk over a
// loaded Node tree that evaluates every dotted construct, threads the
// lexical scope stack through nested scopes and function calls, and
// combines handler results back into the rendered tree (section 4.F).
package interp

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/eval"
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/stack"
)

// atLine attaches line to err if err carries no line of its own yet.
func atLine(err error, line int) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.AtLine(line)
	}
	return err
}

// Interpreter holds the state threaded through one document's walk: the
// scope stack and the directory .import/.module/.export are resolved
// against.
type Interpreter struct {
	Stack     *stack.Stack
	SourceDir string
}

// New returns an Interpreter rooted at sourceDir, operating on stk.
func New(sourceDir string, stk *stack.Stack) *Interpreter {
	return &Interpreter{Stack: stk, SourceDir: sourceDir}
}

// Eval dispatches on n's kind: a Scalar string is handed to the
// expression evaluator, a Sequence evaluates each element and drops any
// that evaluate to nothing, and a Mapping is processed by evalMapping.
// Anything else (an already-typed scalar) passes through unchanged.
func (ip *Interpreter) Eval(n *node.Node) (*node.Node, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case node.Scalar:
		if s, ok := n.AsString(); ok {
			v, err := eval.Evaluate(s, n.Pos, ip.Stack)
			if err != nil {
				return nil, atLine(err, n.Pos.Line)
			}
			return v, nil
		}
		return n, nil

	case node.Sequence:
		out := node.NewSequence(n.Pos)
		for _, e := range n.Elems {
			r, err := ip.Eval(e)
			if err != nil {
				return nil, err
			}
			if r != nil {
				out.Append(r)
			}
		}
		return out, nil

	case node.Mapping:
		return ip.evalMapping(n)

	default:
		return n, nil
	}
}

// evalMapping implements the dispatch-and-combine rule of section 4.F: a
// .context (if present) is processed first and pushes a frame popped on
// every exit path; every remaining key is handled either by a construct
// handler or, for a plain key, by evaluating its value; handler results
// are merged into an accumulating mapping or list, with the mapping
// winning when both are non-empty (the open question in section 9 is
// resolved this way, matching the reference interpreter).
func (ip *Interpreter) evalMapping(n *node.Node) (result *node.Node, err error) {
	if ctxVal, ok := n.Get(".context"); ok {
		frame, ferr := ip.evalContext(ctxVal)
		if ferr != nil {
			return nil, ferr
		}
		ip.Stack.Push(frame)
		defer ip.Stack.Pop()
	}

	resultDict := node.NewMapping(n.Pos)
	resultList := node.NewSequence(n.Pos)
	var hasDict, hasList bool

	merge := func(r *node.Node) {
		if r == nil {
			return
		}
		switch r.Kind {
		case node.Mapping:
			if len(r.Keys) > 0 {
				resultDict.Merge(r)
				hasDict = true
			}
		case node.Sequence:
			if len(r.Elems) > 0 {
				for _, e := range r.Elems {
					resultList.Append(e)
				}
				hasList = true
			}
		default:
			resultList.Append(r)
			hasList = true
		}
	}

	for _, k := range n.Keys {
		if k == ".context" {
			continue
		}
		v, _ := n.Get(k)

		switch k {
		case ".do":
			r, herr := ip.handleDo(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".foreach":
			r, herr := ip.handleForeach(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".switch":
			r, herr := ip.handleSwitch(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".if":
			r, herr := ip.handleIf(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".define":
			if herr := ip.handleDefine(v); herr != nil {
				return nil, herr
			}
		case ".function":
			if herr := ip.handleFunction(v); herr != nil {
				return nil, herr
			}
		case ".call":
			r, herr := ip.handleCall(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".import":
			r, herr := ip.handleImport(v)
			if herr != nil {
				return nil, herr
			}
			merge(r)
		case ".module":
			if herr := ip.handleModule(v); herr != nil {
				return nil, herr
			}
		case ".export":
			if herr := ip.handleExport(v); herr != nil {
				return nil, herr
			}
		default:
			ev, herr := ip.Eval(v)
			if herr != nil {
				return nil, herr
			}
			if ev != nil {
				resultDict.Set(k, ev)
				hasDict = true
			}
		}
	}

	switch {
	case hasDict:
		return resultDict, nil
	case hasList:
		return resultList, nil
	default:
		return nil, nil
	}
}

// evalContext evaluates a .context block's bindings into the frame map
// Push installs; every value is evaluated in the scope active before the
// new frame exists, i.e. the enclosing scope.
func (ip *Interpreter) evalContext(ctx *node.Node) (map[string]any, error) {
	frame := make(map[string]any, len(ctx.Keys))
	for _, k := range ctx.Keys {
		v, _ := ctx.Get(k)
		ev, err := ip.Eval(v)
		if err != nil {
			return nil, err
		}
		frame[k] = ev
	}
	return frame, nil
}

// resolvePath joins rel onto the interpreter's source directory and
// rejects any result that would escape it, per the .import/.module/
// .export path-escape rule (section 4.F.8, section 6).
func (ip *Interpreter) resolvePath(rel string) (string, error) {
	base, err := filepath.Abs(ip.SourceDir)
	if err != nil {
		return "", errs.Wrap(errs.PathEscape, 0, err, "resolving source directory: %s", err)
	}
	full := filepath.Clean(filepath.Join(base, rel))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", errs.New(errs.PathEscape, 0, "path %q escapes source directory %q", rel, base)
	}
	return full, nil
}
