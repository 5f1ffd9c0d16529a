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
	"fmt"
	"os"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/loader"
	"github.com/yamlpp/protein/internal/modules"
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/serialize"
)

// handleDo implements .do: evaluate each child in order, collecting
// non-nil results into a sequence (section 4.F.1). Definitions a child
// makes are immediately visible to its later siblings because they all
// share the interpreter's one stack.
func (ip *Interpreter) handleDo(val *node.Node) (*node.Node, error) {
	out := node.NewSequence(val.Pos)
	for _, child := range val.Elems {
		r, err := ip.Eval(child)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out.Append(r)
		}
	}
	return out, nil
}

// handleForeach implements .foreach: {.values: [name, iterable], .do}.
// The iterable expression is evaluated once; the loop variable is rebound
// on a fresh frame each iteration and popped before the next (section
// 4.F.3).
func (ip *Interpreter) handleForeach(val *node.Node) (*node.Node, error) {
	values, ok := val.Get(".values")
	if !ok || len(values.Elems) != 2 {
		return nil, errs.New(errs.ArgumentMismatch, val.Pos.Line, ".foreach: .values must be [name, iterable]")
	}
	varName, ok := values.Elems[0].AsString()
	if !ok {
		return nil, errs.New(errs.TypeError, val.Pos.Line, ".foreach: loop variable name must be an identifier string")
	}
	iterVal, err := ip.Eval(values.Elems[1])
	if err != nil {
		return nil, err
	}
	body, ok := val.Get(".do")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".foreach: missing .do")
	}

	out := node.NewSequence(val.Pos)
	runBody := func(elem *node.Node) error {
		ip.Stack.Push(map[string]any{varName: elem})
		r, err := ip.Eval(body)
		ip.Stack.Pop()
		if err != nil {
			return err
		}
		if r != nil {
			out.Append(r)
		}
		return nil
	}

	switch {
	case iterVal.IsSequence():
		for _, elem := range iterVal.Elems {
			if err := runBody(elem); err != nil {
				return nil, err
			}
		}
	case iterVal.IsMapping():
		for _, k := range iterVal.Keys {
			if err := runBody(node.NewScalar(iterVal.Pos, k)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errs.New(errs.TypeError, val.Pos.Line, ".foreach: value is not iterable")
	}
	return out, nil
}

// handleSwitch implements .switch: {.expr, .cases, .default?}. The case
// keys are mapping keys, always strings; the evaluated expression is
// compared against them by its rendered scalar representation.
func (ip *Interpreter) handleSwitch(val *node.Node) (*node.Node, error) {
	exprNode, ok := val.Get(".expr")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".switch: missing .expr")
	}
	casesNode, ok := val.Get(".cases")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".switch: missing .cases")
	}
	ev, err := ip.Eval(exprNode)
	if err != nil {
		return nil, err
	}
	if !ev.IsScalar() {
		return nil, errs.New(errs.TypeError, val.Pos.Line, ".switch: .expr must evaluate to a scalar")
	}
	key := switchKeyString(ev.Value)
	if chosen, ok := casesNode.Get(key); ok {
		return ip.Eval(chosen)
	}
	if def, ok := val.Get(".default"); ok {
		return ip.Eval(def)
	}
	return nil, nil
}

func switchKeyString(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

// handleIf implements .if: {.cond, .then, .else?}.
func (ip *Interpreter) handleIf(val *node.Node) (*node.Node, error) {
	condNode, ok := val.Get(".cond")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".if: missing .cond")
	}
	thenNode, ok := val.Get(".then")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".if: missing .then")
	}
	ev, err := ip.Eval(condNode)
	if err != nil {
		return nil, err
	}
	if isTruthy(ev) {
		return ip.Eval(thenNode)
	}
	if elseNode, ok := val.Get(".else"); ok {
		return ip.Eval(elseNode)
	}
	return nil, nil
}

func isTruthy(n *node.Node) bool {
	if n.IsNull() {
		return false
	}
	switch {
	case n.IsScalar():
		switch v := n.Value.(type) {
		case bool:
			return v
		case string:
			return v != ""
		case int64:
			return v != 0
		case float64:
			return v != 0
		default:
			return true
		}
	case n.IsMapping():
		return len(n.Keys) > 0
	case n.IsSequence():
		return len(n.Elems) > 0
	default:
		return false
	}
}

// handleDefine implements .define: update the current top frame with
// every evaluated binding; it never contributes output (section 4.F.2).
func (ip *Interpreter) handleDefine(val *node.Node) error {
	if !val.IsMapping() {
		return errs.New(errs.TypeError, val.Pos.Line, ".define: value must be a mapping")
	}
	for _, k := range val.Keys {
		v, _ := val.Get(k)
		ev, err := ip.Eval(v)
		if err != nil {
			return err
		}
		ip.Stack.Define(k, ev)
	}
	return nil
}

// handleFunction implements .function: {.name, .args, .do}, storing a
// Function object under .name in the current top frame. The body is not
// evaluated here (section 4.F.4).
func (ip *Interpreter) handleFunction(val *node.Node) error {
	nameNode, ok := val.Get(".name")
	if !ok {
		return errs.New(errs.KeyNotFound, val.Pos.Line, ".function: missing .name")
	}
	name, ok := nameNode.AsString()
	if !ok {
		return errs.New(errs.TypeError, val.Pos.Line, ".function: .name must be a string")
	}
	argsNode, ok := val.Get(".args")
	if !ok {
		return errs.New(errs.KeyNotFound, val.Pos.Line, ".function: missing .args")
	}
	args := make([]string, len(argsNode.Elems))
	for i, a := range argsNode.Elems {
		s, ok := a.AsString()
		if !ok {
			return errs.New(errs.TypeError, val.Pos.Line, ".function: .args entries must be identifier strings")
		}
		args[i] = s
	}
	body, ok := val.Get(".do")
	if !ok {
		return errs.New(errs.KeyNotFound, val.Pos.Line, ".function: missing .do")
	}
	ip.Stack.Define(name, &Function{
		Args:     args,
		Body:     body,
		Snapshot: ip.Stack.Snapshot(),
		Pos:      val.Pos,
	})
	return nil
}

// handleCall implements .call: {.name, .args}: arguments are evaluated in
// the caller's scope, zipped with the formal names, and the body is
// evaluated with that argument frame pushed on the function's captured
// stack (section 4.F.4).
func (ip *Interpreter) handleCall(val *node.Node) (*node.Node, error) {
	nameNode, ok := val.Get(".name")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".call: missing .name")
	}
	name, ok := nameNode.AsString()
	if !ok {
		return nil, errs.New(errs.TypeError, val.Pos.Line, ".call: .name must be a string")
	}
	bound, ok := ip.Stack.Lookup(name)
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, "'%s' not found", name)
	}
	fn, ok := bound.(*Function)
	if !ok {
		return nil, errs.New(errs.TypeError, val.Pos.Line, "'%s' is not a function", name)
	}
	argsNode, ok := val.Get(".args")
	if !ok {
		return nil, errs.New(errs.KeyNotFound, val.Pos.Line, ".call: missing .args")
	}
	if len(argsNode.Elems) != len(fn.Args) {
		return nil, errs.New(errs.ArgumentMismatch, val.Pos.Line,
			"'%s' expects %d argument(s), got %d", name, len(fn.Args), len(argsNode.Elems))
	}

	argFrame := make(map[string]any, len(fn.Args))
	for i, formal := range fn.Args {
		ev, err := ip.Eval(argsNode.Elems[i])
		if err != nil {
			return nil, err
		}
		argFrame[formal] = ev
	}

	restore := ip.Stack.EnterCall(fn.Snapshot, argFrame)
	result, err := ip.Eval(fn.Body)
	restore()
	return result, err
}

// handleImport implements .import: <path-expr>, a textual inclusion: the
// target file is loaded and its root node processed with the current
// stack (section 4.F.6).
func (ip *Interpreter) handleImport(val *node.Node) (*node.Node, error) {
	pathVal, err := ip.Eval(val)
	if err != nil {
		return nil, err
	}
	rel, ok := pathVal.AsString()
	if !ok {
		return nil, errs.New(errs.TypeError, val.Pos.Line, ".import: path must evaluate to a string")
	}
	full, err := ip.resolvePath(rel)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return nil, errs.Wrap(errs.Load, val.Pos.Line, err, ".import %q: %s", rel, err)
	}
	_, root, err := loader.Load(full, string(src))
	if err != nil {
		return nil, err
	}
	return ip.Eval(root)
}

// handleModule implements .module: <path-expr>, loading an external
// bindings provider and merging its exports into the current top frame
// (section 4.F.7).
func (ip *Interpreter) handleModule(val *node.Node) error {
	pathVal, err := ip.Eval(val)
	if err != nil {
		return err
	}
	rel, ok := pathVal.AsString()
	if !ok {
		return errs.New(errs.TypeError, val.Pos.Line, ".module: path must evaluate to a string")
	}
	full, err := ip.resolvePath(rel)
	if err != nil {
		return err
	}
	provider, err := modules.Load(full)
	if err != nil {
		return atLine(err, val.Pos.Line)
	}
	for k, v := range provider.Vals {
		ip.Stack.Define(k, v)
	}
	for k, v := range provider.Filters {
		ip.Stack.DefineFilter(k, v)
	}
	return nil
}

// handleExport implements .export: {.filename, .format?, .content|.do}.
// Both the .content and .do payload keys are accepted as aliases of each
// other, per the spec's explicit tolerance of either name.
func (ip *Interpreter) handleExport(val *node.Node) error {
	filenameNode, ok := val.Get(".filename")
	if !ok {
		return errs.New(errs.KeyNotFound, val.Pos.Line, ".export: missing .filename")
	}
	fnEval, err := ip.Eval(filenameNode)
	if err != nil {
		return err
	}
	filename, ok := fnEval.AsString()
	if !ok {
		return errs.New(errs.TypeError, val.Pos.Line, ".export: .filename must evaluate to a string")
	}

	var payloadNode *node.Node
	if c, ok := val.Get(".content"); ok {
		payloadNode = c
	} else if d, ok := val.Get(".do"); ok {
		payloadNode = d
	} else {
		return errs.New(errs.KeyNotFound, val.Pos.Line, ".export: missing .content or .do")
	}
	payload, err := ip.Eval(payloadNode)
	if err != nil {
		return err
	}

	format := serialize.InferFormat(filename)
	if formatNode, ok := val.Get(".format"); ok {
		s, ok := formatNode.AsString()
		if !ok {
			return errs.New(errs.TypeError, val.Pos.Line, ".export: .format must be a string")
		}
		format = serialize.Format(s)
	}

	text, err := serialize.Serialize(payload, format)
	if err != nil {
		return atLine(err, val.Pos.Line)
	}

	full, err := ip.resolvePath(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
		return errs.Wrap(errs.Load, val.Pos.Line, err, ".export %q: %s", filename, err)
	}
	return nil
}
