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

// Package eval implements the expression evaluator: scalar strings are
// template expressions, rendered against the scope stack by a black-box
// sub-language (github.com/expr-lang/expr, chosen for its infix
// arithmetic, pipe operator, and strict-undefined-name semantics against a
// plain map environment) and then re-parsed as a typed literal.
//
// Per the design, the sub-language is an adapter boundary: the two-stage
// "render then literal-parse" contract lives here, not in the template
// engine itself, so the engine can be swapped without touching callers.
package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/loader"
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/stack"
)

// Sentinel is the literal sentinel prefix (see spec section 6): a value
// beginning with it is already a quoted literal and is returned verbatim,
// sentinel stripped.
const Sentinel = "#!literal"

var placeholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// wholeExpr matches a string that, after trimming, begins with {{ and ends
// with }}. Evaluate also requires the captured inner text to contain no
// "}}", so only a string that is exactly one placeholder counts.
var wholeExpr = regexp.MustCompile(`^\{\{(.*)\}\}$`)

// Evaluate renders text against stk and returns a typed Node: the
// rendered text is re-parsed as an integer, float, boolean, null, list,
// mapping, or quoted string; if none of those apply the raw rendered text
// is returned as a string scalar.
func Evaluate(text string, pos node.Pos, stk *stack.Stack) (*node.Node, error) {
	trimmed := strings.TrimSpace(text)
	if m := wholeExpr.FindStringSubmatch(trimmed); m != nil && !strings.Contains(m[1], "}}") {
		v, err := runExpr(m[1], pos, stk)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok {
			return finishString(s, pos), nil
		}
		return fromGoValue(v, pos), nil
	}

	rendered, err := renderMixed(text, pos, stk)
	if err != nil {
		return nil, err
	}
	return finishString(rendered, pos), nil
}

// renderMixed substitutes every {{ expr }} placeholder in text with the
// stringified result of evaluating expr, leaving surrounding literal text
// untouched.
func renderMixed(text string, pos node.Pos, stk *stack.Stack) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if firstErr != nil {
			return ""
		}
		inner := placeholder.FindStringSubmatch(m)[1]
		v, err := runExpr(inner, pos, stk)
		if err != nil {
			firstErr = err
			return ""
		}
		return stringify(v)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// runExpr compiles and evaluates a single expression against the names
// and filters currently visible on the stack.
func runExpr(src string, pos node.Pos, stk *stack.Stack) (any, error) {
	env := buildEnv(stk)
	program, err := expr.Compile(strings.TrimSpace(src), expr.Env(env))
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") {
			return nil, errs.New(errs.UndefinedName, pos.Line, "%s", err)
		}
		return nil, errs.New(errs.TypeError, pos.Line, "invalid expression %q: %s", src, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, errs.Wrap(errs.TypeError, pos.Line, err, "evaluating %q: %s", src, err)
	}
	return out, nil
}

// buildEnv flattens the stack's visible names and filters into the plain
// map[string]any expr-lang evaluates against, converting Node-valued
// bindings into native Go values so dotted attribute access and
// arithmetic work against them.
func buildEnv(stk *stack.Stack) map[string]any {
	env := make(map[string]any)
	for k, v := range stk.Names() {
		env[k] = toAny(v)
	}
	for k, v := range stk.Filters() {
		env[k] = v
	}
	return env
}

// finishString applies the literal-sentinel rule to a fully rendered
// string: a sentinel-prefixed string is returned verbatim as a string
// scalar with the sentinel stripped; any other string goes through the
// typed re-parse stage.
func finishString(s string, pos node.Pos) *node.Node {
	if rest, ok := strings.CutPrefix(s, Sentinel); ok {
		return node.NewScalar(pos, rest)
	}
	return reparseOrRaw(s, pos)
}

// reparseOrRaw attempts to parse s as a YAML literal (the superset this
// implementation uses in place of the reference interpreter's
// ast.literal_eval); on any failure, or for the empty string, s is kept
// verbatim as a string scalar.
func reparseOrRaw(s string, pos node.Pos) *node.Node {
	if s == "" {
		return node.NewScalar(pos, "")
	}
	_, n, err := loader.Load("<expression>", s)
	if err != nil || n == nil {
		return node.NewScalar(pos, s)
	}
	n.Pos = pos
	return n
}

// Quote implements the `quote` filter: idempotently marks a value as an
// already-evaluated literal.
func Quote(v any) string {
	if s, ok := v.(string); ok && strings.HasPrefix(s, Sentinel) {
		return s
	}
	return Sentinel + stringify(v)
}

// Dequote implements the `dequote` filter: strips the sentinel if present
// and deserializes the remainder as a literal.
func Dequote(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errs.New(errs.TypeError, 0, "dequote: value is %T, not a string", v)
	}
	s = strings.TrimPrefix(s, Sentinel)
	n := reparseOrRaw(s, node.Pos{})
	return toAny(n), nil
}

// stringify renders a Go value (as produced by expr or by a filter) into
// the text that is spliced into a mixed-text template, or re-parsed
// verbatim when the value itself is a string.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		if n, ok := v.(*node.Node); ok {
			v = toAny(n)
		}
		return fmt.Sprint(v)
	}
}

// toAny converts a Node into the plain Go value expr-lang operates on:
// map[string]any for mappings, []any for sequences, and the scalar's
// native Go value otherwise. Non-Node values (host capabilities, filter
// functions, Function objects) pass through unchanged.
func toAny(v any) any {
	n, ok := v.(*node.Node)
	if !ok {
		return v
	}
	switch n.Kind {
	case node.Mapping:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			m[k] = toAny(n.Values[i])
		}
		return m
	case node.Sequence:
		s := make([]any, len(n.Elems))
		for i, e := range n.Elems {
			s[i] = toAny(e)
		}
		return s
	default:
		return n.Value
	}
}

// fromGoValue converts an arbitrary Go value (an expr result, a filter's
// return value) back into a Node.
func fromGoValue(v any, pos node.Pos) *node.Node {
	switch val := v.(type) {
	case *node.Node:
		return val
	case nil:
		return node.NewScalar(pos, nil)
	case string, bool, int64, float64:
		return node.NewScalar(pos, val)
	case int:
		return node.NewScalar(pos, int64(val))
	case float32:
		return node.NewScalar(pos, float64(val))
	case map[string]any:
		m := node.NewMapping(pos)
		for k, vv := range val {
			m.Set(k, fromGoValue(vv, pos))
		}
		return m
	case []any:
		s := node.NewSequence(pos)
		for _, vv := range val {
			s.Append(fromGoValue(vv, pos))
		}
		return s
	default:
		return node.NewScalar(pos, fmt.Sprint(val))
	}
}
