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

// Package schema validates a loaded Node tree against the YAMLpp
// JSON-Schema Draft-7 document, embedded at build time. Validation is
// optional (the interpreter can run on an unvalidated tree); when it
// runs, the first error by instance path aborts evaluation.
package schema

import (
	_ "embed"
	"sort"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/node"
)

//go:embed yamlpp_schema.json
var schemaSource []byte

var compiled = compileSchema()

// compileSchema compiles the embedded schema exactly once and panics if
// the schema itself is malformed -- a build-time invariant, not a runtime
// condition the caller needs to recover from.
func compileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("yamlpp_schema.json", strings.NewReader(string(schemaSource))); err != nil {
		panic("schema: embedded schema is invalid: " + err.Error())
	}
	s, err := c.Compile("yamlpp_schema.json")
	if err != nil {
		panic("schema: embedded schema failed to compile: " + err.Error())
	}
	return s
}

// lineIndex records, for every JSON-pointer path the schema validator can
// report, the source line of the Node it corresponds to, so that errors
// can be qualified the way the rest of the interpreter qualifies them.
type lineIndex struct {
	lines map[string]int
}

func newLineIndex(n *node.Node) *lineIndex {
	li := &lineIndex{lines: make(map[string]int)}
	li.walk("", n)
	return li
}

func (li *lineIndex) walk(path string, n *node.Node) {
	if n == nil {
		return
	}
	li.lines[path] = n.Pos.Line
	switch n.Kind {
	case node.Mapping:
		for i, k := range n.Keys {
			li.walk(path+"/"+jsonPointerEscape(k), n.Values[i])
		}
	case node.Sequence:
		for i, e := range n.Elems {
			li.walk(path+"/"+strconv.Itoa(i), e)
		}
	}
}

func jsonPointerEscape(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

// toJSON converts a Node into the plain interface{} shape the jsonschema
// package validates (the same shape encoding/json would produce).
func toJSON(n *node.Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case node.Mapping:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			m[k] = toJSON(n.Values[i])
		}
		return m
	case node.Sequence:
		s := make([]any, len(n.Elems))
		for i, e := range n.Elems {
			s[i] = toJSON(e)
		}
		return s
	default:
		return n.Value
	}
}

// Validate checks n against the YAMLpp schema. If any violation is found,
// the first error ordered by JSON-pointer path is returned as a
// *errs.Error of kind Validation, qualified with the source line of the
// offending sub-node. The message does not list the allowed keys of an
// additionalProperties violation.
func Validate(n *node.Node) error {
	doc := toJSON(n)
	err := compiled.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errs.New(errs.Validation, n.Pos.Line, "%s", err)
	}
	causes := flatten(ve)
	sort.Slice(causes, func(i, j int) bool {
		return causes[i].InstanceLocation < causes[j].InstanceLocation
	})
	if len(causes) == 0 {
		return errs.New(errs.Validation, n.Pos.Line, "%s", err)
	}
	first := causes[0]
	li := newLineIndex(n)
	line := li.lines[first.InstanceLocation]
	return errs.New(errs.Validation, line, "%s: %s", first.InstanceLocation, summarize(first))
}

// flatten walks the validation error's Causes tree and returns only its
// leaves, which name the actual schema-keyword violation rather than the
// anyOf wrapper around it.
func flatten(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, flatten(c)...)
	}
	return out
}

// summarize turns a validation error into a short human message: the
// library's error text after its first ": ". It is applied to a single
// leaf violation, so an anyOf failure is reported as that one leaf rather
// than dumped whole; the allowed keys of an additionalProperties violation
// are not listed.
func summarize(ve *jsonschema.ValidationError) string {
	msg := ve.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		msg = msg[idx+2:]
	}
	return msg
}
