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

// Package loader parses YAMLpp source text into a node.Node tree,
// attaching 1-based line/column positions to every node so that later
// stages (the validator, the interpreter) can qualify their errors.
//
// Duplicate keys within a single mapping are rejected at load time, as
// required by the language: a YAMLpp document with a repeated key is not a
// valid program.
package loader

import (
	"fmt"
	"strconv"

	yaml "go.yaml.in/yaml/v3"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/node"
)

// Load parses source text (by convention the contents of a .yamlpp file)
// and returns the original text alongside its Node tree. The text is
// returned so that callers can re-display the offending line in error
// messages without re-reading the file.
func Load(filename string, text string) (string, *node.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return text, nil, errs.Wrap(errs.Load, 0, err, "%s: %s", filename, err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return text, node.NewScalar(node.Pos{}, nil), nil
	}
	c := &converter{anchors: make(map[*yaml.Node]*node.Node)}
	n, err := c.convert(&doc)
	if err != nil {
		return text, nil, err
	}
	return text, n, nil
}

// converter tracks anchored nodes by the identity of their originating
// *yaml.Node, so that every alias referencing the same anchor resolves
// to the same *node.Node pointer. Two Go values sharing one pointer is
// how this tree represents a YAML anchor/alias pair; the serializer
// later detects that sharing by pointer equality to re-emit it (or, for
// flattened formats, to expand it by value).
type converter struct {
	anchors map[*yaml.Node]*node.Node
}

// convert walks a decoded *yaml.Node tree and produces the equivalent
// node.Node, resolving document wrappers and checking for duplicate keys.
func (c *converter) convert(yn *yaml.Node) (*node.Node, error) {
	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return node.NewScalar(pos(yn), nil), nil
		}
		return c.convert(yn.Content[0])

	case yaml.AliasNode:
		if n, ok := c.anchors[yn.Alias]; ok {
			return n, nil
		}
		return c.convert(yn.Alias)

	case yaml.MappingNode:
		return c.convertMapping(yn)

	case yaml.SequenceNode:
		seq := node.NewSequence(pos(yn))
		if yn.Anchor != "" {
			c.anchors[yn] = seq
		}
		for _, ch := range yn.Content {
			elem, err := c.convert(ch)
			if err != nil {
				return nil, err
			}
			seq.Append(elem)
		}
		return seq, nil

	case yaml.ScalarNode:
		v, err := scalarValue(yn)
		if err != nil {
			return nil, err
		}
		n := node.NewScalar(pos(yn), v)
		if yn.Anchor != "" {
			c.anchors[yn] = n
		}
		return n, nil

	default:
		return nil, errs.New(errs.Load, yn.Line, "unsupported YAML node kind %d", yn.Kind)
	}
}

func (c *converter) convertMapping(yn *yaml.Node) (*node.Node, error) {
	m := node.NewMapping(pos(yn))
	if yn.Anchor != "" {
		c.anchors[yn] = m
	}
	seen := make(map[string]bool, len(yn.Content)/2)
	for i := 0; i+1 < len(yn.Content); i += 2 {
		keyNode := yn.Content[i]
		valNode := yn.Content[i+1]
		key, err := scalarValue(keyNode)
		if err != nil {
			return nil, err
		}
		keyStr, ok := key.(string)
		if !ok {
			keyStr = fmt.Sprint(key)
		}
		if seen[keyStr] {
			return nil, errs.New(errs.Load, keyNode.Line, "duplicate key %q in mapping", keyStr)
		}
		seen[keyStr] = true
		val, err := c.convert(valNode)
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, keyStr)
		m.Values = append(m.Values, val)
	}
	return m, nil
}

func pos(yn *yaml.Node) node.Pos {
	return node.Pos{Line: yn.Line, Column: yn.Column}
}

// scalarValue resolves a YAML scalar node to its typed Go value following
// standard YAML 1.2 core-schema tag resolution. Values that resolved as
// quoted strings (Tag == "!!str" from an explicit quoting style) are never
// reinterpreted as int/float/bool -- only plain (unquoted) scalars are.
func scalarValue(yn *yaml.Node) (any, error) {
	if yn.Kind != yaml.ScalarNode {
		// Only mapping keys are passed here: a non-scalar key (a mapping,
		// a sequence, or an alias) is rejected at load time.
		return nil, errs.New(errs.Load, yn.Line, "mapping keys must be scalars")
	}
	switch yn.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		b, err := strconv.ParseBool(yn.Value)
		if err != nil {
			return nil, errs.New(errs.Load, yn.Line, "invalid bool %q", yn.Value)
		}
		return b, nil
	case "!!int":
		i, err := strconv.ParseInt(yn.Value, 0, 64)
		if err != nil {
			return nil, errs.New(errs.Load, yn.Line, "invalid int %q", yn.Value)
		}
		return i, nil
	case "!!float":
		f, err := strconv.ParseFloat(yn.Value, 64)
		if err != nil {
			return nil, errs.New(errs.Load, yn.Line, "invalid float %q", yn.Value)
		}
		return f, nil
	default:
		// "!!str" and any other/custom tag: carried verbatim as a string,
		// to be evaluated as a template expression downstream.
		return yn.Value, nil
	}
}
