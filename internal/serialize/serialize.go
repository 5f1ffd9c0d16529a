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

// Package serialize emits a rendered Node tree as YAML, JSON, TOML, or a
// Python-literal expression (section 4.G). YAML output preserves
// anchors/aliases by walking the tree once to find Node pointers
// referenced more than once and re-emitting them as a single anchored
// node plus aliases; every other format first flattens the tree (anchors
// resolved by value, cycles rejected) and then marshals the plain result.
package serialize

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/node"
)

// Format names the four supported output encodings.
type Format string

const (
	YAML   Format = "yaml"
	JSON   Format = "json"
	TOML   Format = "toml"
	Python Format = "python"
)

// InferFormat guesses an output format from a filename's extension,
// falling back to YAML when the extension is unrecognized -- the
// default a .export block uses when its own .format key is absent.
func InferFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	case ".py":
		return Python
	default:
		return YAML
	}
}

// Serialize renders n in the given format.
func Serialize(n *node.Node, format Format) (string, error) {
	switch format {
	case "", YAML:
		return toYAML(n)
	case JSON:
		flat, err := Flatten(n)
		if err != nil {
			return "", err
		}
		return toJSONText(flat)
	case TOML:
		flat, err := Flatten(n)
		if err != nil {
			return "", err
		}
		return toTOMLText(flat)
	case Python:
		flat, err := Flatten(n)
		if err != nil {
			return "", err
		}
		return toPythonLiteral(flat), nil
	default:
		return "", errs.New(errs.TypeError, n.Pos.Line, "unknown output format %q", format)
	}
}

// Flatten produces a plain copy of n with every shared pointer expanded
// by value, rejecting any genuine cycle. Flatten is idempotent: applying
// it to its own output reproduces the same plain tree, since the output
// never shares a pointer between two positions.
func Flatten(n *node.Node) (*node.Node, error) {
	return flattenRec(n, map[*node.Node]bool{})
}

func flattenRec(n *node.Node, onStack map[*node.Node]bool) (*node.Node, error) {
	if n == nil {
		return nil, nil
	}
	if onStack[n] {
		return nil, errs.New(errs.Validation, n.Pos.Line, "cycle detected while flattening tree for export")
	}
	switch n.Kind {
	case node.Scalar:
		return node.NewScalar(n.Pos, n.Value), nil
	case node.Sequence:
		onStack[n] = true
		defer delete(onStack, n)
		out := node.NewSequence(n.Pos)
		for _, e := range n.Elems {
			fe, err := flattenRec(e, onStack)
			if err != nil {
				return nil, err
			}
			out.Append(fe)
		}
		return out, nil
	case node.Mapping:
		onStack[n] = true
		defer delete(onStack, n)
		out := node.NewMapping(n.Pos)
		for i, k := range n.Keys {
			fv, err := flattenRec(n.Values[i], onStack)
			if err != nil {
				return nil, err
			}
			out.Set(k, fv)
		}
		return out, nil
	default:
		return node.NewScalar(n.Pos, nil), nil
	}
}

// --- YAML: anchor-preserving emission ---

func toYAML(n *node.Node) (string, error) {
	counts := make(map[*node.Node]int)
	countRefs(n, counts, make(map[*node.Node]bool))

	b := &yamlBuilder{counts: counts, built: make(map[*node.Node]*yaml.Node)}
	root, err := b.build(n)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return "", errs.Wrap(errs.TypeError, n.Pos.Line, err, "emitting yaml: %s", err)
	}
	return string(out), nil
}

// countRefs counts how many times each Node pointer is reached from the
// root. It descends into a node only on its first visit: a later visit is
// emitted as an alias, so its subtree is not reached again. This also
// stops descent into a node already on the current path so that a genuine
// cycle does not recurse forever -- YAML output is allowed to carry a
// cycle (an anchor referencing an ancestor), unlike Flatten.
func countRefs(n *node.Node, counts map[*node.Node]int, onStack map[*node.Node]bool) {
	if n == nil {
		return
	}
	counts[n]++
	if counts[n] > 1 || onStack[n] {
		return
	}
	onStack[n] = true
	switch n.Kind {
	case node.Mapping:
		for _, v := range n.Values {
			countRefs(v, counts, onStack)
		}
	case node.Sequence:
		for _, e := range n.Elems {
			countRefs(e, counts, onStack)
		}
	}
	delete(onStack, n)
}

type yamlBuilder struct {
	counts   map[*node.Node]int
	built    map[*node.Node]*yaml.Node
	anchorNo int
}

func (b *yamlBuilder) nextAnchor() string {
	b.anchorNo++
	return "a" + strconv.Itoa(b.anchorNo)
}

func (b *yamlBuilder) build(n *node.Node) (*yaml.Node, error) {
	if yn, ok := b.built[n]; ok {
		return &yaml.Node{Kind: yaml.AliasNode, Alias: yn}, nil
	}

	var yn *yaml.Node
	switch n.Kind {
	case node.Scalar:
		yn = &yaml.Node{}
		if err := yn.Encode(n.Value); err != nil {
			return nil, errs.Wrap(errs.TypeError, n.Pos.Line, err, "encoding scalar: %s", err)
		}
	case node.Sequence:
		yn = &yaml.Node{Kind: yaml.SequenceNode}
		b.built[n] = yn
		for _, e := range n.Elems {
			child, err := b.build(e)
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, child)
		}
	case node.Mapping:
		yn = &yaml.Node{Kind: yaml.MappingNode}
		b.built[n] = yn
		for i, k := range n.Keys {
			keyNode := &yaml.Node{}
			_ = keyNode.Encode(k)
			valNode, err := b.build(n.Values[i])
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, keyNode, valNode)
		}
	default:
		return nil, errs.New(errs.TypeError, n.Pos.Line, "cannot serialize node of kind %s", n.Kind)
	}

	if b.counts[n] > 1 {
		yn.Anchor = b.nextAnchor()
	}
	b.built[n] = yn
	return yn, nil
}

// --- JSON / TOML: delegate to the plain Go value shape ---

func toPlain(n *node.Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case node.Mapping:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			m[k] = toPlain(n.Values[i])
		}
		return m
	case node.Sequence:
		s := make([]any, len(n.Elems))
		for i, e := range n.Elems {
			s[i] = toPlain(e)
		}
		return s
	default:
		return n.Value
	}
}

func toJSONText(n *node.Node) (string, error) {
	out, err := json.MarshalIndent(toPlain(n), "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.TypeError, n.Pos.Line, err, "emitting json: %s", err)
	}
	return string(out), nil
}

func toTOMLText(n *node.Node) (string, error) {
	if !n.IsMapping() {
		return "", errs.New(errs.TypeError, n.Pos.Line, "toml output requires a mapping at the root, got %s", n.Kind)
	}
	out, err := toml.Marshal(toPlain(n))
	if err != nil {
		return "", errs.Wrap(errs.TypeError, n.Pos.Line, err, "emitting toml: %s", err)
	}
	return string(out), nil
}

// --- Python literal: a dict/list/scalar expression re-parseable by a
// literal evaluator, mirroring what the reference interpreter's own
// ast.literal_eval-based stage consumes. ---

func toPythonLiteral(n *node.Node) string {
	var sb strings.Builder
	writePython(&sb, toPlain(n))
	return sb.String()
}

func writePython(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("None")
	case bool:
		if val {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case string:
		sb.WriteString(pyQuote(val))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case []any:
		sb.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePython(sb, e)
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pyQuote(k))
			sb.WriteString(": ")
			writePython(sb, val[k])
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "%v", val)
	}
}

func pyQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
