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

package eval

import (
	"errors"
	"testing"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/stack"
)

func TestEvaluateArithmetic(t *testing.T) {
	stk := stack.New(map[string]any{"a": int64(3), "b": int64(4)}, nil)
	n, err := Evaluate("{{a+b}}", node.Pos{}, stk)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n.Value != int64(7) {
		t.Fatalf("got %v (%T), want int64(7)", n.Value, n.Value)
	}
}

func TestEvaluateMixedText(t *testing.T) {
	stk := stack.New(map[string]any{"svc": "api", "port": int64(8080)}, nil)
	n, err := Evaluate("{{svc}}:{{port}}", node.Pos{}, stk)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n.Value != "api:8080" {
		t.Fatalf("got %v, want api:8080", n.Value)
	}
}

func TestEvaluateUndefinedNameIsStrict(t *testing.T) {
	stk := stack.New(nil, nil)
	_, err := Evaluate("{{missing}}", node.Pos{Line: 7}, stk)
	if err == nil {
		t.Fatal("expected an error referencing an undefined name")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.UndefinedName {
		t.Fatalf("got %v, want UndefinedName", err)
	}
}

func TestEvaluatePlainTextPassesThrough(t *testing.T) {
	stk := stack.New(nil, nil)
	n, err := Evaluate("just text", node.Pos{}, stk)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n.Value != "just text" {
		t.Fatalf("got %v, want %q", n.Value, "just text")
	}
}

// TestQuoteDequoteRoundTrip exercises invariant 5: dequote(quote(s)) ==
// literal_eval(s), and quote(quote(s)) == quote(s).
func TestQuoteDequoteRoundTrip(t *testing.T) {
	q := Quote(int64(42))
	if q2 := Quote(q); q2 != q {
		t.Fatalf("quote is not idempotent: quote(quote(x)) = %q, quote(x) = %q", q2, q)
	}

	v, err := Dequote(q)
	if err != nil {
		t.Fatalf("Dequote: %v", err)
	}
	if v != int64(42) {
		t.Fatalf("Dequote(Quote(42)) = %v (%T), want int64(42)", v, v)
	}
}

func TestFinishStringTypedReparse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"3.5", 3.5},
		{"true", true},
		{"null", nil},
		{"hello world", "hello world"},
	} {
		n := finishString(tc.in, node.Pos{})
		if n.Value != tc.want {
			t.Errorf("finishString(%q) = %v (%T), want %v (%T)", tc.in, n.Value, n.Value, tc.want, tc.want)
		}
	}
}
