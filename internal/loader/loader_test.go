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

package loader

import (
	"errors"
	"testing"

	"github.com/yamlpp/protein/internal/errs"
)

func TestLoadRejectsDuplicateKeys(t *testing.T) {
	_, _, err := Load("dup.yaml", "a: 1\na: 2\n")
	if err == nil {
		t.Fatal("expected a duplicate-key load error")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.Load {
		t.Fatalf("got %v, want LoadError", err)
	}
}

func TestLoadAttachesLineNumbers(t *testing.T) {
	_, root, err := Load("pos.yaml", "a: 1\nb: 2\n")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, _ := root.Get("b")
	if v.Pos.Line != 2 {
		t.Fatalf("b's line = %d, want 2", v.Pos.Line)
	}
}

func TestLoadTypesScalars(t *testing.T) {
	_, root, err := Load("types.yaml", "i: 3\nf: 2.5\nb: true\nn: null\ns: hi\nq: \"5\"\n")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cases := map[string]any{"i": int64(3), "f": 2.5, "b": true, "n": nil, "s": "hi", "q": "5"}
	for k, want := range cases {
		v, ok := root.Get(k)
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if v.Value != want {
			t.Errorf("%s = %v (%T), want %v (%T)", k, v.Value, v.Value, want, want)
		}
	}
}

// TestAliasSharesPointerIdentity exercises the anchor/alias preservation
// the serializer depends on: two keys referencing the same anchor must
// convert to the identical *node.Node pointer, not structurally-equal
// copies.
func TestAliasSharesPointerIdentity(t *testing.T) {
	_, root, err := Load("anchors.yaml", "base: &b {x: 1}\nderived: *b\n")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	base, _ := root.Get("base")
	derived, _ := root.Get("derived")
	if base != derived {
		t.Fatalf("base and derived do not share a pointer: %p vs %p", base, derived)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	_, root, err := Load("empty.yaml", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !root.IsNull() {
		t.Fatalf("empty document should load as null, got %v", root)
	}
}
