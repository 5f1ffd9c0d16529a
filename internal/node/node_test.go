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

package node

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetPreservesOrderAndOverwrites(t *testing.T) {
	m := NewMapping(Pos{})
	m.Set("a", NewScalar(Pos{}, int64(1)))
	m.Set("b", NewScalar(Pos{}, int64(2)))
	m.Set("a", NewScalar(Pos{}, int64(99)))

	if got := m.Keys; !cmp.Equal(got, []string{"a", "b"}) {
		t.Fatalf("keys = %v, want [a b]", got)
	}
	v, ok := m.Get("a")
	if !ok || v.Value != int64(99) {
		t.Fatalf("Get(a) = %v, %v; want 99, true", v, ok)
	}
}

func TestMergeFoldsEntriesInOrder(t *testing.T) {
	dst := NewMapping(Pos{})
	dst.Set("x", NewScalar(Pos{}, int64(1)))
	src := NewMapping(Pos{})
	src.Set("y", NewScalar(Pos{}, int64(2)))
	src.Set("x", NewScalar(Pos{}, int64(42)))

	dst.Merge(src)

	if got := dst.Keys; !cmp.Equal(got, []string{"x", "y"}) {
		t.Fatalf("keys = %v, want [x y]", got)
	}
	v, _ := dst.Get("x")
	if v.Value != int64(42) {
		t.Fatalf("x = %v, want 42 (overwritten by merge)", v.Value)
	}
}

func TestIsConstructRequiresDotKey(t *testing.T) {
	plain := NewMapping(Pos{})
	plain.Set("name", NewScalar(Pos{}, "api"))
	if plain.IsConstruct() {
		t.Fatal("plain mapping reported as construct")
	}

	construct := NewMapping(Pos{})
	construct.Set(".do", NewSequence(Pos{}))
	if !construct.IsConstruct() {
		t.Fatal("mapping with .do key not reported as construct")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewMapping(Pos{})
	child := NewSequence(Pos{})
	child.Append(NewScalar(Pos{}, "a"))
	orig.Set("items", child)

	clone := orig.Clone()
	clonedChild, _ := clone.Get("items")
	clonedChild.Append(NewScalar(Pos{}, "b"))

	if len(child.Elems) != 1 {
		t.Fatalf("mutating the clone's child mutated the original: len=%d", len(child.Elems))
	}
}

func TestIsNull(t *testing.T) {
	var nilNode *Node
	if !nilNode.IsNull() {
		t.Fatal("nil *Node should report IsNull")
	}
	if !NewScalar(Pos{}, nil).IsNull() {
		t.Fatal("scalar nil should report IsNull")
	}
	if NewScalar(Pos{}, int64(0)).IsNull() {
		t.Fatal("scalar 0 should not report IsNull")
	}
}

func TestAsString(t *testing.T) {
	s, ok := NewScalar(Pos{}, "hi").AsString()
	if !ok || s != "hi" {
		t.Fatalf("AsString = %q, %v; want hi, true", s, ok)
	}
	if _, ok := NewScalar(Pos{}, int64(1)).AsString(); ok {
		t.Fatal("AsString on an int scalar should report ok=false")
	}
}
