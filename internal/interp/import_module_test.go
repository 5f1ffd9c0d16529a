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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yamlpp/protein/internal/errs"
)

func TestImportInlinesAnotherDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "partial.yaml"), []byte("shared: 42\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	out, err := render(t, dir, `
imported:
  .import: partial.yaml
`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	shared := get(t, out, "imported", "shared")
	if shared.Value != int64(42) {
		t.Fatalf("imported.shared = %v, want 42", shared.Value)
	}
}

func TestImportRejectsPathEscape(t *testing.T) {
	_, err := render(t, t.TempDir(), `
x:
  .import: "../outside.yaml"
`)
	if err == nil {
		t.Fatal("expected a PathEscape error")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.PathEscape {
		t.Fatalf("got %v, want PathEscape", err)
	}
}

func TestModuleBindingsAreUsableAfterLoad(t *testing.T) {
	dir := t.TempDir()
	moduleSrc := `package greeting

var Banner = "hi"

func Shout(s string) string {
	return s + "!"
}
`
	if err := os.WriteFile(filepath.Join(dir, "greeting.go"), []byte(moduleSrc), 0o644); err != nil {
		t.Fatalf("writing module fixture: %v", err)
	}

	out, err := render(t, dir, `
.module: greeting.go
banner: "{{Banner}}"
shouted: "{{Banner | Shout}}"
`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v, _ := out.Get("banner"); v.Value != "hi" {
		t.Fatalf("banner = %v, want hi", v.Value)
	}
	if v, _ := out.Get("shouted"); v.Value != "hi!" {
		t.Fatalf("shouted = %v, want hi!", v.Value)
	}
}

func TestModuleMissingFileSurfacesLoadError(t *testing.T) {
	_, err := render(t, t.TempDir(), `
.module: nope.go
`)
	if err == nil {
		t.Fatal("expected an error for a missing module file")
	}
}
