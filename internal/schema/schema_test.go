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

package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/yamlpp/protein/internal/errs"
	"github.com/yamlpp/protein/internal/loader"
)

func TestValidateAcceptsPlainMapping(t *testing.T) {
	_, n, err := loader.Load("<test>", "name: api\nport: 8080\n")
	if err != nil {
		t.Fatalf("loader.Load: %v", err)
	}
	if err := Validate(n); err != nil {
		t.Fatalf("Validate rejected a plain mapping: %v", err)
	}
}

func TestValidateAcceptsDoConstruct(t *testing.T) {
	_, n, err := loader.Load("<test>", ".do:\n  - a: 1\n  - b: 2\n")
	if err != nil {
		t.Fatalf("loader.Load: %v", err)
	}
	if err := Validate(n); err != nil {
		t.Fatalf("Validate rejected a valid .do construct: %v", err)
	}
}

func TestValidateRejectsUnknownConstructKey(t *testing.T) {
	_, n, err := loader.Load("<test>", ".bogus:\n  - 1\n")
	if err != nil {
		t.Fatalf("loader.Load: %v", err)
	}
	err = Validate(n)
	if err == nil {
		t.Fatal("expected a validation error for an unrecognized dotted key")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.Validation {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestValidateRejectsMalformedForeach(t *testing.T) {
	_, n, err := loader.Load("<test>", ".foreach:\n  .values: [onlyone]\n  .do: {}\n")
	if err != nil {
		t.Fatalf("loader.Load: %v", err)
	}
	err = Validate(n)
	if err == nil {
		t.Fatal("expected a validation error: .values must have exactly 2 items")
	}
}

func TestValidateErrorCarriesLine(t *testing.T) {
	_, n, err := loader.Load("<test>", "a: 1\n.switch:\n  .expr: \"x\"\n")
	if err != nil {
		t.Fatalf("loader.Load: %v", err)
	}
	err = Validate(n)
	if err == nil {
		t.Fatal("expected a validation error: mixing a plain key with a construct key")
	}
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v, want *errs.Error", err)
	}
	if e.Line == 0 {
		t.Fatal("expected a nonzero source line on the validation error")
	}
	if !strings.Contains(e.Error(), "ValidationError") {
		t.Fatalf("error text missing ValidationError kind: %s", e.Error())
	}
}
