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

// Package modules implements .module: loading an external bindings
// provider, a plain Go source file, and exposing its exported
// package-level vars and funcs as the name/value tables the interpreter
// merges into the current frame (section 4.F.7). The provider is
// evaluated by an embedded Go interpreter rather than compiled and
// loaded as a plugin, so a module works the same way on every platform
// and needs no build step of its own.
package modules

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/yamlpp/protein/internal/errs"
)

// Provider is the result of loading one module: the bindings destined
// for the frame's variable table and the filters destined for its
// filter table, split by the exported identifier's shape (func vs
// anything else).
type Provider struct {
	Vals    map[string]any
	Filters map[string]any
}

// Load reads the Go source file at path, evaluates it with an embedded
// interpreter, and returns its exported package-level declarations.
// Funcs become filters; everything else becomes a plain binding.
func Load(path string) (*Provider, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Load, 0, err, "module %q: %s", path, err)
	}

	pkgName, names, err := exportedNames(path, src)
	if err != nil {
		return nil, errs.Wrap(errs.Load, 0, err, "module %q: %s", path, err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errs.Wrap(errs.Load, 0, err, "module %q: loading standard library: %s", path, err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, errs.Wrap(errs.Load, 0, err, "module %q: %s", path, err)
	}

	p := &Provider{Vals: map[string]any{}, Filters: map[string]any{}}
	for _, kind := range names {
		v, err := i.Eval(pkgName + "." + kind.name)
		if err != nil {
			return nil, errs.Wrap(errs.Load, 0, err, "module %q: resolving %s: %s", path, kind.name, err)
		}
		if !v.IsValid() {
			continue
		}
		if kind.isFunc {
			p.Filters[kind.name] = v.Interface()
		} else {
			p.Vals[kind.name] = dereference(v).Interface()
		}
	}
	return p, nil
}

func dereference(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

type exportedID struct {
	name   string
	isFunc bool
}

// exportedNames parses src far enough to list the package's exported
// top-level var, const, and func identifiers, since yaegi itself has no
// "list the package symbols" call -- the set of names to resolve has to
// be known up front.
func exportedNames(path string, src []byte) (string, []exportedID, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return "", nil, fmt.Errorf("parsing module: %w", err)
	}

	var out []exportedID
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				out = append(out, exportedID{name: d.Name.Name, isFunc: true})
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR && d.Tok != token.CONST {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, ident := range vs.Names {
					if ident.IsExported() {
						out = append(out, exportedID{name: ident.Name})
					}
				}
			}
		}
	}
	return f.Name.Name, out, nil
}
