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

// Package hostenv builds the base frame: the fixed set of host-provided
// bindings and filters every YAMLpp program sees without a .module
// import (section 6). getenv and assert are real; get_password and
// osquery are named capabilities whose backends (an OS keyring, osquery)
// are deliberately out of scope for this interpreter (section 1) and so
// are wired as a pluggable Capabilities interface rather than built in.
package hostenv

import (
	"fmt"
	"os"

	"github.com/Masterminds/sprig/v3"

	"github.com/yamlpp/protein/internal/eval"
	"github.com/yamlpp/protein/internal/markdown"
)

// Capabilities lets a host supply real keyring/osquery backends without
// the interpreter core depending on any specific implementation of
// either. BaseBindings falls back to Defaults, whose methods all report
// "not configured", when it is given a nil Capabilities.
type Capabilities interface {
	GetPassword(service, account string) (string, error)
	OSQuery(query string) ([]map[string]any, error)
}

// Defaults refuses every capability, matching the non-goal that OS
// keyring and osquery access are external collaborators, not part of the
// interpreter's hard core.
type Defaults struct{}

func (Defaults) GetPassword(service, account string) (string, error) {
	return "", fmt.Errorf("get_password: no keyring backend configured for %s/%s", service, account)
}

func (Defaults) OSQuery(query string) ([]map[string]any, error) {
	return nil, fmt.Errorf("osquery: no backend configured for query %q", query)
}

// BaseBindings returns the fixed names of the base frame.
func BaseBindings(caps Capabilities) map[string]any {
	if caps == nil {
		caps = Defaults{}
	}
	return map[string]any{
		"getenv": func(name string) string {
			return os.Getenv(name)
		},
		"get_password": func(service, account string) (string, error) {
			return caps.GetPassword(service, account)
		},
		"osquery": func(query string) ([]map[string]any, error) {
			return caps.OSQuery(query)
		},
		"assert": func(cond bool, msg ...string) (bool, error) {
			if !cond {
				if len(msg) > 0 {
					return false, fmt.Errorf("assertion failed: %s", msg[0])
				}
				return false, fmt.Errorf("assertion failed")
			}
			return true, nil
		},
	}
}

// BaseFilters returns the fixed filter table: the language's
// quote/dequote escape hatch, the to_html Markdown filter, and the whole
// of Sprig's string/math/date helper set so YAMLpp templates get the
// same pipeline vocabulary as the rest of the ecosystem.
func BaseFilters() map[string]any {
	filters := map[string]any{
		"quote":   eval.Quote,
		"dequote": eval.Dequote,
		"to_html": markdown.ToHTML,
	}
	for name, fn := range sprig.GenericFuncMap() {
		if _, exists := filters[name]; !exists {
			filters[name] = fn
		}
	}
	return filters
}
