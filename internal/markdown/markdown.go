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

// Package markdown provides the `to_html` base-frame filter. The
// Markdown renderer itself is an external collaborator (section 1): this
// package is the thin adapter that exposes it as one unary filter
// callable from a template pipeline, nothing more.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// ToHTML renders v (expected to be a markdown string) to HTML. Non-string
// input is an error: the filter operates on text, not structured nodes.
func ToHTML(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("to_html: value is %T, not a string", v)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("to_html: %w", err)
	}
	return buf.String(), nil
}
