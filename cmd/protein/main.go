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

// Command protein loads, optionally validates, renders, and emits a
// YAMLpp document: load -> validate (optional) -> render -> emit.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/yamlpp/protein/cmd/protein/cmd"
	"github.com/yamlpp/protein/internal/errs"
)

func main() {
	os.Exit(Main())
}

// Main runs the CLI and returns its exit code. Split out from main so
// testscript's RunMain can register it as an in-process "protein"
// command for the CLI's black-box script tests.
func Main() int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatErr(err))
		return 1
	}
	return 0
}

// formatErr renders the CLI's required one-line error form for a YAMLpp
// error, falling back to the plain Go error text for anything else
// (flag-parsing failures, I/O errors that never reached the interpreter).
func formatErr(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
