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

// Package errs defines the YAMLpp error taxonomy. Every error produced by
// the loader, validator, or interpreter carries a Kind and, where known,
// the 1-based source line of the offending node, so that the CLI can print
// the "[<Kind>] Line <n>: <message>" form required by the language's
// external interface.
package errs

import "fmt"

// Kind names an error category; it is not itself a Go error type, so that
// callers can still use errors.As/errors.Is against the concrete Error.
type Kind string

const (
	Load          Kind = "LoadError"
	Validation    Kind = "ValidationError"
	KeyNotFound   Kind = "KeyNotFound"
	IndexNotFound Kind = "IndexNotFound"
	ArgumentMismatch Kind = "ArgumentMismatch"
	UndefinedName Kind = "UndefinedName"
	TypeError     Kind = "TypeError"
	PathEscape    Kind = "PathEscape"
)

// Error is the single error type raised anywhere in the interpreter. Line
// is 0 when no source position is available yet; wrapping code should fill
// it in as the error propagates outward (see AtLine).
type Error struct {
	Kind    Kind
	Line    int
	Message string
	cause   error
}

func New(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, line int, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] Line %d: %s", e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// AtLine returns a copy of e with Line set, if it was not already set.
// Handlers use this to attach the position of the construct they were
// processing to an error raised deeper in the walk.
func (e *Error) AtLine(line int) *Error {
	if e.Line > 0 {
		return e
	}
	cp := *e
	cp.Line = line
	return &cp
}
