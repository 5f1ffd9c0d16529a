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

// Package cmd wires the protein CLI: a single cobra command that loads a
// YAMLpp document, optionally validates it against the language schema,
// renders it, and emits the result in the requested format.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yamlpp/protein/internal/hostenv"
	"github.com/yamlpp/protein/internal/interp"
	"github.com/yamlpp/protein/internal/loader"
	"github.com/yamlpp/protein/internal/node"
	"github.com/yamlpp/protein/internal/schema"
	"github.com/yamlpp/protein/internal/serialize"
	"github.com/yamlpp/protein/internal/stack"
)

var (
	flagValidate bool
	flagFormat   string
	flagOutput   string
)

var rootCmd = &cobra.Command{
	Use:           "protein <file>",
	Short:         "Render a YAMLpp/Protein document",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().BoolVar(&flagValidate, "validate", false, "validate the source against the language schema before rendering")
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "output format: yaml, json, toml, python (default inferred from --output, else yaml)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the rendered output here instead of stdout")
}

// Execute runs the CLI and returns the first error encountered, already
// in the language's "[<Kind>] Line <n>: <message>" form for YAMLpp
// errors (see internal/errs).
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	filename := args[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	_, root, err := loader.Load(filename, string(src))
	if err != nil {
		return err
	}

	if flagValidate {
		if err := schema.Validate(root); err != nil {
			return err
		}
	}

	stk := stack.New(hostenv.BaseBindings(nil), hostenv.BaseFilters())
	ip := interp.New(filepath.Dir(filename), stk)
	rendered, err := ip.Eval(root)
	if err != nil {
		return err
	}
	if rendered == nil {
		// The whole document evaluated to "no output" (e.g. a bare
		// .export); emit an empty mapping rather than a nil tree.
		rendered = node.NewMapping(root.Pos)
	}

	format := serialize.Format(flagFormat)
	if format == "" {
		if flagOutput != "" {
			format = serialize.InferFormat(flagOutput)
		} else {
			format = serialize.YAML
		}
	}

	out, err := serialize.Serialize(rendered, format)
	if err != nil {
		return err
	}

	if flagOutput == "" {
		_, err = cmd.OutOrStdout().Write([]byte(out))
		return err
	}
	return os.WriteFile(flagOutput, []byte(out), 0o644)
}
