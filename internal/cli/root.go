/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the travelstory command line: every editor
// operation is a subcommand that loads the saved journal, applies one
// change and saves it again.
package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string
	Storage    string
	ExportDir  string

	// DotEnv is the .env file read before env overrides; empty disables it.
	DotEnv string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the travelstory CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{DotEnv: ".env"}

	cmd := &cobra.Command{
		Use:   "travelstory",
		Short: "Travel Story Journal",
		Long: `Travel Story Journal arranges photos, stickers and text on a single page
and exports it as a PDF, a PNG or an animated preview.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default: user config dir)")
	pf.StringVar(&opts.DataDir, "data-dir", "", "directory holding the saved journal")
	pf.StringVar(&opts.Storage, "storage", "", "storage backend (file|sqlite|memory)")
	pf.StringVar(&opts.ExportDir, "out", "", "directory exports are written to")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewResizeCommand(opts))
	cmd.AddCommand(NewRotateCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewStyleCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewThemeCommand(opts))
	cmd.AddCommand(NewThemesCommand(opts))
	cmd.AddCommand(NewStickersCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewUICommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	format, _ := cmd.PersistentFlags().GetString("format")
	out := &OutputFormatter{Format: format, Writer: stderr}
	if format == "json" {
		out.Writer = stdout
	}
	_ = out.Error(err)
	return GetExitCode(err)
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
