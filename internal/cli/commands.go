/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"travelstory/internal/canvas"
	"travelstory/internal/catalog"
	"travelstory/internal/domain"
	"travelstory/internal/ui"
	"travelstory/internal/version"
)

// run opens a session, calls fn and saves afterwards when mutating is set.
func run(cmd *cobra.Command, opts *RootOptions, mutating bool, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	if err := fn(ctx, s); err != nil {
		return err
	}
	if mutating {
		return s.save(ctx)
	}
	return nil
}

func notFound(id string) error {
	return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", id))
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid number %q", a))
		}
		out[i] = v
	}
	return out, nil
}

// NewVersionCommand prints build information.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return formatter(opts, cmd).Success(map[string]string{"version": version.String()}, version.String())
		},
	}
}

// NewShowCommand prints the saved canvas.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, s *session) error {
				st := s.ed.State()
				return formatter(opts, cmd).Success(st, describe(st))
			})
		},
	}
}

func describe(st domain.CanvasState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "theme: %s\n", st.Theme)
	fmt.Fprintf(&b, "items: %d", len(st.Items))
	for _, it := range st.ByZIndex() {
		content := it.Content
		if it.Kind == domain.KindImage {
			content = "(image)"
		}
		if len(content) > 40 {
			content = content[:37] + "..."
		}
		fmt.Fprintf(&b, "\n  %s  %-7s z=%d pos=(%.0f,%.0f) size=%.0fx%.0f rot=%.1f  %s",
			it.ID, it.Kind, it.ZIndex, it.Position.X, it.Position.Y, it.Size.Width, it.Size.Height, it.Rotation, content)
	}
	return b.String()
}

// NewAddCommand groups the commands that place new items.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an image, text or sticker",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "image <path>",
		Short: "Add an image from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				up, done, err := uploadFromPath(args[0])
				if err != nil {
					return err
				}
				defer done()
				it, err := s.ed.UploadImage(up)
				if err != nil {
					return WrapExitError(ExitFailure, "add image", err)
				}
				return formatter(opts, cmd).Success(it, it.ID)
			})
		},
	})

	var content string
	text := &cobra.Command{
		Use:   "text",
		Short: "Add a text box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				it := s.ed.AddText()
				if cmd.Flags().Changed("content") {
					s.ed.UpdateContent(it.ID, content)
					it, _ = s.ed.Store().Item(it.ID)
				}
				return formatter(opts, cmd).Success(it, it.ID)
			})
		},
	}
	text.Flags().StringVar(&content, "content", "", "initial text")
	cmd.AddCommand(text)

	cmd.AddCommand(&cobra.Command{
		Use:   "sticker <id>",
		Short: "Add a sticker from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				it, err := s.ed.AddSticker(args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "add sticker", err)
				}
				return formatter(opts, cmd).Success(it, it.ID)
			})
		},
	})
	return cmd
}

// NewMoveCommand drags an item to a new top-left position.
func NewMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <x> <y>",
		Short: "Move an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				return dispatch(cmd, opts, s, canvas.Event{Kind: canvas.EventMove, ItemID: args[0], Payload: canvas.Move{To: domain.Position{X: v[0], Y: v[1]}}})
			})
		},
	}
}

// NewResizeCommand resizes an item in place.
func NewResizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <id> <width> <height>",
		Short: "Resize an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				changed := s.ed.Store().UpdateSize(args[0], domain.Size{Width: v[0], Height: v[1]})
				return report(cmd, opts, s, args[0], changed)
			})
		},
	}
}

func dispatch(cmd *cobra.Command, opts *RootOptions, s *session, ev canvas.Event) error {
	ok, err := s.ed.Dispatch(ev)
	if err != nil {
		return WrapExitError(ExitFailure, string(ev.Kind), err)
	}
	return report(cmd, opts, s, ev.ItemID, ok)
}

// report prints the item's placement after a geometry change.
func report(cmd *cobra.Command, opts *RootOptions, s *session, id string, changed bool) error {
	it, found := s.ed.Store().Item(id)
	if !found {
		return notFound(id)
	}
	if !changed {
		return formatter(opts, cmd).Success(it, "unchanged")
	}
	return formatter(opts, cmd).Success(it, fmt.Sprintf("%s pos=(%.0f,%.0f) size=%.0fx%.0f",
		it.ID, it.Position.X, it.Position.Y, it.Size.Width, it.Size.Height))
}

// NewRotateCommand sets an item's rotation in degrees.
func NewRotateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <id> <degrees>",
		Short: "Rotate an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				if !s.ed.Store().UpdateRotation(args[0], v[0]) {
					return notFound(args[0])
				}
				it, _ := s.ed.Store().Item(args[0])
				return formatter(opts, cmd).Success(it, fmt.Sprintf("%s rot=%.1f", it.ID, it.Rotation))
			})
		},
	}
}

// NewEditCommand replaces the text of a text item.
func NewEditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace an item's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				if !s.ed.UpdateContent(args[0], args[1]) {
					return notFound(args[0])
				}
				it, _ := s.ed.Store().Item(args[0])
				return formatter(opts, cmd).Success(it, it.ID)
			})
		},
	}
}

// NewStyleCommand applies a JSON style patch to a text item.
func NewStyleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "style <id> <json>",
		Short:   "Change a text item's style",
		Example: `  travelstory style 01J... '{"fontSize":"24px","fontWeight":"bold"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := domain.ParseStylePatch([]byte(args[1]))
			if err != nil {
				return WrapExitError(ExitCommandError, "parse style", err)
			}
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				ok, err := s.ed.UpdateStyle(args[0], patch)
				if err != nil {
					return WrapExitError(ExitFailure, "update style", err)
				}
				if !ok {
					return notFound(args[0])
				}
				it, _ := s.ed.Store().Item(args[0])
				return formatter(opts, cmd).Success(it, it.ID)
			})
		},
	}
}

// NewSelectCommand selects an item and prints it. Selection is session
// state and is not written to the journal.
func NewSelectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Select an item and show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, s *session) error {
				if !s.ed.Select(args[0]) {
					return notFound(args[0])
				}
				it, _ := s.ed.Store().Item(args[0])
				return formatter(opts, cmd).Success(it, describe(domain.CanvasState{Theme: s.ed.State().Theme, Items: []domain.Item{it}}))
			})
		},
	}
}

// NewDeleteCommand removes an item.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				if !s.ed.Delete(args[0]) {
					return notFound(args[0])
				}
				return formatter(opts, cmd).Success(map[string]string{"deleted": args[0]}, "deleted "+args[0])
			})
		},
	}
}

// NewClearCommand removes every item.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				s.ed.Clear()
				return formatter(opts, cmd).Success(map[string]int{"items": 0}, "cleared")
			})
		},
	}
}

// NewThemeCommand switches the canvas theme.
func NewThemeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme <name>",
		Short: "Set the canvas theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseTheme(strings.ToLower(args[0]))
			if err != nil {
				return WrapExitError(ExitCommandError, "theme", err)
			}
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				if err := s.ed.SetTheme(t); err != nil {
					return WrapExitError(ExitFailure, "theme", err)
				}
				return formatter(opts, cmd).Success(map[string]string{"theme": string(t)}, "theme: "+string(t))
			})
		},
	}
}

// NewThemesCommand lists the available themes.
func NewThemesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := catalog.Themes()
			lines := make([]string, len(ts))
			for i, t := range ts {
				lines[i] = fmt.Sprintf("%-10s %-10s %s", t.ID, t.Name, t.Swatch)
			}
			return formatter(opts, cmd).Success(ts, strings.Join(lines, "\n"))
		},
	}
}

// NewStickersCommand lists the sticker catalog.
func NewStickersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stickers",
		Short: "List stickers by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := catalog.Categories()
			if err != nil {
				return WrapExitError(ExitFailure, "load stickers", err)
			}
			var b strings.Builder
			for i, c := range cats {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(catalog.CategoryTitle(c.Name))
				for _, s := range c.Stickers {
					fmt.Fprintf(&b, "\n  %-16s %s", s.ID, s.Alt)
				}
			}
			return formatter(opts, cmd).Success(cats, b.String())
		},
	}
}

// NewSaveCommand rewrites the journal, normalizing whatever was loaded.
func NewSaveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				return formatter(opts, cmd).Success(map[string]int{"items": len(s.ed.State().Items)}, "saved")
			})
		},
	}
}

// NewExportCommand writes the canvas as PDF or PNG.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the canvas",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pdf",
		Short: "Export an A4 landscape PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, s *session) error {
				loc, err := s.ed.ExportPDF(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "export pdf", err)
				}
				return formatter(opts, cmd).Success(map[string]string{"path": loc}, loc)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "png",
		Short: "Export a PNG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, s *session) error {
				loc, err := s.ed.ExportPNG(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "export png", err)
				}
				return formatter(opts, cmd).Success(map[string]string{"path": loc}, loc)
			})
		},
	})
	return cmd
}

// NewPreviewCommand renders the animated preview and downloads it.
func NewPreviewCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Generate and download the animated preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, s *session) error {
				s.ed.OpenPreview()
				defer s.ed.ClosePreview()
				if _, err := s.ed.GenerateVideo(ctx); err != nil {
					return WrapExitError(ExitFailure, "generate preview", err)
				}
				loc, err := s.ed.DownloadVideo(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "download preview", err)
				}
				return formatter(opts, cmd).Success(map[string]string{"path": loc}, loc)
			})
		},
	}
}

// NewUICommand opens the desktop editor.
func NewUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, s *session) error {
				if err := ui.Run(s.ed); err != nil {
					return WrapExitError(ExitFailure, "ui", err)
				}
				return nil
			})
		},
	}
}
