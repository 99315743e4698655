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
	"io"
	"log/slog"
	"strings"
	"sync"

	"travelstory/internal/canvas"
	"travelstory/internal/catalog"
	"travelstory/internal/config"
	"travelstory/internal/domain"
	"travelstory/internal/editor"
	"travelstory/internal/export"
	"travelstory/internal/intake"
	applog "travelstory/internal/log"
	"travelstory/internal/notify"
	"travelstory/internal/render"
	"travelstory/internal/storage"
	"travelstory/internal/telemetry"
	"travelstory/internal/textlayout"
	"travelstory/internal/transform"
)

// session is one loaded journal plus everything needed to change it.
type session struct {
	cfg  config.AppConfig
	slot storage.Slot
	tel  *telemetry.Client
	ed   *editor.Editor
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.AppConfig, string, error) {
	var (
		cfg   config.AppConfig
		token string
		err   error
	)
	if opts.ConfigPath != "" {
		cfg, token, err = config.LoadFrom(opts.ConfigPath, opts.DotEnv)
	} else {
		var path string
		path, err = config.ConfigPath()
		if err == nil {
			cfg, token, err = config.LoadFrom(path, opts.DotEnv)
		}
	}
	if err != nil {
		return cfg, "", WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DataDir != "" {
		cfg.Storage.Dir = opts.DataDir
	}
	if opts.Storage != "" {
		cfg.Storage.Type = strings.ToLower(opts.Storage)
	}
	if opts.ExportDir != "" {
		cfg.Export.Dir = opts.ExportDir
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, token, nil
}

// openSession loads config, initializes logging and telemetry, opens the
// journal slot and mounts the saved canvas. toasts receives user messages.
func openSession(ctx context.Context, opts *RootOptions, toasts io.Writer) (*session, error) {
	cfg, token, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})
	l := applog.WithOperation(applog.WithComponent("cli"), "open_session")

	slot, err := storage.OpenSlot(storage.SlotConfig{Type: cfg.Storage.Type, Dir: cfg.Storage.DataDir()})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open storage", err)
	}

	telemetry.NewDefault(telemetry.FromConfig(cfg, token))
	tel := telemetry.Default()

	var fonts textlayout.Provider = textlayout.BasicProvider{}
	if gp, err := textlayout.NewGoProvider(); err == nil {
		fonts = gp
	} else {
		l.Warn("go fonts unavailable, using basic face", slog.Any("err", err))
	}
	rend := render.New(render.Options{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height, Fonts: fonts, Assets: catalog.Asset})

	var n notify.Notifier = &textNotifier{w: toasts}
	if cfg.General.DesktopNotifications {
		n = notify.Multi{n, notify.Desktop{Fallback: notify.LogNotifier{}}}
	}

	ed := editor.New(editor.Options{
		Store:     canvas.New(canvas.Config{Bounds: transform.R(0, 0, float64(cfg.Canvas.Width), float64(cfg.Canvas.Height))}),
		Journal:   storage.NewJournal(slot),
		Renderer:  rend,
		Sink:      export.FileSink{Dir: cfg.Export.OutDir()},
		Notifier:  n,
		Telemetry: tel,
		Preview:   export.PreviewFromConfig(cfg.Preview),
		MaxUpload: cfg.Intake.MaxBytes,
	})
	ed.Mount(ctx)
	setActive(ed)
	return &session{cfg: cfg, slot: slot, tel: tel, ed: ed}, nil
}

func (s *session) Close() {
	setActive(nil)
	s.ed.Close()
	s.tel.Flush(context.Background())
	if err := s.slot.Close(); err != nil {
		applog.WithComponent("cli").Warn("close storage", slog.Any("err", err))
	}
}

// save persists the canvas after a change.
func (s *session) save(ctx context.Context) error {
	if err := s.ed.Save(ctx); err != nil {
		return WrapExitError(ExitFailure, "save journal", err)
	}
	return nil
}

// textNotifier prints toasts for terminal users.
type textNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *textNotifier) Notify(t notify.Toast) {
	if n.w == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	mark := "*"
	if t.Destructive {
		mark = "!"
	}
	if t.Description != "" {
		fmt.Fprintf(n.w, "%s %s: %s\n", mark, t.Title, t.Description)
		return
	}
	fmt.Fprintf(n.w, "%s %s\n", mark, t.Title)
}

var (
	activeMu sync.Mutex
	activeEd *editor.Editor
)

func setActive(ed *editor.Editor) {
	activeMu.Lock()
	activeEd = ed
	activeMu.Unlock()
}

// ActiveState returns the canvas of the running command, for crash
// snapshots.
func ActiveState() (domain.CanvasState, bool) {
	activeMu.Lock()
	ed := activeEd
	activeMu.Unlock()
	if ed == nil {
		return domain.CanvasState{}, false
	}
	return ed.State(), true
}

// uploadFromPath opens a local image for intake.
func uploadFromPath(path string) (intake.Upload, func(), error) {
	up, f, err := intake.FromPath(path)
	if err != nil {
		return intake.Upload{}, nil, WrapExitError(ExitCommandError, "open image", err)
	}
	return up, func() { _ = f.Close() }, nil
}
