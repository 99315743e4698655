/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns canvas state into deliverable artifacts: a single
// page PDF, a PNG raster and an animated GIF preview.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"travelstory/internal/domain"
	"travelstory/internal/storage"
)

// Stage names the pipeline step an export failed in.
type Stage string

const (
	StageFlush     Stage = "flush"
	StageRasterize Stage = "rasterize"
	StageEncode    Stage = "encode"
	StageBuild     Stage = "build"
	StageDeliver   Stage = "deliver"
)

// Error is the single error an export reports. Nothing is delivered when an
// export returns an *Error.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("export %s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error { return &Error{Stage: s, Err: err} }

// FileName returns the download name for an artifact created at t,
// e.g. TravelStory_2025-03-01.pdf.
func FileName(t time.Time, ext string) string {
	return "TravelStory_" + t.UTC().Format("2006-01-02") + "." + strings.TrimPrefix(ext, ".")
}

// Sink receives finished artifacts.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes artifacts into Dir atomically and returns their path.
type FileSink struct {
	Dir string
}

func (s FileSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// MemorySink keeps delivered artifacts in memory.
type MemorySink struct {
	mu    sync.Mutex
	Files map[string][]byte
}

func (s *MemorySink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	s.Files[name] = append([]byte(nil), data...)
	return name, nil
}

// Get returns a delivered artifact.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Files[name]
	return b, ok
}

// Saver flushes the state to durable storage before an export.
type Saver interface {
	Save(ctx context.Context, state domain.CanvasState) error
}

// Renderer rasterizes canvas state.
type Renderer interface {
	Render(ctx context.Context, state domain.CanvasState) (*image.RGBA, error)
}

// Exporter runs the export pipelines.
type Exporter struct {
	Saver    Saver // optional
	Renderer Renderer
	Sink     Sink
	Now      func() time.Time
}

var errNotConfigured = errors.New("exporter is missing a renderer or sink")

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// prepare runs the shared first steps: flush and rasterize.
func (e *Exporter) prepare(ctx context.Context, st domain.CanvasState) (*image.RGBA, error) {
	if e == nil || e.Renderer == nil || e.Sink == nil {
		return nil, stageErr(StageRasterize, errNotConfigured)
	}
	if e.Saver != nil {
		if err := e.Saver.Save(ctx, st); err != nil {
			return nil, stageErr(StageFlush, err)
		}
	}
	img, err := e.Renderer.Render(ctx, st)
	if err != nil {
		return nil, stageErr(StageRasterize, err)
	}
	return img, nil
}

func (e *Exporter) deliver(ctx context.Context, ext string, data []byte) (string, error) {
	loc, err := e.Sink.Deliver(ctx, FileName(e.now(), ext), data)
	if err != nil {
		return "", stageErr(StageDeliver, err)
	}
	return loc, nil
}
