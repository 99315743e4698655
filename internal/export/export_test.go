/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"travelstory/internal/domain"
	"travelstory/internal/transform"
)

type solidRenderer struct {
	w, h int
	err  error
}

func (r solidRenderer) Render(ctx context.Context, st domain.CanvasState) (*image.RGBA, error) {
	if r.err != nil {
		return nil, r.err
	}
	img := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 200, G: 100, B: 50, A: 255}), image.Point{}, draw.Src)
	return img, nil
}

type recordingSaver struct {
	calls int
	err   error
}

func (s *recordingSaver) Save(ctx context.Context, st domain.CanvasState) error {
	s.calls++
	return s.err
}

type failingSink struct{}

func (failingSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	return "", errors.New("disk full")
}

var exportDay = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newExporter(saver Saver, r Renderer, sink Sink) *Exporter {
	return &Exporter{Saver: saver, Renderer: r, Sink: sink, Now: func() time.Time { return exportDay }}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestFitRect_Wide(t *testing.T) {
	x, y, w, h := FitRect(1000, 600)
	if !approx(w, 792) || !approx(h, 475.2) {
		t.Fatalf("size = %v x %v", w, h)
	}
	if !approx(x, 25) || !approx(y, 59.9) {
		t.Fatalf("origin = %v,%v", x, y)
	}
}

func TestFitRect_Tall(t *testing.T) {
	x, y, w, h := FitRect(600, 1200)
	if !approx(h, 545) || !approx(w, 272.5) {
		t.Fatalf("size = %v x %v", w, h)
	}
	if !approx(x, (842-272.5)/2) || !approx(y, 25) {
		t.Fatalf("origin = %v,%v", x, y)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(exportDay, ".pdf"); got != "TravelStory_2025-03-01.pdf" {
		t.Fatalf("FileName = %q", got)
	}
	if got := FileName(exportDay, "gif"); got != "TravelStory_2025-03-01.gif" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestFileNameUsesUTCDay(t *testing.T) {
	brisbane := time.FixedZone("AEST", 10*60*60)
	evening := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC).In(brisbane)
	if got := FileName(evening, "pdf"); got != "TravelStory_2025-03-01.pdf" {
		t.Fatalf("FileName = %q, want the UTC day", got)
	}
}

func TestPDF_FlushesAndDelivers(t *testing.T) {
	saver := &recordingSaver{}
	sink := &MemorySink{}
	e := newExporter(saver, solidRenderer{w: 100, h: 60}, sink)
	loc, err := e.PDF(context.Background(), domain.EmptyState())
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if loc != "TravelStory_2025-03-01.pdf" {
		t.Fatalf("location = %q", loc)
	}
	if saver.calls != 1 {
		t.Fatalf("saver calls = %d", saver.calls)
	}
	data, ok := sink.Get(loc)
	if !ok || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("delivered artifact is not a PDF")
	}
}

func TestPDF_StageErrors(t *testing.T) {
	cases := []struct {
		name  string
		saver Saver
		r     Renderer
		sink  Sink
		stage Stage
	}{
		{"flush", &recordingSaver{err: errors.New("quota")}, solidRenderer{w: 10, h: 10}, nil, StageFlush},
		{"rasterize", nil, solidRenderer{err: errors.New("boom")}, nil, StageRasterize},
		{"deliver", nil, solidRenderer{w: 10, h: 10}, failingSink{}, StageDeliver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := &MemorySink{}
			sink := tc.sink
			if sink == nil {
				sink = mem
			}
			_, err := newExporter(tc.saver, tc.r, sink).PDF(context.Background(), domain.EmptyState())
			var ee *Error
			if !errors.As(err, &ee) {
				t.Fatalf("want *Error, got %v", err)
			}
			if ee.Stage != tc.stage {
				t.Fatalf("stage = %s, want %s", ee.Stage, tc.stage)
			}
			if len(mem.Files) != 0 {
				t.Fatalf("artifact delivered despite failure")
			}
		})
	}
}

func TestPNG_WritesFile(t *testing.T) {
	dir := t.TempDir()
	e := newExporter(nil, solidRenderer{w: 40, h: 30}, FileSink{Dir: dir})
	loc, err := e.PNG(context.Background(), domain.EmptyState())
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if loc != filepath.Join(dir, "TravelStory_2025-03-01.png") {
		t.Fatalf("location = %q", loc)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestFileSink_RejectsPaths(t *testing.T) {
	if _, err := (FileSink{Dir: t.TempDir()}).Deliver(context.Background(), "../x.pdf", []byte("x")); err == nil {
		t.Fatalf("expected error for path name")
	}
}

func TestSpring_MonotonicCriticallyDamped(t *testing.T) {
	cfg := DefaultPreviewConfig()
	prev := Spring(0, cfg)
	if prev != 0 {
		t.Fatalf("Spring(0) = %v", prev)
	}
	for f := 1; f <= cfg.Frames; f++ {
		p := Spring(float64(f)/float64(cfg.FPS), cfg)
		if p < prev {
			t.Fatalf("not monotonic at frame %d: %v < %v", f, p, prev)
		}
		if p > 1 {
			t.Fatalf("progress above 1: %v", p)
		}
		prev = p
	}
	if prev < 0.99 {
		t.Fatalf("spring did not settle: %v", prev)
	}
}

func TestSpring_DampingRatios(t *testing.T) {
	for _, z := range []float64{0.3, 2} {
		cfg := DefaultPreviewConfig()
		cfg.DampingRatio = z
		if p := Spring(0.001, cfg); p < 0 || p > 0.01 {
			t.Fatalf("z=%v early progress = %v", z, p)
		}
		if p := Spring(5, cfg); math.Abs(1-p) > 0.01 {
			t.Fatalf("z=%v late progress = %v", z, p)
		}
	}
}

func TestPoseAt_Entry(t *testing.T) {
	cfg := DefaultPreviewConfig()
	if p := PoseAt(2, 9, cfg); p.Visible {
		t.Fatalf("item 2 visible before frame 10: %+v", p)
	}
	p := PoseAt(2, 10, cfg)
	if !p.Visible || p.Opacity != 0 || p.Scale != 0.5 || p.OffsetY != 50 {
		t.Fatalf("entry pose = %+v", p)
	}
	late := PoseAt(0, 119, cfg)
	if late.Opacity < 0.99 || late.Scale < 0.99 || late.OffsetY > 0.5 {
		t.Fatalf("late pose = %+v", late)
	}
}

type drawCall struct {
	id      string
	opacity float64
	outer   transform.Affine2D
}

type recordingDrawer struct {
	mu    sync.Mutex
	calls []drawCall
}

func (d *recordingDrawer) DrawItem(dst *image.RGBA, it domain.Item, outer transform.Affine2D, opacity float64) {
	d.mu.Lock()
	d.calls = append(d.calls, drawCall{id: it.ID, opacity: opacity, outer: outer})
	d.mu.Unlock()
}

func previewItems() []domain.Item {
	return []domain.Item{
		{ID: "a", Kind: domain.KindSticker, Position: domain.Position{X: 0, Y: 0}, Size: domain.Size{Width: 100, Height: 100}, ZIndex: 1},
		{ID: "b", Kind: domain.KindSticker, Position: domain.Position{X: 200, Y: 100}, Size: domain.Size{Width: 100, Height: 100}, ZIndex: 2},
	}
}

func TestCompositor_FrameSkipsPendingItems(t *testing.T) {
	d := &recordingDrawer{}
	c := &Compositor{Drawer: d, Config: DefaultPreviewConfig()}
	img, err := c.Frame(context.Background(), previewItems(), 3)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 450 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(799, 449); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("background = %v", got)
	}
	if len(d.calls) != 1 || d.calls[0].id != "a" {
		t.Fatalf("calls = %+v", d.calls)
	}
	// the item's centre stays fixed under the scale, only the offset moves it
	pose := PoseAt(0, 3, c.Config)
	ctr := d.calls[0].outer.Apply(transform.Pt{X: 50, Y: 50})
	if !approx(ctr.X, 50) || !approx(ctr.Y, 50+pose.OffsetY) {
		t.Fatalf("centre mapped to %+v", ctr)
	}
}

func smallPreview() PreviewConfig {
	cfg := DefaultPreviewConfig()
	cfg.Frames, cfg.Width, cfg.Height = 6, 40, 30
	return cfg
}

func TestCompositor_AnimateGIF(t *testing.T) {
	c := &Compositor{Drawer: &recordingDrawer{}, Config: smallPreview()}
	data, err := c.Animate(context.Background(), previewItems())
	if err != nil {
		t.Fatalf("Animate: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(g.Image) != 6 || g.LoopCount != 0 || g.Delay[0] != 3 {
		t.Fatalf("frames=%d loop=%d delay=%d", len(g.Image), g.LoopCount, g.Delay[0])
	}
}

func TestPreviewView_GenerateAndDownload(t *testing.T) {
	comp := &Compositor{Drawer: &recordingDrawer{}, Config: smallPreview()}
	v := NewPreviewView(comp, domain.CanvasState{Items: previewItems(), Theme: domain.ThemeDefault}, func() time.Time { return exportDay })
	sink := &MemorySink{}
	if _, err := v.Download(context.Background(), sink); !errors.Is(err, ErrNoPreview) {
		t.Fatalf("want ErrNoPreview, got %v", err)
	}
	res := <-v.Generate(context.Background())
	if res.Err != nil || len(res.Data) == 0 {
		t.Fatalf("generate: %+v", res.Err)
	}
	loc, err := v.Download(context.Background(), sink)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if loc != "TravelStory_2025-03-01.gif" {
		t.Fatalf("location = %q", loc)
	}
}

type gatedDrawer struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (d *gatedDrawer) DrawItem(dst *image.RGBA, it domain.Item, outer transform.Affine2D, opacity float64) {
	d.once.Do(func() { close(d.started) })
	<-d.release
}

func TestPreviewView_CloseDiscardsInFlight(t *testing.T) {
	d := &gatedDrawer{started: make(chan struct{}), release: make(chan struct{})}
	comp := &Compositor{Drawer: d, Config: smallPreview()}
	v := NewPreviewView(comp, domain.CanvasState{Items: previewItems(), Theme: domain.ThemeDefault}, nil)
	ch := v.Generate(context.Background())
	<-d.started
	v.Close()
	close(d.release)
	res := <-ch
	if !errors.Is(res.Err, ErrPreviewClosed) {
		t.Fatalf("want ErrPreviewClosed, got %v", res.Err)
	}
	if _, ok := v.Result(); ok {
		t.Fatalf("result kept after close")
	}
	if v.Visible() {
		t.Fatalf("view still visible")
	}
	if res := <-v.Generate(context.Background()); !errors.Is(res.Err, ErrPreviewClosed) {
		t.Fatalf("generate after close: %v", res.Err)
	}
}
