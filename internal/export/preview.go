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
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"travelstory/internal/config"
	"travelstory/internal/domain"
	applog "travelstory/internal/log"
	"travelstory/internal/transform"
)

// PreviewConfig drives the animated preview. Stiffness and mass are fixed
// by the entrance animation; the damping ratio is configurable.
type PreviewConfig struct {
	Frames       int
	FPS          int
	Width        int
	Height       int
	Stagger      int
	DampingRatio float64
	Stiffness    float64
	Mass         float64
}

// DefaultPreviewConfig is the 4 second, 30 fps, 800x450 composition.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{Frames: 120, FPS: 30, Width: 800, Height: 450, Stagger: 5, DampingRatio: 1, Stiffness: 100, Mass: 1}
}

// PreviewFromConfig maps the preview section of the app config.
func PreviewFromConfig(pc config.PreviewConfig) PreviewConfig {
	c := DefaultPreviewConfig()
	if pc.Frames > 0 {
		c.Frames = pc.Frames
	}
	if pc.FPS > 0 {
		c.FPS = pc.FPS
	}
	if pc.Width > 0 {
		c.Width = pc.Width
	}
	if pc.Height > 0 {
		c.Height = pc.Height
	}
	if pc.Stagger >= 0 {
		c.Stagger = pc.Stagger
	}
	if pc.DampingRatio > 0 {
		c.DampingRatio = pc.DampingRatio
	}
	return c
}

func (c PreviewConfig) normalized() PreviewConfig {
	d := DefaultPreviewConfig()
	if c.Frames <= 0 {
		c.Frames = d.Frames
	}
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Stagger < 0 {
		c.Stagger = 0
	}
	if c.DampingRatio <= 0 {
		c.DampingRatio = d.DampingRatio
	}
	if c.Stiffness <= 0 {
		c.Stiffness = d.Stiffness
	}
	if c.Mass <= 0 {
		c.Mass = d.Mass
	}
	return c
}

// Spring returns the progress of a unit step response t seconds after
// release, clamped to [0,1].
func Spring(t float64, cfg PreviewConfig) float64 {
	if t <= 0 {
		return 0
	}
	cfg = cfg.normalized()
	w0 := math.Sqrt(cfg.Stiffness / cfg.Mass)
	z := cfg.DampingRatio
	var p float64
	switch {
	case z == 1:
		p = 1 - (1+w0*t)*math.Exp(-w0*t)
	case z < 1:
		wd := w0 * math.Sqrt(1-z*z)
		p = 1 - math.Exp(-z*w0*t)*(math.Cos(wd*t)+z*w0/wd*math.Sin(wd*t))
	default:
		s := math.Sqrt(z*z - 1)
		r1 := -w0 * (z - s)
		r2 := -w0 * (z + s)
		p = 1 - (r2*math.Exp(r1*t)-r1*math.Exp(r2*t))/(r2-r1)
	}
	return math.Max(0, math.Min(1, p))
}

// Pose is how one item appears in one preview frame.
type Pose struct {
	Visible bool
	Opacity float64
	Scale   float64
	OffsetY float64
}

// PoseAt returns the pose of the item at paint index index in frame.
// Items enter Stagger frames apart and are hidden before their entry.
func PoseAt(index, frame int, cfg PreviewConfig) Pose {
	cfg = cfg.normalized()
	entry := index * cfg.Stagger
	if frame < entry {
		return Pose{}
	}
	p := Spring(float64(frame-entry)/float64(cfg.FPS), cfg)
	return Pose{Visible: true, Opacity: p, Scale: 0.5 + 0.5*p, OffsetY: 50 * (1 - p)}
}

// ItemDrawer draws a single item under an extra transform.
type ItemDrawer interface {
	DrawItem(dst *image.RGBA, it domain.Item, outer transform.Affine2D, opacity float64)
}

// Compositor renders preview frames.
type Compositor struct {
	Drawer ItemDrawer
	Config PreviewConfig
}

// Frame composites frame n. items must be in paint order.
func (c *Compositor) Frame(ctx context.Context, items []domain.Item, n int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := c.Config.normalized()
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, it := range items {
		pose := PoseAt(i, n, cfg)
		if !pose.Visible || pose.Opacity <= 0 {
			continue
		}
		ctr := it.Center()
		outer := transform.Translate(0, pose.OffsetY).Mul(
			transform.About(transform.Pt{X: ctr.X, Y: ctr.Y}, transform.Scale(pose.Scale, pose.Scale)))
		c.Drawer.DrawItem(img, it, outer, pose.Opacity)
	}
	return img, nil
}

// Animate renders every frame and encodes a looping GIF.
func (c *Compositor) Animate(ctx context.Context, items []domain.Item) ([]byte, error) {
	cfg := c.Config.normalized()
	l := applog.WithOperation(applog.WithComponent("preview"), "animate").With(
		slog.Int("items", len(items)), slog.Int("frames", cfg.Frames))
	start := time.Now()

	frames := make([]*image.Paletted, cfg.Frames)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for n := 0; n < cfg.Frames; n++ {
		n := n
		g.Go(func() error {
			img, err := c.Frame(gctx, items, n)
			if err != nil {
				return fmt.Errorf("frame %d: %w", n, err)
			}
			pal := image.NewPaletted(img.Bounds(), palette.Plan9)
			draw.FloydSteinberg.Draw(pal, img.Bounds(), img, image.Point{})
			frames[n] = pal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.WarnContext(ctx, "preview aborted", slog.Any("err", err))
		return nil, err
	}

	anim := &gif.GIF{Image: frames, Delay: make([]int, len(frames)), LoopCount: 0}
	delay := 100 / cfg.FPS
	if delay < 1 {
		delay = 1
	}
	for i := range anim.Delay {
		anim.Delay[i] = delay
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	l.InfoContext(ctx, "preview rendered", slog.Int("bytes", buf.Len()), slog.Duration("took", time.Since(start)))
	return buf.Bytes(), nil
}

var (
	// ErrPreviewClosed is reported for generations that finish after Close.
	ErrPreviewClosed = errors.New("preview closed")
	// ErrNoPreview is returned by Download before a video was generated.
	ErrNoPreview = errors.New("no preview generated")
)

// PreviewResult is delivered once per Generate call.
type PreviewResult struct {
	Data []byte
	Err  error
}

// PreviewView is the preview dialog: it shows frames of a snapshot of the
// canvas and generates a downloadable animation.
type PreviewView struct {
	comp  *Compositor
	items []domain.Item
	now   func() time.Time

	mu     sync.Mutex
	open   bool
	gen    int
	result []byte
}

// NewPreviewView opens a view over a snapshot of st.
func NewPreviewView(comp *Compositor, st domain.CanvasState, now func() time.Time) *PreviewView {
	if now == nil {
		now = time.Now
	}
	return &PreviewView{comp: comp, items: st.ByZIndex(), now: now, open: true}
}

// Visible reports whether the view is still open.
func (v *PreviewView) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// Frames returns the length of the composition in frames.
func (v *PreviewView) Frames() int { return v.comp.Config.normalized().Frames }

// FPS returns the playback rate of the composition.
func (v *PreviewView) FPS() int { return v.comp.Config.normalized().FPS }

// Frame composites frame n of the preview.
func (v *PreviewView) Frame(ctx context.Context, n int) (*image.RGBA, error) {
	return v.comp.Frame(ctx, v.items, n)
}

// Generate renders the animation in the background. The channel yields one
// result and is then closed. A generation still running when the view is
// closed completes but its result is dropped.
func (v *PreviewView) Generate(ctx context.Context) <-chan PreviewResult {
	out := make(chan PreviewResult, 1)
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		out <- PreviewResult{Err: ErrPreviewClosed}
		close(out)
		return out
	}
	v.gen++
	id := v.gen
	v.mu.Unlock()

	go func() {
		defer close(out)
		data, err := v.comp.Animate(ctx, v.items)
		v.mu.Lock()
		stale := !v.open || id != v.gen
		if err == nil && !stale {
			v.result = data
		}
		v.mu.Unlock()
		switch {
		case stale:
			applog.WithOperation(applog.WithComponent("preview"), "generate").Debug("discarding preview after close")
			out <- PreviewResult{Err: ErrPreviewClosed}
		case err != nil:
			out <- PreviewResult{Err: err}
		default:
			out <- PreviewResult{Data: data}
		}
	}()
	return out
}

// Result returns the last generated animation.
func (v *PreviewView) Result() ([]byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.result != nil
}

// Close hides the view and drops any result.
func (v *PreviewView) Close() {
	v.mu.Lock()
	v.open = false
	v.gen++
	v.result = nil
	v.mu.Unlock()
}

// Download delivers the generated animation as TravelStory_<date>.gif.
func (v *PreviewView) Download(ctx context.Context, sink Sink) (string, error) {
	data, ok := v.Result()
	if !ok {
		return "", ErrNoPreview
	}
	loc, err := sink.Deliver(ctx, FileName(v.now(), "gif"), data)
	if err != nil {
		return "", stageErr(StageDeliver, err)
	}
	return loc, nil
}
