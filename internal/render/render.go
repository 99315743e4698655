/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render rasterizes canvas state into pixel buffers. It is shared by
// the PDF and PNG exporters and the animated preview.
package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"travelstory/internal/domain"
	"travelstory/internal/intake"
	applog "travelstory/internal/log"
	"travelstory/internal/textlayout"
	"travelstory/internal/transform"
)

// AssetFunc resolves "asset:" references to file contents.
type AssetFunc func(src string) ([]byte, error)

// Options configures a Rasterizer.
type Options struct {
	Width, Height int
	Fonts         textlayout.Provider
	Assets        AssetFunc
}

// Rasterizer draws canvas state. It is safe for concurrent use.
type Rasterizer struct {
	w, h   int
	fonts  textlayout.Provider
	assets AssetFunc

	// opentype faces are not safe for concurrent use
	textMu sync.Mutex

	mu    sync.Mutex
	tiles map[string]*image.RGBA
}

const maxCachedTiles = 256

// New returns a rasterizer for a canvas of the given size.
func New(opts Options) *Rasterizer {
	if opts.Width <= 0 {
		opts.Width = 1000
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Fonts == nil {
		opts.Fonts = textlayout.BasicProvider{}
	}
	return &Rasterizer{w: opts.Width, h: opts.Height, fonts: opts.Fonts, assets: opts.Assets, tiles: map[string]*image.RGBA{}}
}

// Size returns the canvas size in pixels.
func (r *Rasterizer) Size() (int, int) { return r.w, r.h }

// Render draws the theme and every item in zIndex order.
func (r *Rasterizer) Render(ctx context.Context, st domain.CanvasState) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	PaintTheme(img, st.Theme)
	page := transform.R(0, 0, float64(r.w), float64(r.h))
	for _, it := range st.ByZIndex() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// items dragged fully off the page are not rasterized
		if !transform.RotatedBounds(it).Overlaps(page) {
			continue
		}
		r.DrawItem(img, it, transform.Identity, 1)
	}
	return img, nil
}

// DrawItem draws it onto dst. outer is applied after the item's own
// placement and rotation; opacity scales the item's alpha.
func (r *Rasterizer) DrawItem(dst *image.RGBA, it domain.Item, outer transform.Affine2D, opacity float64) {
	if opacity <= 0 {
		return
	}
	tile := r.Tile(it)
	tb := tile.Bounds()
	if opacity < 1 {
		tile = fade(tile, opacity)
	}
	placed := it
	placed.Rotation = transform.NormalizeDegrees(it.Rotation)
	m := outer.Mul(transform.ItemMatrix(placed)).Mul(transform.Scale(it.Size.Width/float64(tb.Dx()), it.Size.Height/float64(tb.Dy())))
	aff := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	xdraw.BiLinear.Transform(dst, aff, tile, tb, xdraw.Over, nil)
}

// Tile renders the unrotated item into an image of its own size. Tiles are
// cached by a digest of content, size and style.
func (r *Rasterizer) Tile(it domain.Item) *image.RGBA {
	key := tileKey(it)
	r.mu.Lock()
	if t, ok := r.tiles[key]; ok {
		r.mu.Unlock()
		return t
	}
	r.mu.Unlock()

	w, h := tileSize(it.Size)
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := r.paintTile(tile, it); err != nil {
		applog.WithItem(applog.WithOperation(applog.WithComponent("render"), "tile"), it.ID).Warn(
			"content not drawable, using placeholder", slog.String("kind", string(it.Kind)), slog.Any("err", err))
		draw.Draw(tile, tile.Bounds(), image.Transparent, image.Point{}, draw.Src)
		placeholder(tile)
	}

	r.mu.Lock()
	if len(r.tiles) >= maxCachedTiles {
		r.tiles = map[string]*image.RGBA{}
	}
	r.tiles[key] = tile
	r.mu.Unlock()
	return tile
}

func (r *Rasterizer) paintTile(tile *image.RGBA, it domain.Item) error {
	switch it.Kind {
	case domain.KindText:
		style := domain.DefaultTextStyle()
		if it.Style != nil {
			style = *it.Style
		}
		r.textMu.Lock()
		defer r.textMu.Unlock()
		return textlayout.DrawBox(tile, tile.Bounds(), it.Content, textlayout.FromTextStyle(style), r.fonts)
	case domain.KindImage:
		return r.paintPicture(tile, it.Content, true)
	case domain.KindSticker:
		return r.paintPicture(tile, it.Content, false)
	}
	return fmt.Errorf("unknown kind %q", it.Kind)
}

// paintPicture draws image content: cover-fit for photos, contain-fit for
// stickers.
func (r *Rasterizer) paintPicture(tile *image.RGBA, content string, cover bool) error {
	mt, data, err := r.load(content)
	if err != nil {
		return err
	}
	if intake.IsSVG(mt, data) {
		return paintSVG(tile, data, cover)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	sr := src.Bounds()
	dr := tile.Bounds()
	if cover {
		sr = coverSource(sr, dr)
	} else {
		dr = containTarget(sr, dr)
	}
	xdraw.CatmullRom.Scale(tile, dr, src, sr, xdraw.Over, nil)
	return nil
}

func (r *Rasterizer) load(content string) (string, []byte, error) {
	switch {
	case strings.HasPrefix(content, "data:"):
		return intake.DecodeDataURI(content)
	case strings.HasPrefix(content, "asset:"):
		if r.assets == nil {
			return "", nil, errors.New("no asset resolver configured")
		}
		b, err := r.assets(content)
		if err != nil {
			return "", nil, err
		}
		mt := ""
		if strings.HasSuffix(content, ".svg") {
			mt = "image/svg+xml"
		}
		return mt, b, nil
	}
	return "", nil, fmt.Errorf("unsupported content reference %.32q", content)
}

func paintSVG(tile *image.RGBA, data []byte, cover bool) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return fmt.Errorf("parse svg: %w", err)
	}
	vb := image.Rect(0, 0, int(icon.ViewBox.W), int(icon.ViewBox.H))
	if vb.Empty() {
		vb = tile.Bounds()
	}
	dr := tile.Bounds()
	if !cover {
		dr = containTarget(vb, dr)
	}
	icon.SetTarget(float64(dr.Min.X), float64(dr.Min.Y), float64(dr.Dx()), float64(dr.Dy()))
	w, h := tile.Bounds().Dx(), tile.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, tile, tile.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return nil
}

// coverSource returns the centred part of src with dst's aspect ratio.
func coverSource(src, dst image.Rectangle) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return src
	}
	if sw/sh > dw/dh {
		cw := int(sh * dw / dh)
		x := src.Min.X + (src.Dx()-cw)/2
		return image.Rect(x, src.Min.Y, x+cw, src.Max.Y)
	}
	ch := int(sw * dh / dw)
	y := src.Min.Y + (src.Dy()-ch)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+ch)
}

// containTarget returns the centred part of dst that src fits in without
// cropping.
func containTarget(src, dst image.Rectangle) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return dst
	}
	s := min(dw/sw, dh/sh)
	w, h := int(sw*s+0.5), int(sh*s+0.5)
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

var (
	placeholderFill   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	placeholderBorder = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
)

// placeholder draws a grey box with a border and a diagonal cross.
func placeholder(tile *image.RGBA) {
	b := tile.Bounds()
	draw.Draw(tile, b, image.NewUniform(placeholderFill), image.Point{}, draw.Src)
	for x := b.Min.X; x < b.Max.X; x++ {
		tile.SetRGBA(x, b.Min.Y, placeholderBorder)
		tile.SetRGBA(x, b.Max.Y-1, placeholderBorder)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		tile.SetRGBA(b.Min.X, y, placeholderBorder)
		tile.SetRGBA(b.Max.X-1, y, placeholderBorder)
	}
	n := max(b.Dx(), b.Dy())
	for i := 0; i < n; i++ {
		x := b.Min.X + i*b.Dx()/n
		y := b.Min.Y + i*b.Dy()/n
		tile.SetRGBA(x, y, placeholderBorder)
		tile.SetRGBA(b.Max.X-1-(x-b.Min.X), y, placeholderBorder)
	}
}

// fade returns a copy of img with alpha scaled by a.
func fade(img *image.RGBA, a float64) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for i, v := range img.Pix {
		out.Pix[i] = uint8(float64(v)*a + 0.5)
	}
	return out
}

func tileSize(s domain.Size) (int, int) {
	w := int(s.Width + 0.5)
	h := int(s.Height + 0.5)
	return max(1, w), max(1, h)
}

func tileKey(it domain.Item) string {
	var b strings.Builder
	b.WriteString(string(it.Kind))
	b.WriteByte('|')
	w, h := tileSize(it.Size)
	b.WriteString(strconv.Itoa(w))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(h))
	if it.Style != nil {
		s := *it.Style
		fmt.Fprintf(&b, "|%s|%s|%s|%s|%s|%s|%s", s.FontSize, s.Color, s.FontFamily, s.FontWeight, s.FontStyle, s.TextDecoration, s.TextAlign)
	}
	// data URIs run to megabytes; the key keeps only their digest
	sum := sha256.Sum256([]byte(it.Content))
	b.WriteByte('|')
	b.WriteString(hex.EncodeToString(sum[:]))
	return b.String()
}
