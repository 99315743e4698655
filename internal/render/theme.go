/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"

	"travelstory/internal/domain"
)

// overlayAlpha is the opacity of the decorative theme bands.
const overlayAlpha = 0.2

var (
	white    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	amber50  = color.RGBA{0xff, 0xfb, 0xeb, 0xff}
	blue50   = color.RGBA{0xef, 0xf6, 0xff, 0xff}
	orange50 = color.RGBA{0xff, 0xf7, 0xed, 0xff}
	green50  = color.RGBA{0xf0, 0xfd, 0xf4, 0xff}

	amber200  = color.RGBA{0xfd, 0xe6, 0x8a, 0xff}
	blue100   = color.RGBA{0xdb, 0xea, 0xfe, 0xff}
	blue200   = color.RGBA{0xbf, 0xdb, 0xfe, 0xff}
	green200  = color.RGBA{0xbb, 0xf7, 0xd0, 0xff}
	gray200   = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	orange200 = color.RGBA{0xfe, 0xd7, 0xaa, 0xff}
	red200    = color.RGBA{0xfe, 0xca, 0xca, 0xff}
	purple200 = color.RGBA{0xe9, 0xd5, 0xff, 0xff}
)

// Background returns the flat background colour of a theme.
func Background(t domain.Theme) color.RGBA {
	switch t {
	case domain.ThemeBeach:
		return amber50
	case domain.ThemeMountains:
		return blue50
	case domain.ThemeSunset:
		return orange50
	case domain.ThemeForest:
		return green50
	}
	return white
}

// PaintTheme fills dst with the theme background and its overlay bands.
func PaintTheme(dst *image.RGBA, t domain.Theme) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(Background(t)), image.Point{}, draw.Src)
	h := b.Dy()
	third := func(n int) int { return b.Min.Y + h*n/3 }
	switch t {
	case domain.ThemeBeach:
		blendRect(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, third(2)), blue200)
		blendRect(dst, image.Rect(b.Min.X, third(2), b.Max.X, b.Max.Y), amber200)
	case domain.ThemeMountains:
		blendRect(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, third(1)), blue200)
		mountain(dst, image.Rect(b.Min.X, third(1), b.Max.X, third(2)), gray200)
		blendRect(dst, image.Rect(b.Min.X, third(2), b.Max.X, b.Max.Y), green200)
	case domain.ThemeSunset:
		gradient(dst, b, orange200, red200, purple200)
	case domain.ThemeForest:
		blendRect(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, third(1)), blue100)
		blendRect(dst, image.Rect(b.Min.X, third(1), b.Max.X, b.Max.Y), green200)
	}
}

func withAlpha(c color.RGBA, a float64) color.RGBA {
	// premultiplied
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(255 * a),
	}
}

func blendRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, image.NewUniform(withAlpha(c, overlayAlpha)), image.Point{}, draw.Over)
}

// mountain fills a triangle with its apex at the top centre of r.
func mountain(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	f := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	f.SetColor(withAlpha(c, overlayAlpha))
	f.Start(rasterx.ToFixedP(float64(r.Min.X), float64(r.Max.Y)))
	f.Line(rasterx.ToFixedP(float64(r.Min.X+r.Max.X)/2, float64(r.Min.Y)))
	f.Line(rasterx.ToFixedP(float64(r.Max.X), float64(r.Max.Y)))
	f.Stop(true)
	f.Draw()
}

// gradient blends a top-to-bottom three-stop gradient over r.
func gradient(dst *image.RGBA, r image.Rectangle, from, via, to color.RGBA) {
	h := r.Dy()
	if h <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := float64(y-r.Min.Y) / float64(max(1, h-1))
		var c color.RGBA
		if t < 0.5 {
			c = lerp(from, via, t*2)
		} else {
			c = lerp(via, to, (t-0.5)*2)
		}
		draw.Draw(dst, image.Rect(r.Min.X, y, r.Max.X, y+1), image.NewUniform(withAlpha(c, overlayAlpha)), image.Point{}, draw.Over)
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
