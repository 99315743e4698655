/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DrawBox lays out text inside r (minus Padding) and draws it onto dst.
// Lines that fall below the box are clipped by r.
func DrawBox(dst draw.Image, r image.Rectangle, text string, st Style, p Provider) error {
	if p == nil {
		p = BasicProvider{}
	}
	inner := r.Inset(Padding)
	if inner.Empty() {
		return nil
	}
	box, err := NewWordWrap(p).Layout(text, st.Font, float32(inner.Dx()))
	if err != nil {
		return err
	}
	face, met := p.Resolve(st.Font)
	clip := clipImage{Image: dst, r: r.Intersect(dst.Bounds())}
	d := &font.Drawer{Dst: clip, Src: image.NewUniform(st.Color), Face: face}
	thick := int(math.Max(1, math.Round(float64(st.Font.SizePx)/16)))
	y := float32(inner.Min.Y)
	for _, ln := range box.Lines {
		x := float32(inner.Min.X)
		switch st.Align {
		case AlignCenter:
			x += (float32(inner.Dx()) - ln.Width) / 2
		case AlignRight:
			x += float32(inner.Dx()) - ln.Width
		}
		base := y + met.Ascent
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(base * 64)}
		d.DrawString(ln.Text)
		if st.Underline && ln.Width > 0 {
			uy := int(base) + thick + 1
			ur := image.Rect(int(x), uy, int(x+ln.Width), uy+thick)
			draw.Draw(clip, ur, d.Src, image.Point{}, draw.Over)
		}
		y += met.LineHeight()
		if int(y) > r.Max.Y {
			break
		}
	}
	return nil
}

// clipImage restricts drawing to r.
type clipImage struct {
	draw.Image
	r image.Rectangle
}

func (c clipImage) Bounds() image.Rectangle { return c.r }
