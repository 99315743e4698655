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
	"image/color"
	"testing"

	"travelstory/internal/domain"
)

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout("Hello world from Go", FontSpec{}, 50)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
}

func TestWordWrap_KeepsNewlinesAndEmptyLines(t *testing.T) {
	box, _ := NewWordWrap(BasicProvider{}).Layout("a\n\nb", FontSpec{}, 1000)
	if len(box.Lines) != 3 || box.Lines[1].Text != "" || box.Lines[2].Text != "b" {
		t.Fatalf("unexpected lines %+v", box.Lines)
	}
}

func TestWordWrap_LongWordOverflowsOnItsOwnLine(t *testing.T) {
	box, _ := NewWordWrap(BasicProvider{}).Layout("hi extraordinarily", FontSpec{}, 30)
	if len(box.Lines) != 2 || box.Lines[1].Text != "extraordinarily" {
		t.Fatalf("unexpected lines %+v", box.Lines)
	}
	if box.Width <= 30 {
		t.Fatalf("long word should overflow, width=%v", box.Width)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := measure(BasicProvider{}, FontSpec{}, "ABC")
	w2, h2 := measure(BasicProvider{}, FontSpec{}, "ABC")
	if w1 != w2 || h1 != h2 || w1 != 21 {
		t.Fatalf("expected 7px per glyph, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
}

func TestGoProviderResolvesStyles(t *testing.T) {
	p, err := NewGoProvider()
	if err != nil {
		t.Fatalf("NewGoProvider: %v", err)
	}
	regular, _ := measure(p, FontSpec{Family: FamilySans, SizePx: 32, Weight: 400}, "Travel")
	bold, _ := measure(p, FontSpec{Family: FamilySans, SizePx: 32, Weight: 700}, "Travel")
	small, _ := measure(p, FontSpec{Family: FamilySans, SizePx: 16, Weight: 400}, "Travel")
	if regular <= small {
		t.Fatalf("bigger size should be wider: %v <= %v", regular, small)
	}
	if bold == regular {
		t.Fatalf("bold face should measure differently")
	}
	_, met := p.Resolve(FontSpec{Family: "Unknown", SizePx: 12})
	if met.Ascent != 11 {
		t.Fatalf("unknown family should fall back to basic font, ascent=%v", met.Ascent)
	}
}

func TestFromTextStyle(t *testing.T) {
	s := domain.DefaultTextStyle()
	s.FontSize = "24px"
	s.Color = "red"
	s.FontWeight = "bold"
	s.TextAlign = "center"
	s.TextDecoration = "underline"
	s.FontFamily = "Courier New, monospace"
	st := FromTextStyle(s)
	if st.Font.SizePx != 24 || st.Font.Weight != 700 || st.Font.Family != FamilyMono {
		t.Fatalf("font not resolved: %+v", st.Font)
	}
	if st.Color != (color.RGBA{R: 255, A: 255}) || st.Align != AlignCenter || !st.Underline {
		t.Fatalf("style not resolved: %+v", st)
	}
	bad := FromTextStyle(domain.TextStyle{FontSize: "900px", Color: "nope"})
	if bad.Font.SizePx != 16 || bad.Color != (color.RGBA{A: 255}) || bad.Align != AlignLeft {
		t.Fatalf("invalid values should fall back to defaults: %+v", bad)
	}
}

func TestDrawBoxPaintsInsidePadding(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 60))
	st := Style{Font: FontSpec{SizePx: 13}, Color: color.RGBA{A: 255}, Underline: true}
	if err := DrawBox(img, img.Bounds(), "Hello", st, BasicProvider{}); err != nil {
		t.Fatalf("DrawBox: %v", err)
	}
	inked := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 120; x++ {
			if img.RGBAAt(x, y).A != 0 {
				if x < Padding || y < Padding {
					t.Fatalf("ink inside padding at %d,%d", x, y)
				}
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatalf("nothing drawn")
	}
}

func TestDrawBoxAlignRight(t *testing.T) {
	left := image.NewRGBA(image.Rect(0, 0, 200, 40))
	right := image.NewRGBA(image.Rect(0, 0, 200, 40))
	st := Style{Font: FontSpec{SizePx: 13}, Color: color.RGBA{A: 255}}
	_ = DrawBox(left, left.Bounds(), "ab", st, BasicProvider{})
	st.Align = AlignRight
	_ = DrawBox(right, right.Bounds(), "ab", st, BasicProvider{})
	if minInkX(right) <= minInkX(left) {
		t.Fatalf("right aligned text should start further right: %d <= %d", minInkX(right), minInkX(left))
	}
}

func minInkX(img *image.RGBA) int {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if img.RGBAAt(x, y).A != 0 {
				return x
			}
		}
	}
	return b.Max.X
}
