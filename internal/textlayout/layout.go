/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for text measurement and line breaking. Everything that
// depends on a concrete font engine sits behind Provider so layout stays
// deterministic in tests.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePx float32
	Weight int // 400 normal, 700 bold
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the distance between consecutive baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float32
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter breaks on spaces and explicit newlines; it does not
// perform shaping or hyphenation. A word wider than the box gets a line of
// its own and overflows.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) Layout(text string, spec FontSpec, maxWidth float32) (TextBox, error) {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	face, met := l.Provider.Resolve(spec)
	drawer := &font.Drawer{Face: face}
	box := TextBox{Metrics: met}
	addLine := func(s string) {
		s = strings.TrimRight(s, " ")
		w := advance(drawer, s)
		box.Lines = append(box.Lines, Line{Text: s, Width: w})
		if w > box.Width {
			box.Width = w
		}
		box.Height += met.LineHeight()
	}
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		for _, word := range strings.Split(para, " ") {
			next := word
			if cur != "" {
				next = cur + " " + word
			}
			if cur != "" && maxWidth > 0 && advance(drawer, next) > maxWidth {
				addLine(cur)
				next = word
			}
			cur = next
		}
		addLine(cur)
	}
	return box, nil
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// measure returns the width and line height of text without line breaks.
func measure(provider Provider, spec FontSpec, text string) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	return advance(&font.Drawer{Face: face}, text), met.Ascent + met.Descent
}
