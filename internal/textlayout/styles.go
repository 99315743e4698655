/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image/color"

	"travelstory/internal/domain"
)

// Padding is the inset between a text item's frame and its text, in px.
const Padding = 8

// Align is the horizontal alignment of lines inside the box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style is a text item's style resolved for drawing.
type Style struct {
	Font      FontSpec
	Color     color.RGBA
	Align     Align
	Underline bool
}

// FromTextStyle resolves the persisted style. Invalid values fall back to
// the defaults field by field so a stored item always renders.
func FromTextStyle(s domain.TextStyle) Style {
	s = s.WithDefaults()
	def := domain.DefaultTextStyle()
	size, err := s.FontSizePx()
	if err != nil {
		size, _ = def.FontSizePx()
	}
	c, err := domain.ParseColor(s.Color)
	if err != nil {
		c, _ = domain.ParseColor(def.Color)
	}
	weight := 400
	if s.Bold() {
		weight = 700
	}
	st := Style{
		Font:      FontSpec{Family: FamilyFor(s.FontFamily), SizePx: float32(size), Weight: weight, Italic: s.Italic()},
		Color:     color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A},
		Underline: s.Underline(),
	}
	switch s.TextAlign {
	case "center":
		st.Align = AlignCenter
	case "right":
		st.Align = AlignRight
	}
	return st
}
