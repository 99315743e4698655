/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"math"

	"travelstory/internal/domain"
	"travelstory/internal/transform"
)

// Viewport maps between canvas pixels and widget coordinates. The canvas is
// scaled uniformly to fit the widget and centred in it.
type Viewport struct {
	Scale   float64
	OffX    float64
	OffY    float64
	CanvasW float64
	CanvasH float64
}

// FitViewport fits a canvas of cw×ch into a widget of vw×vh.
func FitViewport(cw, ch, vw, vh float64) Viewport {
	if cw <= 0 || ch <= 0 || vw <= 0 || vh <= 0 {
		return Viewport{Scale: 1, CanvasW: cw, CanvasH: ch}
	}
	s := math.Min(vw/cw, vh/ch)
	return Viewport{Scale: s, OffX: (vw - cw*s) / 2, OffY: (vh - ch*s) / 2, CanvasW: cw, CanvasH: ch}
}

// ToCanvas converts a widget position to canvas pixels.
func (v Viewport) ToCanvas(x, y float64) transform.Pt {
	if v.Scale == 0 {
		return transform.Pt{X: x, Y: y}
	}
	return transform.Pt{X: (x - v.OffX) / v.Scale, Y: (y - v.OffY) / v.Scale}
}

// ToWidget converts canvas pixels to a widget position.
func (v Viewport) ToWidget(p transform.Pt) (float64, float64) {
	return p.X*v.Scale + v.OffX, p.Y*v.Scale + v.OffY
}

// Handle identifies the part of a selected item under the pointer.
type Handle int

const (
	HandleNone Handle = iota
	HandleBody
	HandleResize
	HandleRotate
)

// Handle geometry in canvas pixels.
const (
	handleRadius   = 8.0
	rotateDistance = 24.0
)

// RotateHandle is the rotation knob above the item's top edge, rotated
// with the item.
func RotateHandle(it domain.Item) transform.Pt {
	return transform.ItemMatrix(it).Apply(transform.Pt{X: it.Size.Width / 2, Y: -rotateDistance})
}

// ResizeHandle is the item's bottom-right corner.
func ResizeHandle(it domain.Item) transform.Pt {
	return transform.ItemMatrix(it).Apply(transform.Pt{X: it.Size.Width, Y: it.Size.Height})
}

// HandleAt reports which handle of the selected item lies under p.
func HandleAt(it domain.Item, p transform.Pt) Handle {
	if near(RotateHandle(it), p) {
		return HandleRotate
	}
	if near(ResizeHandle(it), p) {
		return HandleResize
	}
	if transform.Hit(it, p) {
		return HandleBody
	}
	return HandleNone
}

func near(a, b transform.Pt) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= handleRadius
}
