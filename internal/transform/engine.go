/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transform holds the pure geometry behind drag, resize and rotate
// gestures on canvas items. Nothing here mutates an item; callers feed the
// results into the canvas store.
package transform

import (
	"math"

	"travelstory/internal/domain"
)

// Move returns the item's new position after a drag stop. The drag surface
// clamps against the canvas before calling, so to is taken as is.
func Move(_ domain.Item, to domain.Position) domain.Position { return to }

// Resize returns the position and size after a resize stop. Dimensions are
// truncated to whole pixels and floored at domain.MinDim.
func Resize(_ domain.Item, pos domain.Position, size domain.Size) (domain.Position, domain.Size) {
	return pos, FloorSize(size)
}

// FloorSize applies the minimum-dimension rule to a size.
func FloorSize(size domain.Size) domain.Size {
	w := math.Trunc(size.Width)
	h := math.Trunc(size.Height)
	if math.IsNaN(w) || w < domain.MinDim {
		w = domain.MinDim
	}
	if math.IsNaN(h) || h < domain.MinDim {
		h = domain.MinDim
	}
	return domain.Size{Width: w, Height: h}
}

// ClampToBounds keeps an item of the given size inside bounds, the way the
// drag surface restricts movement to its parent. Items larger than bounds
// are pinned to the top-left corner.
func ClampToBounds(pos domain.Position, size domain.Size, bounds Rect) domain.Position {
	maxX := bounds.X + bounds.W - size.Width
	maxY := bounds.Y + bounds.H - size.Height
	x := math.Max(bounds.X, math.Min(pos.X, maxX))
	y := math.Max(bounds.Y, math.Min(pos.Y, maxY))
	return domain.Position{X: x, Y: y}
}

// ItemRect is the unrotated box of an item.
func ItemRect(it domain.Item) Rect {
	return R(it.Position.X, it.Position.Y, it.Size.Width, it.Size.Height)
}

// ItemMatrix maps item-local coordinates (0,0 at the item's top-left) to
// canvas coordinates, rotating about the item's centre.
func ItemMatrix(it domain.Item) Affine2D {
	r := ItemRect(it)
	return About(r.Center(), Rotate(Radians(it.Rotation))).Mul(Translate(r.X, r.Y))
}

// Hit reports whether p (canvas coordinates) falls inside the rotated item.
func Hit(it domain.Item, p Pt) bool {
	inv, ok := ItemMatrix(it).Invert()
	if !ok {
		return false
	}
	local := inv.Apply(p)
	return R(0, 0, it.Size.Width, it.Size.Height).Contains(local)
}

// TopmostAt returns the id of the highest-zIndex item under p.
func TopmostAt(items []domain.Item, p Pt) (string, bool) {
	best := -1
	for i, it := range items {
		if !Hit(it, p) {
			continue
		}
		if best < 0 || it.ZIndex > items[best].ZIndex {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return items[best].ID, true
}

// RotatedBounds returns the axis-aligned box enclosing the rotated item.
func RotatedBounds(it domain.Item) Rect {
	m := ItemMatrix(it)
	w, h := it.Size.Width, it.Size.Height
	corners := [4]Pt{m.Apply(Pt{0, 0}), m.Apply(Pt{w, 0}), m.Apply(Pt{0, h}), m.Apply(Pt{w, h})}
	out := Rect{X: corners[0].X, Y: corners[0].Y}
	for _, c := range corners[1:] {
		out = out.Union(Rect{X: c.X, Y: c.Y})
	}
	return out
}
