/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"sort"
)

// This file defines the data model of a journal page: placed items and the
// canvas state that owns them. JSON tags match the persisted journal blob.

// MinDim is the smallest width or height an item may have after a resize.
const MinDim = 50

// Kind is the closed set of placeable objects.
type Kind string

const (
	KindImage   Kind = "image"
	KindText    Kind = "text"
	KindSticker Kind = "sticker"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindText, KindSticker:
		return true
	}
	return false
}

// Position is the top-left anchor of an item in canvas pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an item's unrotated extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item is one placed object on the canvas.
//
// Content holds a data URI or asset path for images and stickers and the
// plain text for text items. Rotation is in degrees, clockwise, and is not
// normalized. Style is set for text items only.
type Item struct {
	ID       string     `json:"id"`
	Kind     Kind       `json:"type"`
	Content  string     `json:"content"`
	Position Position   `json:"position"`
	Size     Size       `json:"size"`
	Rotation float64    `json:"rotation"`
	ZIndex   int        `json:"zIndex"`
	Style    *TextStyle `json:"style,omitempty"`
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.Style != nil {
		s := *it.Style
		it.Style = &s
	}
	return it
}

// Center returns the item's centre in canvas coordinates.
func (it Item) Center() Position {
	return Position{X: it.Position.X + it.Size.Width/2, Y: it.Position.Y + it.Size.Height/2}
}

// Validate checks the per-item invariants that hold for every stored item.
func (it Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("item without id")
	}
	if !it.Kind.Valid() {
		return fmt.Errorf("item %s: unknown type %q", it.ID, it.Kind)
	}
	if it.Size.Width < MinDim || it.Size.Height < MinDim {
		return fmt.Errorf("item %s: size %.0fx%.0f below minimum %d", it.ID, it.Size.Width, it.Size.Height, MinDim)
	}
	if it.Style != nil {
		if it.Kind != KindText {
			return fmt.Errorf("item %s: style on %s item", it.ID, it.Kind)
		}
		if err := it.Style.Validate(); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}
	return nil
}

// CanvasState is the full in-memory model of one journal page.
// SelectedItemID is empty when nothing is selected.
type CanvasState struct {
	Items          []Item `json:"items"`
	Theme          Theme  `json:"theme"`
	SelectedItemID string `json:"selectedItemId,omitempty"`
}

// EmptyState is the state a fresh canvas starts from.
func EmptyState() CanvasState {
	return CanvasState{Items: []Item{}, Theme: ThemeDefault}
}

// Clone deep-copies the state so callers can hold it across mutations.
func (s CanvasState) Clone() CanvasState {
	out := CanvasState{Theme: s.Theme, SelectedItemID: s.SelectedItemID, Items: make([]Item, len(s.Items))}
	for i, it := range s.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

// Index returns the position of id in Items or -1.
func (s CanvasState) Index(id string) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the item with id.
func (s CanvasState) Find(id string) (Item, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Items[i].Clone(), true
	}
	return Item{}, false
}

// MaxZIndex returns the highest zIndex in use, or 0 on an empty canvas.
func (s CanvasState) MaxZIndex() int {
	m := 0
	for _, it := range s.Items {
		if it.ZIndex > m {
			m = it.ZIndex
		}
	}
	return m
}

// ByZIndex returns the items in paint order (lowest zIndex first).
func (s CanvasState) ByZIndex() []Item {
	out := make([]Item, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Validate checks the state-level invariants: unique ids, a known theme and
// a selection that references an existing item.
func (s CanvasState) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	seen := make(map[string]struct{}, len(s.Items))
	for _, it := range s.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate item id %s", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	if s.SelectedItemID != "" {
		if _, ok := seen[s.SelectedItemID]; !ok {
			return fmt.Errorf("selection %s references no item", s.SelectedItemID)
		}
	}
	return nil
}
