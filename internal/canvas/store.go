/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas owns the authoritative state of one journal page: its items,
// the selection, the theme and the single rotation gesture that may be in
// progress. All mutation goes through the methods here.
package canvas

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"travelstory/internal/domain"
	applog "travelstory/internal/log"
	"travelstory/internal/transform"
)

var (
	// ErrDuplicateID is returned when adding an item whose id is already used.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrNotText is returned when styling an item that is not a text item.
	ErrNotText = errors.New("item has no text style")
)

// Config sets up a Store.
type Config struct {
	// Bounds is the canvas rectangle drags are clamped to. A zero rect
	// disables clamping.
	Bounds transform.Rect
}

// Store is the canvas state store. It is safe for concurrent use, though
// the editor drives it from a single event stream.
type Store struct {
	mu         sync.Mutex
	state      domain.CanvasState
	bounds     transform.Rect
	rotation   transform.RotationSession
	rotatingID string
	closed     bool
	log        *slog.Logger
}

// New returns a store holding an empty canvas.
func New(cfg Config) *Store {
	return &Store{
		state:  domain.EmptyState(),
		bounds: cfg.Bounds,
		log:    applog.WithComponent("canvas"),
	}
}

// Bounds returns the clamp rectangle.
func (s *Store) Bounds() transform.Rect { return s.bounds }

// Replace swaps in a whole state, e.g. one loaded from the journal. Any
// rotation gesture is dropped. The state must satisfy domain invariants.
func (s *Store) Replace(st domain.CanvasState) error {
	if st.Items == nil {
		st.Items = []domain.Item{}
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("replace canvas: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRotationLocked()
	s.state = st.Clone()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.CanvasState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Item returns a copy of the item with id.
func (s *Store) Item(id string) (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Find(id)
}

// Len returns the number of items on the canvas.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Items)
}

// AddItem appends it. Its zIndex is always set to max+1, whatever the caller
// supplied, so zIndex follows creation order.
func (s *Store) AddItem(it domain.Item) (domain.Item, error) {
	if !it.Kind.Valid() {
		return domain.Item{}, fmt.Errorf("add item: unknown type %q", it.Kind)
	}
	if it.ID == "" {
		it.ID = domain.NewID(it.Kind)
	}
	if it.Kind == domain.KindText && it.Style == nil {
		st := domain.DefaultTextStyle()
		it.Style = &st
	}
	if it.Kind != domain.KindText {
		it.Style = nil
	}
	it.Size = transform.FloorSize(it.Size)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Index(it.ID) >= 0 {
		return domain.Item{}, fmt.Errorf("add item %s: %w", it.ID, ErrDuplicateID)
	}
	it.ZIndex = s.state.MaxZIndex() + 1
	it = it.Clone()
	s.state.Items = append(s.state.Items, it)
	applog.WithItem(s.log, it.ID).Debug("item added", slog.String("type", string(it.Kind)), slog.Int("z", it.ZIndex))
	return it.Clone(), nil
}

// AddImage places a new image item showing content.
func (s *Store) AddImage(content string) domain.Item {
	it, _ := s.AddItem(domain.NewImage(content, 0))
	return it
}

// AddText places a new text item with the placeholder text.
func (s *Store) AddText() domain.Item {
	it, _ := s.AddItem(domain.NewText(0))
	return it
}

// AddSticker places a new sticker item from a catalog src.
func (s *Store) AddSticker(src string) domain.Item {
	it, _ := s.AddItem(domain.NewSticker(src, 0))
	return it
}

// mutate runs fn on the item with id. It reports false, without error, when
// the item no longer exists.
func (s *Store) mutate(id, op string, fn func(it *domain.Item) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.Index(id)
	if i < 0 {
		applog.WithItem(s.log, id).Debug("mutation on vanished item ignored", slog.String("op", op))
		return false, nil
	}
	if err := fn(&s.state.Items[i]); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateContent replaces the content of an item.
func (s *Store) UpdateContent(id, content string) bool {
	ok, _ := s.mutate(id, "content", func(it *domain.Item) error {
		it.Content = content
		return nil
	})
	return ok
}

// UpdateStyle shallow-merges patch into the style of a text item.
func (s *Store) UpdateStyle(id string, patch domain.StylePatch) (bool, error) {
	if err := patch.Validate(); err != nil {
		return false, err
	}
	return s.mutate(id, "style", func(it *domain.Item) error {
		if it.Kind != domain.KindText {
			return fmt.Errorf("style %s: %w", it.ID, ErrNotText)
		}
		base := domain.DefaultTextStyle()
		if it.Style != nil {
			base = *it.Style
		}
		merged := base.Merge(patch)
		it.Style = &merged
		return nil
	})
}

// UpdatePosition moves an item.
func (s *Store) UpdatePosition(id string, pos domain.Position) bool {
	ok, _ := s.mutate(id, "position", func(it *domain.Item) error {
		it.Position = pos
		return nil
	})
	return ok
}

// UpdateSize resizes an item, flooring both axes at domain.MinDim.
func (s *Store) UpdateSize(id string, size domain.Size) bool {
	ok, _ := s.mutate(id, "size", func(it *domain.Item) error {
		it.Size = transform.FloorSize(size)
		return nil
	})
	return ok
}

// UpdateRotation sets the rotation in degrees.
func (s *Store) UpdateRotation(id string, deg float64) bool {
	ok, _ := s.mutate(id, "rotation", func(it *domain.Item) error {
		it.Rotation = deg
		return nil
	})
	return ok
}

// DeleteItem removes an item. A matching selection is cleared and a rotation
// gesture on the item is ended. Survivors keep their zIndex.
func (s *Store) DeleteItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.Index(id)
	if i < 0 {
		return false
	}
	s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	if s.state.SelectedItemID == id {
		s.state.SelectedItemID = ""
	}
	if s.rotatingID == id {
		s.endRotationLocked()
	}
	applog.WithItem(s.log, id).Debug("item deleted")
	return true
}

// Clear removes every item and the selection. The theme is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Items = []domain.Item{}
	s.state.SelectedItemID = ""
	s.endRotationLocked()
	s.log.Debug("canvas cleared")
}

// Select marks id as selected. An empty id clears the selection; an unknown
// id leaves it unchanged and reports false.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.state.SelectedItemID = ""
		return true
	}
	if s.state.Index(id) < 0 {
		return false
	}
	s.state.SelectedItemID = id
	return true
}

// Selected returns the selected item id, or "".
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SelectedItemID
}

// SetTheme switches the canvas theme.
func (s *Store) SetTheme(t domain.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("set theme: unknown theme %q", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Theme = t
	return nil
}

// BeginRotation starts a rotate gesture on id with the pivot at the item's
// centre. It supersedes any gesture already in progress.
func (s *Store) BeginRotation(id string, pointer transform.Pt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	i := s.state.Index(id)
	if i < 0 {
		return false
	}
	it := s.state.Items[i]
	c := it.Center()
	s.rotation.Begin(pointer, transform.Pt{X: c.X, Y: c.Y}, it.Rotation)
	s.rotatingID = id
	return true
}

// RotateTo applies the rotation implied by pointer to the item being
// rotated. It reports false when no gesture is active.
func (s *Store) RotateTo(pointer transform.Pt) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deg, ok := s.rotation.Update(pointer)
	if !ok {
		return 0, false
	}
	i := s.state.Index(s.rotatingID)
	if i < 0 {
		s.endRotationLocked()
		return 0, false
	}
	s.state.Items[i].Rotation = deg
	return deg, true
}

// EndRotation finishes the current rotate gesture.
func (s *Store) EndRotation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRotationLocked()
}

// GestureEnd is the top-level pointer-up signal. It tears down a rotation
// whose own end event never arrived.
func (s *Store) GestureEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotation.Active() {
		applog.WithItem(s.log, s.rotatingID).Debug("rotation ended by gesture end")
	}
	s.endRotationLocked()
}

// Rotating returns the id of the item under an active rotate gesture.
func (s *Store) Rotating() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotatingID, s.rotation.Active()
}

// Close tears down the store's gesture state. Later rotations are refused.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRotationLocked()
	s.closed = true
}

func (s *Store) endRotationLocked() {
	s.rotation.End()
	s.rotatingID = ""
}
