/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"errors"
	"fmt"

	"travelstory/internal/domain"
	"travelstory/internal/transform"
)

// EventKind names a UI gesture or command routed through Dispatch.
type EventKind string

const (
	EventMove        EventKind = "move"
	EventResize      EventKind = "resize"
	EventRotateStart EventKind = "rotate-start"
	EventRotate      EventKind = "rotate"
	EventRotateEnd   EventKind = "rotate-end"
	EventGestureEnd  EventKind = "gesture-end"
	EventSelect      EventKind = "select"
	EventContent     EventKind = "content"
	EventStyle       EventKind = "style"
	EventDelete      EventKind = "delete"
)

// Payloads carried by Event.
type (
	// Move is a drag stop at To (top-left, canvas pixels).
	Move struct{ To domain.Position }
	// Resize is a resize stop with the new on-screen box.
	Resize struct {
		Position domain.Position
		Size     domain.Size
	}
	// Rotate carries the pointer for rotate-start and rotate events.
	Rotate struct{ Pointer transform.Pt }
	// Content replaces an item's content.
	Content struct{ Text string }
	// Style is a partial text style.
	Style struct{ Patch domain.StylePatch }
)

// Event is one discrete UI event aimed at an item.
type Event struct {
	Kind    EventKind
	ItemID  string
	Payload any
}

// ErrBadPayload is returned when an event carries the wrong payload type.
var ErrBadPayload = errors.New("unexpected event payload")

// Dispatch runs ev through the transform engine and applies the result.
// It reports whether the canvas changed; events aimed at vanished items
// report false with a nil error.
func (s *Store) Dispatch(ev Event) (bool, error) {
	switch ev.Kind {
	case EventMove:
		p, ok := ev.Payload.(Move)
		if !ok {
			return false, badPayload(ev)
		}
		it, found := s.Item(ev.ItemID)
		if !found {
			return false, nil
		}
		to := transform.Move(it, p.To)
		if s.bounds.W > 0 && s.bounds.H > 0 {
			to = transform.ClampToBounds(to, it.Size, s.bounds)
		}
		return s.UpdatePosition(ev.ItemID, to), nil

	case EventResize:
		p, ok := ev.Payload.(Resize)
		if !ok {
			return false, badPayload(ev)
		}
		it, found := s.Item(ev.ItemID)
		if !found {
			return false, nil
		}
		pos, size := transform.Resize(it, p.Position, p.Size)
		return s.mutate(ev.ItemID, "resize", func(it *domain.Item) error {
			it.Position = pos
			it.Size = size
			return nil
		})

	case EventRotateStart:
		p, ok := ev.Payload.(Rotate)
		if !ok {
			return false, badPayload(ev)
		}
		return s.BeginRotation(ev.ItemID, p.Pointer), nil

	case EventRotate:
		p, ok := ev.Payload.(Rotate)
		if !ok {
			return false, badPayload(ev)
		}
		_, changed := s.RotateTo(p.Pointer)
		return changed, nil

	case EventRotateEnd:
		s.EndRotation()
		return false, nil

	case EventGestureEnd:
		s.GestureEnd()
		return false, nil

	case EventSelect:
		return s.Select(ev.ItemID), nil

	case EventContent:
		p, ok := ev.Payload.(Content)
		if !ok {
			return false, badPayload(ev)
		}
		return s.UpdateContent(ev.ItemID, p.Text), nil

	case EventStyle:
		p, ok := ev.Payload.(Style)
		if !ok {
			return false, badPayload(ev)
		}
		return s.UpdateStyle(ev.ItemID, p.Patch)

	case EventDelete:
		return s.DeleteItem(ev.ItemID), nil
	}
	return false, fmt.Errorf("dispatch: unknown event kind %q", ev.Kind)
}

func badPayload(ev Event) error {
	return fmt.Errorf("dispatch %s: %w (%T)", ev.Kind, ErrBadPayload, ev.Payload)
}
