/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"travelstory/internal/domain"
	applog "travelstory/internal/log"
)

// blob is the persisted shape of a journal page. Selection is session state
// and is not written.
type blob struct {
	Items   []domain.Item `json:"items"`
	Theme   domain.Theme  `json:"theme"`
	SavedAt string        `json:"savedAt"`
}

// Journal saves and restores the canvas state in a single slot.
type Journal struct {
	slot Slot
	key  string
	now  func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock replaces the clock used for savedAt.
func WithClock(now func() time.Time) Option { return func(j *Journal) { j.now = now } }

// NewJournal returns a journal over slot.
func NewJournal(slot Slot, opts ...Option) *Journal {
	j := &Journal{slot: slot, key: JournalKey, now: time.Now}
	for _, o := range opts {
		o(j)
	}
	return j
}

// Encode renders the persisted blob for state at time t.
func Encode(state domain.CanvasState, t time.Time) ([]byte, error) {
	b := blob{Items: state.Items, Theme: state.Theme, SavedAt: t.UTC().Format(time.RFC3339)}
	if b.Items == nil {
		b.Items = []domain.Item{}
	}
	if b.Theme == "" {
		b.Theme = domain.ThemeDefault
	}
	// text items always carry their full style on disk
	copied := false
	for i, it := range b.Items {
		if it.Kind != domain.KindText || it.Style != nil {
			continue
		}
		if !copied {
			b.Items = append([]domain.Item(nil), b.Items...)
			copied = true
		}
		st := domain.DefaultTextStyle()
		b.Items[i].Style = &st
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal journal: %w", err)
	}
	return data, nil
}

// Decode validates data against the schema and the model invariants and
// returns the state it holds. Every field is required, including savedAt and
// the full style of each text item.
func Decode(data []byte) (domain.CanvasState, error) {
	if err := ValidateBlob(data); err != nil {
		return domain.CanvasState{}, err
	}
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.CanvasState{}, fmt.Errorf("unmarshal journal: %w", err)
	}
	st := domain.CanvasState{Items: b.Items, Theme: b.Theme}
	if st.Items == nil {
		st.Items = []domain.Item{}
	}
	if err := st.Validate(); err != nil {
		return domain.CanvasState{}, fmt.Errorf("invalid journal: %w", err)
	}
	return st, nil
}

// Save overwrites the slot with the current items and theme.
func (j *Journal) Save(ctx context.Context, state domain.CanvasState) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(
		slog.String("key", j.key),
		slog.Int("items", len(state.Items)),
	)
	data, err := Encode(state, j.now())
	if err != nil {
		l.ErrorContext(ctx, "encode failed", slog.Any("err", err))
		return err
	}
	if err := j.slot.Write(ctx, j.key, data); err != nil {
		l.ErrorContext(ctx, "write failed", slog.Any("err", err))
		return fmt.Errorf("save journal: %w", err)
	}
	l.DebugContext(ctx, "journal saved", slog.Int("bytes", len(data)))
	return nil
}

// Load restores the saved state. It reports false when nothing usable is
// stored; the reason is logged and never returned.
func (j *Journal) Load(ctx context.Context) (domain.CanvasState, bool) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load").With(slog.String("key", j.key))
	data, err := j.slot.Read(ctx, j.key)
	if errors.Is(err, ErrSlotEmpty) {
		l.Debug("no saved journal")
		return domain.CanvasState{}, false
	}
	if err != nil {
		l.WarnContext(ctx, "read failed", slog.Any("err", err))
		return domain.CanvasState{}, false
	}
	st, err := Decode(data)
	if err != nil {
		l.WarnContext(ctx, "saved journal rejected", slog.Any("err", err))
		return domain.CanvasState{}, false
	}
	l.InfoContext(ctx, "journal loaded", slog.Int("items", len(st.Items)), slog.String("theme", string(st.Theme)))
	return st, true
}
