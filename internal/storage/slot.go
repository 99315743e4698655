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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	applog "travelstory/internal/log"
)

// JournalKey is the slot key the journal is stored under.
const JournalKey = "travelStoryJournal"

// ErrSlotEmpty is returned by Read when nothing has been written under key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable single-value store addressed by key. Write overwrites;
// there is no history and the last writer wins.
type Slot interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Close() error
}

// Backend names accepted by OpenSlot.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SlotConfig selects and locates a slot backend.
type SlotConfig struct {
	Type string // file | sqlite | memory
	Dir  string // data directory for file and sqlite backends
}

// OpenSlot returns the backend named by cfg.Type. Unknown types fall back to
// the file backend.
func OpenSlot(cfg SlotConfig) (Slot, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	l := applog.WithOperation(applog.WithComponent("storage"), "open_slot").With(
		slog.String("type", typ),
		slog.String("dir", cfg.Dir),
	)
	switch typ {
	case BackendMemory:
		l.Info("use storage", slog.String("backend", BackendMemory))
		return NewMemorySlot(), nil
	case BackendSQLite:
		if strings.TrimSpace(cfg.Dir) == "" {
			return nil, errors.New("sqlite slot: data dir is required")
		}
		s, err := OpenSQLiteSlot(filepath.Join(cfg.Dir, SQLiteFileName))
		if err != nil {
			return nil, err
		}
		v, err := s.SchemaVersion(context.Background())
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		l.Info("use storage", slog.String("backend", BackendSQLite), slog.Int("schema", v))
		return s, nil
	case BackendFile, "":
	default:
		l.Warn("unknown storage type, using file backend")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("file slot: data dir is required")
	}
	s, err := NewFileSlot(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("file slot: %w", err)
	}
	l.Info("use storage", slog.String("backend", BackendFile))
	return s, nil
}
