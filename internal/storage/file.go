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
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FileSlot stores each key as <dir>/<key>.json.
type FileSlot struct {
	Dir string
}

// NewFileSlot ensures dir exists and returns a slot rooted there.
func NewFileSlot(dir string) (*FileSlot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSlot{Dir: dir}, nil
}

// Path returns the file backing key.
func (f *FileSlot) Path(key string) string { return filepath.Join(f.Dir, key+".json") }

func (f *FileSlot) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	return b, nil
}

// Write replaces the value transactionally: the data goes to a temp file in
// the same directory which is then renamed over the target, so readers see
// either the old or the new value.
func (f *FileSlot) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(f.Path(key), data)
}

func (f *FileSlot) Close() error { return nil }

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	if replaceNeedsRemove() {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), rerr)
	}
	return nil
}

// replaceNeedsRemove reports whether rename refuses to overwrite an existing
// destination. Only Windows does; elsewhere rename replaces atomically and a
// prior remove would open a window with no file at all.
func replaceNeedsRemove() bool { return runtime.GOOS == "windows" }

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// WriteFileAtomic exposes the transactional write for other packages that
// deliver files (exports, crash snapshots).
func WriteFileAtomic(path string, data []byte) error { return writeFileAtomic(path, data) }
