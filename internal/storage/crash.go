/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"travelstory/internal/domain"
)

// BackupsDirName is the folder under the data dir that holds crash
// snapshots, crash reports and database backups.
const BackupsDirName = "backups"

// AutosaveCrashSnapshot writes a timestamped copy of state into
// <dir>/backups and returns its path. It is used on a best-effort basis when
// the program is about to terminate abnormally.
func AutosaveCrashSnapshot(dir string, state domain.CanvasState) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	now := time.Now()
	data, err := Encode(state, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", JournalKey, now.Format("20060102-150405")))
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
