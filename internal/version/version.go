/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version carries build metadata stamped via -ldflags.
package version

import "fmt"

// Overridden at build time, e.g.
//
//	go build -ldflags "-X travelstory/internal/version.Version=1.2.0 -X travelstory/internal/version.Commit=abc123"
var (
	Version = "0.1.0-dev"
	Commit  = ""
)

// String returns a human-readable version such as "0.1.0-dev (abc123)".
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
