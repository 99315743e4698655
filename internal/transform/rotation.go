/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transform

import "math"

// RotationSession tracks one in-progress rotate gesture. The zero value is
// inactive.
//
// The angle is recomputed from the pointer on every update instead of being
// accumulated, so repeated updates with the same pointer give the same value.
type RotationSession struct {
	active           bool
	pivot            Pt
	startAngleOffset float64 // radians
}

// Begin starts a gesture around center for an item currently rotated by
// currentDeg degrees. Any previous gesture is superseded.
func (s *RotationSession) Begin(pointer, center Pt, currentDeg float64) {
	s.active = true
	s.pivot = center
	s.startAngleOffset = math.Atan2(pointer.Y-center.Y, pointer.X-center.X) - Radians(currentDeg)
}

// Update returns the rotation in degrees for pointer. ok is false when no
// gesture is active.
func (s *RotationSession) Update(pointer Pt) (deg float64, ok bool) {
	if !s.active {
		return 0, false
	}
	angle := math.Atan2(pointer.Y-s.pivot.Y, pointer.X-s.pivot.X)
	return Degrees(angle - s.startAngleOffset), true
}

// End clears the session. Calling it on an inactive session is harmless.
func (s *RotationSession) End() { *s = RotationSession{} }

// Active reports whether a gesture is in progress.
func (s *RotationSession) Active() bool { return s.active }
