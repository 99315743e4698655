/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// Theme is the closed set of canvas backgrounds.
type Theme string

const (
	ThemeDefault   Theme = "default"
	ThemeBeach     Theme = "beach"
	ThemeMountains Theme = "mountains"
	ThemeSunset    Theme = "sunset"
	ThemeForest    Theme = "forest"
)

var themes = []Theme{ThemeDefault, ThemeBeach, ThemeMountains, ThemeSunset, ThemeForest}

// Themes returns every theme in picker order.
func Themes() []Theme { return append([]Theme(nil), themes...) }

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	for _, k := range themes {
		if k == t {
			return true
		}
	}
	return false
}

// ParseTheme validates a theme id.
func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q (want one of %v)", s, themes)
	}
	return t, nil
}
