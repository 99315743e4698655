/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"errors"
	"strings"
	"testing"

	"travelstory/internal/domain"
)

func TestCategoriesHaveSixStickersEach(t *testing.T) {
	cs, err := Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	want := []string{"travel", "decorative", "emoji"}
	if len(cs) != len(want) {
		t.Fatalf("got %d categories", len(cs))
	}
	for i, c := range cs {
		if c.Name != want[i] {
			t.Fatalf("category %d = %q, want %q", i, c.Name, want[i])
		}
		if len(c.Stickers) != 6 {
			t.Fatalf("category %s has %d stickers", c.Name, len(c.Stickers))
		}
	}
}

func TestEveryStickerAssetResolves(t *testing.T) {
	cs, err := Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	for _, c := range cs {
		for _, s := range c.Stickers {
			b, err := Asset(s.Src)
			if err != nil {
				t.Fatalf("asset for %s: %v", s.ID, err)
			}
			if !strings.Contains(string(b), "<svg") {
				t.Fatalf("asset for %s is not svg", s.ID)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	s, err := Lookup("travel-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Alt != "Airplane" || s.Src != "asset:stickers/airplane.svg" {
		t.Fatalf("unexpected sticker %+v", s)
	}
	if _, err := Lookup("travel-99"); !errors.Is(err, ErrUnknownSticker) {
		t.Fatalf("expected ErrUnknownSticker, got %v", err)
	}
}

func TestAssetRejectsBadReferences(t *testing.T) {
	for _, src := range []string{"stickers/star.svg", "asset:../catalog.go", "asset:stickers/none.svg"} {
		if _, err := Asset(src); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func TestCategoriesReturnsCopies(t *testing.T) {
	a, _ := Categories()
	a[0].Stickers[0].Alt = "changed"
	b, _ := Categories()
	if b[0].Stickers[0].Alt != "Airplane" {
		t.Fatalf("catalog mutated through returned slice")
	}
}

func TestThemes(t *testing.T) {
	ts := Themes()
	if len(ts) != 5 {
		t.Fatalf("got %d themes", len(ts))
	}
	if ts[0].ID != domain.ThemeDefault || ts[0].Name != "Default" || ts[0].Swatch != "#ffffff" {
		t.Fatalf("unexpected first theme %+v", ts[0])
	}
	if ts[2].Name != "Mountains" || ts[2].Swatch != "#eff6ff" {
		t.Fatalf("unexpected mountains entry %+v", ts[2])
	}
	if CategoryTitle("decorative") != "Decorative" {
		t.Fatalf("CategoryTitle = %q", CategoryTitle("decorative"))
	}
}
