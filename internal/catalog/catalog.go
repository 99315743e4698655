/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog serves the sticker and theme pickers from data embedded in
// the binary.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"travelstory/internal/domain"
)

//go:embed stickers.yaml
var stickersYAML []byte

//go:embed assets
var assets embed.FS

// AssetScheme prefixes item content that refers to an embedded asset.
const AssetScheme = "asset:"

// ErrUnknownSticker is returned for ids that are not in the catalog.
var ErrUnknownSticker = errors.New("unknown sticker")

// Sticker is one entry of the picker.
type Sticker struct {
	ID  string `yaml:"id" json:"id"`
	Src string `yaml:"src" json:"src"`
	Alt string `yaml:"alt" json:"alt"`
}

// Category groups stickers under a tab.
type Category struct {
	Name     string    `yaml:"name" json:"name"`
	Stickers []Sticker `yaml:"stickers" json:"stickers"`
}

type stickerFile struct {
	Categories []Category `yaml:"categories"`
}

var (
	loadOnce   sync.Once
	categories []Category
	loadErr    error
)

func load() ([]Category, error) {
	loadOnce.Do(func() {
		var f stickerFile
		if err := yaml.Unmarshal(stickersYAML, &f); err != nil {
			loadErr = fmt.Errorf("parse sticker catalog: %w", err)
			return
		}
		categories = f.Categories
	})
	return categories, loadErr
}

// Categories returns the sticker catalog in picker order.
func Categories() ([]Category, error) {
	cs, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Category, len(cs))
	for i, c := range cs {
		out[i] = Category{Name: c.Name, Stickers: append([]Sticker(nil), c.Stickers...)}
	}
	return out, nil
}

// Lookup finds a sticker by id.
func Lookup(id string) (Sticker, error) {
	cs, err := load()
	if err != nil {
		return Sticker{}, err
	}
	for _, c := range cs {
		for _, s := range c.Stickers {
			if s.ID == id {
				return s, nil
			}
		}
	}
	return Sticker{}, fmt.Errorf("%w: %s", ErrUnknownSticker, id)
}

// Asset returns the bytes behind an "asset:" reference.
func Asset(src string) ([]byte, error) {
	if !strings.HasPrefix(src, AssetScheme) {
		return nil, fmt.Errorf("not an asset reference: %q", src)
	}
	p := strings.TrimPrefix(src, AssetScheme)
	if !fs.ValidPath(p) {
		return nil, fmt.Errorf("invalid asset path %q", p)
	}
	b, err := fs.ReadFile(assets, "assets/"+p)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", p, err)
	}
	return b, nil
}

// ThemeInfo describes a theme in the picker.
type ThemeInfo struct {
	ID     domain.Theme `json:"id"`
	Name   string       `json:"name"`
	Swatch string       `json:"swatch"`
}

var swatches = map[domain.Theme]string{
	domain.ThemeDefault:   "#ffffff",
	domain.ThemeBeach:     "#fffbeb",
	domain.ThemeMountains: "#eff6ff",
	domain.ThemeSunset:    "#fff7ed",
	domain.ThemeForest:    "#f0fdf4",
}

// Themes lists every theme with its display name and background swatch.
func Themes() []ThemeInfo {
	title := cases.Title(language.English)
	ts := domain.Themes()
	out := make([]ThemeInfo, 0, len(ts))
	for _, t := range ts {
		out = append(out, ThemeInfo{ID: t, Name: title.String(string(t)), Swatch: swatches[t]})
	}
	return out
}

// CategoryTitle returns the display name of a sticker category.
func CategoryTitle(name string) string { return cases.Title(language.English).String(name) }
