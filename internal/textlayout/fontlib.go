/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Logical families backed by the bundled Go fonts.
const (
	FamilySans = "Go"
	FamilyMono = "Go Mono"
)

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// It does not support named instances or variations beyond weight and
// italic flags.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadBytes parses an in-memory TTF/OTF.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	// Exact match first
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}]; ok {
		return f
	}
	// Same family with the requested slant, then regular.
	for _, k := range []fontKey{
		{family: spec.Family, weight: 400, italic: spec.Italic},
		{family: spec.Family, weight: 400},
	} {
		if f, ok := fl.fonts[k]; ok {
			return f
		}
	}
	return nil
}

var (
	goOnce sync.Once
	goLib  *FontLibrary
	goErr  error
)

// GoFonts returns a library holding the Go font family in all four styles
// for both the proportional and the monospace face.
func GoFonts() (*FontLibrary, error) {
	goOnce.Do(func() {
		lib := NewFontLibrary()
		for _, f := range []struct {
			family string
			weight int
			italic bool
			data   []byte
		}{
			{FamilySans, 400, false, goregular.TTF},
			{FamilySans, 700, false, gobold.TTF},
			{FamilySans, 400, true, goitalic.TTF},
			{FamilySans, 700, true, gobolditalic.TTF},
			{FamilyMono, 400, false, gomono.TTF},
			{FamilyMono, 700, false, gomonobold.TTF},
			{FamilyMono, 400, true, gomonoitalic.TTF},
			{FamilyMono, 700, true, gomonobolditalic.TTF},
		} {
			if err := lib.LoadBytes(f.family, f.weight, f.italic, f.data); err != nil {
				goErr = err
				return
			}
		}
		goLib = lib
	})
	return goLib, goErr
}

// FamilyFor maps a CSS font-family list to one of the bundled families.
func FamilyFor(css string) string {
	l := strings.ToLower(css)
	if strings.Contains(l, "mono") || strings.Contains(l, "courier") {
		return FamilyMono
	}
	return FamilySans
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer. Faces are
// cached per spec.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider

	mu    sync.Mutex
	faces map[FontSpec]font.Face
}

// NewGoProvider returns a provider over the bundled Go fonts.
func NewGoProvider() (*OTProvider, error) {
	lib, err := GoFonts()
	if err != nil {
		return nil, err
	}
	return &OTProvider{Lib: lib}, nil
}

func (p *OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	// Defaults
	if spec.SizePx <= 0 {
		spec.SizePx = 16
	}
	if spec.Weight == 0 {
		spec.Weight = 400
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.faces[spec]; ok {
		return f, metricsOf(f)
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePx), DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			if p.faces == nil {
				p.faces = make(map[FontSpec]font.Face)
			}
			p.faces[spec] = face
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
