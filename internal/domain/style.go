/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Font size bounds offered by the style editor, in CSS pixels.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

// ErrInvalidStyle is wrapped by every style validation failure.
var ErrInvalidStyle = errors.New("invalid text style")

// FontFamilies lists the families the style editor offers.
var FontFamilies = []string{
	"Arial, sans-serif",
	"Times New Roman, serif",
	"Courier New, monospace",
	"Georgia, serif",
	"Verdana, sans-serif",
	"Comic Sans MS, cursive",
}

// TextStyle is the closed style schema of a text item. Values use CSS
// notation so the persisted blob stays readable by other tools.
type TextStyle struct {
	FontSize       string `json:"fontSize"`
	Color          string `json:"color"`
	FontFamily     string `json:"fontFamily"`
	FontWeight     string `json:"fontWeight"`
	FontStyle      string `json:"fontStyle"`
	TextDecoration string `json:"textDecoration"`
	TextAlign      string `json:"textAlign"`
}

// DefaultTextStyle is the style a new text item starts with.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:       "16px",
		Color:          "#000000",
		FontFamily:     "Arial, sans-serif",
		FontWeight:     "normal",
		FontStyle:      "normal",
		TextDecoration: "none",
		TextAlign:      "left",
	}
}

// StylePatch is a partial style update. Nil fields are left untouched.
type StylePatch struct {
	FontSize       *string `json:"fontSize,omitempty"`
	Color          *string `json:"color,omitempty"`
	FontFamily     *string `json:"fontFamily,omitempty"`
	FontWeight     *string `json:"fontWeight,omitempty"`
	FontStyle      *string `json:"fontStyle,omitempty"`
	TextDecoration *string `json:"textDecoration,omitempty"`
	TextAlign      *string `json:"textAlign,omitempty"`
}

// Ptr is a small helper for building patches in code.
func Ptr(s string) *string { return &s }

// Empty reports whether the patch sets no field.
func (p StylePatch) Empty() bool {
	return p.FontSize == nil && p.Color == nil && p.FontFamily == nil && p.FontWeight == nil &&
		p.FontStyle == nil && p.TextDecoration == nil && p.TextAlign == nil
}

// ParseStylePatch decodes a JSON patch, rejecting unknown fields and
// invalid values.
func ParseStylePatch(data []byte) (StylePatch, error) {
	var p StylePatch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return StylePatch{}, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	if err := p.Validate(); err != nil {
		return StylePatch{}, err
	}
	return p, nil
}

// Validate checks every field the patch sets.
func (p StylePatch) Validate() error {
	return p.apply(DefaultTextStyle()).Validate()
}

// Merge returns s with every field set in p replaced.
func (s TextStyle) Merge(p StylePatch) TextStyle { return p.apply(s) }

func (p StylePatch) apply(s TextStyle) TextStyle {
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		s.FontStyle = *p.FontStyle
	}
	if p.TextDecoration != nil {
		s.TextDecoration = *p.TextDecoration
	}
	if p.TextAlign != nil {
		s.TextAlign = *p.TextAlign
	}
	return s
}

// WithDefaults fills empty fields from DefaultTextStyle.
func (s TextStyle) WithDefaults() TextStyle {
	d := DefaultTextStyle()
	if s.FontSize == "" {
		s.FontSize = d.FontSize
	}
	if s.Color == "" {
		s.Color = d.Color
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FontWeight == "" {
		s.FontWeight = d.FontWeight
	}
	if s.FontStyle == "" {
		s.FontStyle = d.FontStyle
	}
	if s.TextDecoration == "" {
		s.TextDecoration = d.TextDecoration
	}
	if s.TextAlign == "" {
		s.TextAlign = d.TextAlign
	}
	return s
}

// Validate checks every field against its allowed values.
func (s TextStyle) Validate() error {
	if _, err := s.FontSizePx(); err != nil {
		return err
	}
	if _, err := ParseColor(s.Color); err != nil {
		return err
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		return fmt.Errorf("%w: empty fontFamily", ErrInvalidStyle)
	}
	if err := oneOf("fontWeight", s.FontWeight, "normal", "bold"); err != nil {
		return err
	}
	if err := oneOf("fontStyle", s.FontStyle, "normal", "italic"); err != nil {
		return err
	}
	if err := oneOf("textDecoration", s.TextDecoration, "none", "underline"); err != nil {
		return err
	}
	return oneOf("textAlign", s.TextAlign, "left", "center", "right")
}

// FontSizePx parses a "<n>px" font size.
func (s TextStyle) FontSizePx() (int, error) {
	v := strings.TrimSpace(s.FontSize)
	if !strings.HasSuffix(v, "px") {
		return 0, fmt.Errorf("%w: fontSize %q must end in px", ErrInvalidStyle, s.FontSize)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(v, "px"))
	if err != nil {
		return 0, fmt.Errorf("%w: fontSize %q", ErrInvalidStyle, s.FontSize)
	}
	if n < MinFontSize || n > MaxFontSize {
		return 0, fmt.Errorf("%w: fontSize %dpx outside %d..%d", ErrInvalidStyle, n, MinFontSize, MaxFontSize)
	}
	return n, nil
}

// Bold reports whether the weight is bold.
func (s TextStyle) Bold() bool { return s.FontWeight == "bold" }

// Italic reports whether the style is italic.
func (s TextStyle) Italic() bool { return s.FontStyle == "italic" }

// Underline reports whether the text is underlined.
func (s TextStyle) Underline() bool { return s.TextDecoration == "underline" }

// RGBA is an 8-bit colour.
type RGBA struct{ R, G, B, A uint8 }

// ParseColor accepts #rgb, #rrggbb and CSS colour names.
func ParseColor(v string) (RGBA, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidStyle, v)
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidStyle, v)
		}
		return RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
	}
	if c, ok := colornames.Map[v]; ok {
		return RGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidStyle, v)
}

func oneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q not in %v", ErrInvalidStyle, field, v, allowed)
}
