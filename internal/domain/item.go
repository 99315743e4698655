/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Defaults applied by the constructors.
var (
	DefaultPosition = Position{X: 100, Y: 100}
	ImageSize       = Size{Width: 200, Height: 200}
	StickerSize     = Size{Width: 100, Height: 100}
	TextSize        = Size{Width: 200, Height: 100}
)

// DefaultText is the placeholder content of a new text item.
const DefaultText = "Double click to edit text"

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
	idClock   = time.Now
)

// NewID returns "<kind>-<ulid>". ULIDs are monotonic within the process, so
// ids sort by creation time and never collide inside a session.
func NewID(k Kind) string {
	idMu.Lock()
	defer idMu.Unlock()
	return string(k) + "-" + ulid.MustNew(ulid.Timestamp(idClock()), idEntropy).String()
}

// NewImage builds an image item showing content (a data URI or asset path).
func NewImage(content string, z int) Item {
	return Item{ID: NewID(KindImage), Kind: KindImage, Content: content, Position: DefaultPosition, Size: ImageSize, ZIndex: z}
}

// NewSticker builds a sticker item from a catalog src.
func NewSticker(content string, z int) Item {
	return Item{ID: NewID(KindSticker), Kind: KindSticker, Content: content, Position: DefaultPosition, Size: StickerSize, ZIndex: z}
}

// NewText builds a text item with placeholder content and the default style.
func NewText(z int) Item {
	st := DefaultTextStyle()
	return Item{ID: NewID(KindText), Kind: KindText, Content: DefaultText, Position: DefaultPosition, Size: TextSize, ZIndex: z, Style: &st}
}
