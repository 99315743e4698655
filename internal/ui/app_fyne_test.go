//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"travelstory/internal/editor"
	"travelstory/internal/export"
	"travelstory/internal/notify"
)

func newTestCanvas(t *testing.T) (*JournalCanvas, *editor.Editor) {
	t.Helper()
	test.NewTempApp(t)
	ed := editor.New(editor.Options{Sink: &export.MemorySink{}, Notifier: &notify.Recorder{}})
	t.Cleanup(ed.Close)
	jc := NewJournalCanvas(ed)
	jc.Resize(fyne.NewSize(1000, 600))
	test.WidgetRenderer(jc).Refresh()
	return jc, ed
}

func TestJournalCanvas_TapSelectsTopmost(t *testing.T) {
	jc, ed := newTestCanvas(t)
	ed.AddText()
	top := ed.AddText()

	// both text items sit at 100,100 with size 200x100
	jc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(150, 150)})
	if got := ed.Store().Selected(); got != top.ID {
		t.Fatalf("selected %q, want %q", got, top.ID)
	}
	jc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(900, 550)})
	if got := ed.Store().Selected(); got != "" {
		t.Fatalf("background tap kept selection %q", got)
	}
}

func TestJournalCanvas_DragMovesItem(t *testing.T) {
	jc, ed := newTestCanvas(t)
	it := ed.AddText()

	jc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(160, 160)}, Dragged: fyne.NewDelta(10, 10)})
	jc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(200, 180)}, Dragged: fyne.NewDelta(40, 20)})
	jc.DragEnd()

	got, _ := ed.Store().Item(it.ID)
	if got.Position.X != 150 || got.Position.Y != 130 {
		t.Fatalf("position = %+v", got.Position)
	}
	if _, rotating := ed.Store().Rotating(); rotating {
		t.Fatalf("gesture end left a rotation session")
	}
}
