/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"travelstory/internal/canvas"
	"travelstory/internal/domain"
	"travelstory/internal/export"
	"travelstory/internal/intake"
	applog "travelstory/internal/log"
	"travelstory/internal/notify"
	"travelstory/internal/render"
	"travelstory/internal/storage"
	"travelstory/internal/telemetry"
	"travelstory/internal/transform"
)

var testDay = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ed     *Editor
	slot   *storage.MemorySlot
	sink   *export.MemorySink
	toasts *notify.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	slot := storage.NewMemorySlot()
	sink := &export.MemorySink{}
	rec := &notify.Recorder{}
	preview := export.DefaultPreviewConfig()
	preview.Frames, preview.Width, preview.Height = 4, 80, 45
	now := func() time.Time { return testDay }
	ed := New(Options{
		Store:    canvas.New(canvas.Config{Bounds: transform.R(0, 0, 1000, 600)}),
		Journal:  storage.NewJournal(slot, storage.WithClock(now)),
		Renderer: render.New(render.Options{Width: 100, Height: 60}),
		Sink:     sink,
		Notifier: rec,
		Preview:  preview,
		Now:      now,
	})
	t.Cleanup(ed.Close)
	return fixture{ed: ed, slot: slot, sink: sink, toasts: rec}
}

func (f fixture) lastToast(t *testing.T) notify.Toast {
	t.Helper()
	last, ok := f.toasts.Last()
	if !ok {
		t.Fatalf("no toast shown")
	}
	return last
}

func pngUpload(t *testing.T) intake.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return intake.Upload{Name: "beach.png", MIME: "image/png", Size: int64(buf.Len()), Body: &buf}
}

func TestMountWithoutSavedJournal(t *testing.T) {
	f := newFixture(t)
	if f.ed.Mount(context.Background()) {
		t.Fatalf("Mount reported a loaded journal on an empty slot")
	}
	st := f.ed.State()
	if len(st.Items) != 0 || st.Theme != domain.ThemeDefault {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSaveThenMountRestores(t *testing.T) {
	f := newFixture(t)
	f.ed.AddText()
	if err := f.ed.SetTheme(domain.ThemeSunset); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if err := f.ed.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := New(Options{Journal: storage.NewJournal(f.slot), Sink: &export.MemorySink{}, Notifier: &notify.Recorder{}})
	defer other.Close()
	if !other.Mount(context.Background()) {
		t.Fatalf("Mount did not load saved journal")
	}
	st := other.State()
	if len(st.Items) != 1 || st.Theme != domain.ThemeSunset {
		t.Fatalf("restored state = %+v", st)
	}
}

func TestUploadImageAddsOneItem(t *testing.T) {
	f := newFixture(t)
	it, err := f.ed.UploadImage(pngUpload(t))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(it.Content, "data:image/png;base64,") {
		t.Fatalf("content = %.40s", it.Content)
	}
	if f.ed.Store().Len() != 1 {
		t.Fatalf("len = %d", f.ed.Store().Len())
	}
	if got := f.lastToast(t); got.Title != "Image added" || got.Destructive {
		t.Fatalf("toast = %+v", got)
	}
}

func TestUploadImageRejections(t *testing.T) {
	cases := []struct {
		name  string
		up    intake.Upload
		title string
	}{
		{"wrong type", intake.Upload{Name: "notes.txt", MIME: "text/plain", Size: 10, Body: strings.NewReader("hello")}, "Invalid file type"},
		{"too large", intake.Upload{Name: "big.png", MIME: "image/png", Size: 6 * 1024 * 1024, Body: strings.NewReader("")}, "File too large"},
		{"not decodable", intake.Upload{Name: "fake.png", MIME: "image/png", Size: 5, Body: strings.NewReader("hello")}, "Invalid file type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ed.UploadImage(tc.up)
			var ve *intake.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if f.ed.Store().Len() != 0 {
				t.Fatalf("canvas changed on rejected upload")
			}
			if got := f.lastToast(t); got.Title != tc.title || !got.Destructive {
				t.Fatalf("toast = %+v", got)
			}
		})
	}
}

func TestUploadImageAsync(t *testing.T) {
	f := newFixture(t)
	res := <-f.ed.UploadImageAsync(context.Background(), pngUpload(t))
	if res.Err != nil {
		t.Fatalf("async upload: %v", res.Err)
	}
	if _, ok := f.ed.Store().Item(res.Item.ID); !ok {
		t.Fatalf("item %s not on canvas", res.Item.ID)
	}
}

func TestAddStickerAndUnknown(t *testing.T) {
	f := newFixture(t)
	it, err := f.ed.AddSticker("travel-1")
	if err != nil {
		t.Fatalf("AddSticker: %v", err)
	}
	if it.Content != "asset:stickers/airplane.svg" || it.Size != domain.StickerSize {
		t.Fatalf("sticker = %+v", it)
	}
	if f.lastToast(t).Title != "Sticker added" {
		t.Fatalf("missing sticker toast")
	}
	if _, err := f.ed.AddSticker("nope"); err == nil {
		t.Fatalf("unknown sticker accepted")
	}
}

func TestDeleteAndClearToasts(t *testing.T) {
	f := newFixture(t)
	a := f.ed.AddText()
	f.ed.AddText()
	if !f.ed.Delete(a.ID) {
		t.Fatalf("Delete returned false")
	}
	if f.lastToast(t).Title != "Item deleted" {
		t.Fatalf("missing delete toast")
	}
	n := len(f.toasts.Toasts())
	if f.ed.Delete(a.ID) {
		t.Fatalf("second Delete returned true")
	}
	if len(f.toasts.Toasts()) != n {
		t.Fatalf("toast shown for vanished item")
	}
	f.ed.Clear()
	if f.ed.Store().Len() != 0 || f.lastToast(t).Title != "Canvas cleared" {
		t.Fatalf("clear failed")
	}
}

func TestUpdateStyleInvalidToasts(t *testing.T) {
	f := newFixture(t)
	it := f.ed.AddText()
	if _, err := f.ed.UpdateStyle(it.ID, domain.StylePatch{FontSize: domain.Ptr("200px")}); err == nil {
		t.Fatalf("invalid style accepted")
	}
	if !f.lastToast(t).Destructive {
		t.Fatalf("invalid style did not raise a destructive toast")
	}
	ok, err := f.ed.UpdateStyle(it.ID, domain.StylePatch{FontWeight: domain.Ptr("bold")})
	if !ok || err != nil {
		t.Fatalf("UpdateStyle: %v %v", ok, err)
	}
}

func TestExportPDFSavesAndDelivers(t *testing.T) {
	f := newFixture(t)
	f.ed.AddText()
	loc, err := f.ed.ExportPDF(context.Background())
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if loc != "TravelStory_2025-03-01.pdf" {
		t.Fatalf("location = %q", loc)
	}
	if _, err := f.slot.Read(context.Background(), storage.JournalKey); err != nil {
		t.Fatalf("journal not flushed before export: %v", err)
	}
	if f.lastToast(t).Title != "PDF exported successfully!" {
		t.Fatalf("missing export toast")
	}
}

type brokenSink struct{}

func (brokenSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	return "", errors.New("no space left")
}

func TestExportPDFFailureToast(t *testing.T) {
	rec := &notify.Recorder{}
	ed := New(Options{Renderer: render.New(render.Options{Width: 50, Height: 50}), Sink: brokenSink{}, Notifier: rec})
	defer ed.Close()
	_, err := ed.ExportPDF(context.Background())
	var ee *export.Error
	if !errors.As(err, &ee) || ee.Stage != export.StageDeliver {
		t.Fatalf("want deliver stage error, got %v", err)
	}
	if last, _ := rec.Last(); last.Title != "Error exporting PDF" || !last.Destructive {
		t.Fatalf("toast = %+v", last)
	}
}

func TestPreviewGenerateAndDownload(t *testing.T) {
	f := newFixture(t)
	f.ed.AddText()
	if _, err := f.ed.GenerateVideo(context.Background()); !errors.Is(err, ErrNoPreviewOpen) {
		t.Fatalf("want ErrNoPreviewOpen, got %v", err)
	}
	v := f.ed.OpenPreview()
	if !v.Visible() {
		t.Fatalf("preview not visible")
	}
	data, err := f.ed.GenerateVideo(context.Background())
	if err != nil || len(data) == 0 {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if f.lastToast(t).Title != "Video generated!" {
		t.Fatalf("missing generated toast")
	}
	loc, err := f.ed.DownloadVideo(context.Background())
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if _, ok := f.sink.Get(loc); !ok || f.lastToast(t).Title != "Video downloaded" {
		t.Fatalf("video not delivered")
	}
	f.ed.ClosePreview()
	if v.Visible() {
		t.Fatalf("preview still visible after close")
	}
}

func TestSaveLogsCarrySessionAndSelection(t *testing.T) {
	var logs bytes.Buffer
	applog.InitWriter(applog.Options{Level: "debug", Format: "json"}, &logs)
	t.Cleanup(func() { applog.Init(applog.FromEnv()) })

	tel := telemetry.New(telemetry.Config{})
	t.Cleanup(tel.Close)
	ed := New(Options{
		Store:     canvas.New(canvas.Config{}),
		Journal:   storage.NewJournal(storage.NewMemorySlot()),
		Renderer:  render.New(render.Options{Width: 100, Height: 60}),
		Sink:      &export.MemorySink{},
		Notifier:  &notify.Recorder{},
		Telemetry: tel,
	})
	t.Cleanup(ed.Close)
	it := ed.AddText()
	if !ed.Select(it.ID) {
		t.Fatalf("select %s failed", it.ID)
	}
	if err := ed.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var saved map[string]any
	sc := bufio.NewScanner(&logs)
	for sc.Scan() {
		var m map[string]any
		if json.Unmarshal(sc.Bytes(), &m) == nil && m["msg"] == "journal saved" {
			saved = m
		}
	}
	if saved == nil {
		t.Fatalf("no journal saved record in %q", logs.String())
	}
	if saved["session"] != tel.Session() || saved["item"] != it.ID {
		t.Fatalf("record = %v, want session %s item %s", saved, tel.Session(), it.ID)
	}
}
