/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the journal editing session. It ties the canvas store
// to persistence, image intake, rendering, export and user notifications,
// and reports the outcome of every user action as a toast.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"travelstory/internal/canvas"
	"travelstory/internal/catalog"
	"travelstory/internal/domain"
	"travelstory/internal/export"
	"travelstory/internal/intake"
	applog "travelstory/internal/log"
	"travelstory/internal/notify"
	"travelstory/internal/render"
	"travelstory/internal/storage"
	"travelstory/internal/telemetry"
)

// Toasts shown after successful actions.
var (
	ToastImageAdded   = notify.Toast{Title: "Image added", Description: "Your image has been added to the canvas."}
	ToastTextAdded    = notify.Toast{Title: "Text added", Description: "Double-click to edit your text."}
	ToastStickerAdded = notify.Toast{Title: "Sticker added", Description: "Your sticker has been added to the canvas."}
	ToastItemDeleted  = notify.Toast{Title: "Item deleted", Description: "The item has been removed from your canvas."}
	ToastCleared      = notify.Toast{Title: "Canvas cleared", Description: "All items have been removed from the canvas."}
	ToastPDFExported  = notify.Toast{Title: "PDF exported successfully!", Description: "Your travel story has been exported as a PDF."}
	ToastPDFFailed    = notify.Toast{Title: "Error exporting PDF", Description: "There was an error exporting your travel story.", Destructive: true}
	ToastPNGExported  = notify.Toast{Title: "PNG exported successfully!", Description: "Your travel story has been exported as an image."}
	ToastPNGFailed    = notify.Toast{Title: "Error exporting PNG", Description: "There was an error exporting your travel story.", Destructive: true}
	ToastVideoReady   = notify.Toast{Title: "Video generated!", Description: "Your travel story video has been created."}
	ToastVideoSaved   = notify.Toast{Title: "Video downloaded", Description: "Your travel story video has been downloaded."}
)

// Options wires an Editor. Store, Journal, Renderer and Sink are required.
type Options struct {
	Store     *canvas.Store
	Journal   *storage.Journal
	Renderer  *render.Rasterizer
	Sink      export.Sink
	Notifier  notify.Notifier
	Telemetry *telemetry.Client
	Preview   export.PreviewConfig
	MaxUpload int64
	Now       func() time.Time
}

// Editor is one editing session over a single journal page.
type Editor struct {
	store    *canvas.Store
	journal  *storage.Journal
	renderer *render.Rasterizer
	exporter *export.Exporter
	sink     export.Sink
	notifier notify.Notifier
	tel      *telemetry.Client
	preview  export.PreviewConfig
	maxBytes int64
	now      func() time.Time
	log      *slog.Logger

	uploads sync.WaitGroup

	mu   sync.Mutex
	view *export.PreviewView
}

// New builds an editor from opts.
func New(opts Options) *Editor {
	if opts.Store == nil {
		opts.Store = canvas.New(canvas.Config{})
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Options{Assets: catalog.Asset})
	}
	if opts.Sink == nil {
		opts.Sink = export.FileSink{Dir: "."}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Journal == nil {
		opts.Journal = storage.NewJournal(storage.NewMemorySlot(), storage.WithClock(opts.Now))
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = intake.DefaultMaxBytes
	}
	return &Editor{
		store:    opts.Store,
		journal:  opts.Journal,
		renderer: opts.Renderer,
		exporter: &export.Exporter{Saver: opts.Journal, Renderer: opts.Renderer, Sink: opts.Sink, Now: opts.Now},
		sink:     opts.Sink,
		notifier: opts.Notifier,
		tel:      opts.Telemetry,
		preview:  opts.Preview,
		maxBytes: opts.MaxUpload,
		now:      opts.Now,
		log:      applog.WithComponent("editor"),
	}
}

// logContext tags ctx so storage and export records carry the session and
// the selected item.
func (e *Editor) logContext(ctx context.Context) context.Context {
	var attrs []slog.Attr
	if s := e.tel.Session(); s != "" {
		attrs = append(attrs, slog.String("session", s))
	}
	if id := e.store.Selected(); id != "" {
		attrs = append(attrs, slog.String("item", id))
	}
	return applog.ContextWith(ctx, attrs...)
}

func (e *Editor) toast(t notify.Toast) {
	e.mu.Lock()
	n := e.notifier
	e.mu.Unlock()
	n.Notify(t)
}

// SetNotifier replaces the toast target and returns the previous one.
func (e *Editor) SetNotifier(n notify.Notifier) notify.Notifier {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.notifier
	if n != nil {
		e.notifier = n
	}
	return prev
}

// Render rasterizes the current canvas.
func (e *Editor) Render(ctx context.Context) (*image.RGBA, error) {
	return e.renderer.Render(ctx, e.store.Snapshot())
}

// Store exposes the canvas store for read access and gesture dispatch.
func (e *Editor) Store() *canvas.Store { return e.store }

// State returns a snapshot of the canvas.
func (e *Editor) State() domain.CanvasState { return e.store.Snapshot() }

// Mount loads the saved journal. It reports false and keeps the empty
// default canvas when nothing usable was saved.
func (e *Editor) Mount(ctx context.Context) bool {
	ctx = e.logContext(ctx)
	st, ok := e.journal.Load(ctx)
	if !ok {
		_ = e.store.Replace(domain.EmptyState())
		return false
	}
	if err := e.store.Replace(st); err != nil {
		e.log.WarnContext(ctx, "saved journal rejected by store", slog.Any("err", err))
		_ = e.store.Replace(domain.EmptyState())
		return false
	}
	e.log.InfoContext(ctx, "journal loaded", slog.Int("items", len(st.Items)), slog.String("theme", string(st.Theme)))
	return true
}

// UploadImage validates and reads u and places it as a new image item.
// Rejected uploads raise a destructive toast and leave the canvas unchanged.
func (e *Editor) UploadImage(u intake.Upload) (domain.Item, error) {
	l := applog.WithOperation(e.log, "upload_image").With(slog.String("name", u.Name), slog.String("mime", u.MIME))
	uri, err := intake.ReadDataURI(u, e.maxBytes)
	if err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			e.toast(notify.Toast{Title: ve.Title, Description: ve.Description, Destructive: true})
		} else {
			e.toast(notify.Toast{Title: intake.TitleInvalidType, Description: err.Error(), Destructive: true})
		}
		l.Warn("upload rejected", slog.Any("err", err))
		return domain.Item{}, err
	}
	it := e.store.AddImage(uri)
	e.toast(ToastImageAdded)
	e.tel.Event("item_added", map[string]any{"type": string(domain.KindImage)})
	l.Info("image added", slog.String("item", it.ID))
	return it, nil
}

// UploadResult is the outcome of an asynchronous upload.
type UploadResult struct {
	Item domain.Item
	Err  error
}

// UploadImageAsync decodes u in the background. The canvas receives exactly
// one new item on success. Close waits for pending uploads.
func (e *Editor) UploadImageAsync(ctx context.Context, u intake.Upload) <-chan UploadResult {
	out := make(chan UploadResult, 1)
	e.uploads.Add(1)
	go func() {
		defer e.uploads.Done()
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- UploadResult{Err: err}
			return
		}
		it, err := e.UploadImage(u)
		out <- UploadResult{Item: it, Err: err}
	}()
	return out
}

// AddText places a text item with the placeholder text.
func (e *Editor) AddText() domain.Item {
	it := e.store.AddText()
	e.toast(ToastTextAdded)
	e.tel.Event("item_added", map[string]any{"type": string(domain.KindText)})
	return it
}

// AddSticker places the catalog sticker id.
func (e *Editor) AddSticker(id string) (domain.Item, error) {
	s, err := catalog.Lookup(id)
	if err != nil {
		return domain.Item{}, err
	}
	it := e.store.AddSticker(s.Src)
	e.toast(ToastStickerAdded)
	e.tel.Event("item_added", map[string]any{"type": string(domain.KindSticker), "sticker": s.ID})
	return it, nil
}

// Dispatch routes a gesture event to the store.
func (e *Editor) Dispatch(ev canvas.Event) (bool, error) { return e.store.Dispatch(ev) }

// UpdateContent replaces an item's content.
func (e *Editor) UpdateContent(id, content string) bool { return e.store.UpdateContent(id, content) }

// UpdateStyle merges patch into a text item's style. Invalid patches raise a
// destructive toast.
func (e *Editor) UpdateStyle(id string, patch domain.StylePatch) (bool, error) {
	ok, err := e.store.UpdateStyle(id, patch)
	if err != nil {
		e.toast(notify.Toast{Title: "Invalid style", Description: err.Error(), Destructive: true})
	}
	return ok, err
}

// Delete removes an item.
func (e *Editor) Delete(id string) bool {
	if !e.store.DeleteItem(id) {
		return false
	}
	e.toast(ToastItemDeleted)
	return true
}

// Clear removes every item and keeps the theme.
func (e *Editor) Clear() {
	e.store.Clear()
	e.toast(ToastCleared)
}

// Select makes id the selected item.
func (e *Editor) Select(id string) bool { return e.store.Select(id) }

// SetTheme switches the canvas theme.
func (e *Editor) SetTheme(t domain.Theme) error { return e.store.SetTheme(t) }

// Save writes the canvas to the journal slot.
func (e *Editor) Save(ctx context.Context) error {
	return e.journal.Save(e.logContext(ctx), e.store.Snapshot())
}

// ExportPDF saves the journal and delivers the canvas as a PDF.
func (e *Editor) ExportPDF(ctx context.Context) (string, error) {
	loc, err := e.exporter.PDF(e.logContext(ctx), e.store.Snapshot())
	if err != nil {
		e.toast(ToastPDFFailed)
		return "", err
	}
	e.toast(ToastPDFExported)
	e.tel.Event("pdf_exported", map[string]any{"items": e.store.Len()})
	return loc, nil
}

// ExportPNG saves the journal and delivers the canvas as a PNG.
func (e *Editor) ExportPNG(ctx context.Context) (string, error) {
	loc, err := e.exporter.PNG(e.logContext(ctx), e.store.Snapshot())
	if err != nil {
		e.toast(ToastPNGFailed)
		return "", err
	}
	e.toast(ToastPNGExported)
	e.tel.Event("png_exported", map[string]any{"items": e.store.Len()})
	return loc, nil
}

// OpenPreview opens the preview over the current canvas, replacing any
// open preview.
func (e *Editor) OpenPreview() *export.PreviewView {
	comp := &export.Compositor{Drawer: e.renderer, Config: e.preview}
	v := export.NewPreviewView(comp, e.store.Snapshot(), e.now)
	e.mu.Lock()
	prev := e.view
	e.view = v
	e.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return v
}

// ErrNoPreviewOpen is returned by preview actions while no preview is open.
var ErrNoPreviewOpen = errors.New("no preview open")

func (e *Editor) openView() (*export.PreviewView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil || !e.view.Visible() {
		return nil, ErrNoPreviewOpen
	}
	return e.view, nil
}

// GenerateVideo renders the open preview and waits for the result.
func (e *Editor) GenerateVideo(ctx context.Context) ([]byte, error) {
	v, err := e.openView()
	if err != nil {
		return nil, err
	}
	select {
	case res := <-v.Generate(e.logContext(ctx)):
		if res.Err != nil {
			return nil, res.Err
		}
		e.toast(ToastVideoReady)
		e.tel.Event("video_generated", nil)
		return res.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DownloadVideo delivers the generated video through the sink.
func (e *Editor) DownloadVideo(ctx context.Context) (string, error) {
	v, err := e.openView()
	if err != nil {
		return "", err
	}
	loc, err := v.Download(ctx, e.sink)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	e.toast(ToastVideoSaved)
	return loc, nil
}

// ClosePreview hides the preview; a running generation is discarded.
func (e *Editor) ClosePreview() {
	e.mu.Lock()
	v := e.view
	e.view = nil
	e.mu.Unlock()
	if v != nil {
		v.Close()
	}
}

// Close ends the session: pending uploads finish, the preview closes and
// any rotation gesture is torn down.
func (e *Editor) Close() {
	e.uploads.Wait()
	e.ClosePreview()
	e.store.Close()
}
