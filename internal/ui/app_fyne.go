//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	tscanvas "travelstory/internal/canvas"
	"travelstory/internal/catalog"
	"travelstory/internal/domain"
	"travelstory/internal/editor"
	"travelstory/internal/intake"
	applog "travelstory/internal/log"
	"travelstory/internal/notify"
	"travelstory/internal/transform"
)

// Run starts the Fyne-based journal editor over ed and blocks until the
// window is closed.
func Run(ed *editor.Editor) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("travelstory")
	w := fyneApp.NewWindow("Travel Story Journal")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	prev := ed.SetNotifier(nil)
	ed.SetNotifier(notify.Multi{prev, &statusNotifier{app: fyneApp, label: status}})

	jc := NewJournalCanvas(ed)
	jc.OnEditText = func(id string) { showTextDialog(w, ed, jc, id) }

	ctx := context.Background()

	addImage := widget.NewButton("Image", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			up, f, err := intake.FromPath(path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			go func() {
				defer f.Close()
				res := <-ed.UploadImageAsync(ctx, up)
				if res.Err == nil {
					fyne.Do(jc.Refresh)
				}
			}()
		}, w)
	})
	addText := widget.NewButton("Text", func() {
		ed.AddText()
		jc.Refresh()
	})
	addSticker := widget.NewButton("Sticker", func() { showStickerDialog(w, ed, jc) })

	themeNames := make([]string, 0, len(domain.Themes()))
	themeByName := map[string]domain.Theme{}
	for _, ti := range catalog.Themes() {
		themeNames = append(themeNames, ti.Name)
		themeByName[ti.Name] = ti.ID
	}
	themeSelect := widget.NewSelect(themeNames, func(name string) {
		if t, ok := themeByName[name]; ok {
			if err := ed.SetTheme(t); err != nil {
				l.Warn("set theme failed", slog.Any("err", err))
				return
			}
			jc.Refresh()
		}
	})
	for name, t := range themeByName {
		if t == ed.State().Theme {
			themeSelect.SetSelected(name)
		}
	}

	styleBtn := widget.NewButton("Style", func() {
		id := ed.Store().Selected()
		if it, ok := ed.Store().Item(id); ok && it.Kind == domain.KindText {
			showStyleDialog(w, ed, jc, it)
		}
	})
	deleteBtn := widget.NewButton("Delete", func() {
		if id := ed.Store().Selected(); id != "" {
			ed.Delete(id)
			jc.Refresh()
		}
	})
	clearBtn := widget.NewButton("Clear", func() {
		dialog.ShowConfirm("Clear canvas", "Remove all items from the canvas?", func(ok bool) {
			if ok {
				ed.Clear()
				jc.Refresh()
			}
		}, w)
	})
	saveBtn := widget.NewButton("Save", func() {
		if err := ed.Save(ctx); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Journal saved")
	})
	pdfBtn := widget.NewButton("Export PDF", func() {
		go func() { _, _ = ed.ExportPDF(ctx) }()
	})
	previewBtn := widget.NewButton("Preview", func() { showPreviewDialog(w, ed) })

	toolbar := container.NewHBox(addImage, addText, addSticker, widget.NewSeparator(),
		themeSelect, styleBtn, deleteBtn, clearBtn, widget.NewSeparator(), saveBtn, pdfBtn, previewBtn)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, jc))

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if err := ed.Save(ctx); err != nil {
			l.Error("save on close failed", slog.Any("err", err))
		}
	})
	w.ShowAndRun()
	return nil
}

// statusNotifier shows toasts in the status bar; destructive ones also go
// to the system notification area.
type statusNotifier struct {
	app   fyne.App
	label *widget.Label
}

func (n *statusNotifier) Notify(t notify.Toast) {
	text := t.Title
	if t.Description != "" {
		text += ": " + t.Description
	}
	fyne.Do(func() { n.label.SetText(text) })
	if t.Destructive {
		n.app.SendNotification(fyne.NewNotification(t.Title, t.Description))
	}
}

// JournalCanvas shows the rendered page and turns pointer input into canvas
// events.
type JournalCanvas struct {
	widget.BaseWidget

	ed         *editor.Editor
	OnEditText func(id string)

	vp        Viewport
	drag      Handle
	dragID    string
	startPtr  transform.Pt
	startItem domain.Item
}

// NewJournalCanvas creates the canvas widget for ed.
func NewJournalCanvas(ed *editor.Editor) *JournalCanvas {
	jc := &JournalCanvas{ed: ed}
	jc.ExtendBaseWidget(jc)
	return jc
}

// CreateRenderer builds the page image and the selection overlay.
func (c *JournalCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 229, G: 231, B: 235, A: 255})
	page := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	page.FillMode = canvas.ImageFillStretch
	page.ScaleMode = canvas.ImageScaleSmooth

	sel := color.RGBA{R: 59, G: 130, B: 246, A: 255}
	var edges [4]*canvas.Line
	for i := range edges {
		edges[i] = canvas.NewLine(sel)
		edges[i].StrokeWidth = 1.5
		edges[i].Hide()
	}
	rot := canvas.NewCircle(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	rot.StrokeColor = sel
	rot.StrokeWidth = 2
	rot.Hide()
	res := canvas.NewRectangle(sel)
	res.Hide()

	objs := []fyne.CanvasObject{bg, page}
	for _, e := range edges {
		objs = append(objs, e)
	}
	objs = append(objs, rot, res)
	return &journalCanvasRenderer{jc: c, objects: objs, bg: bg, page: page, edges: edges, rot: rot, res: res}
}

func (c *JournalCanvas) pointer(pos fyne.Position) transform.Pt {
	return c.vp.ToCanvas(float64(pos.X), float64(pos.Y))
}

// Tapped selects the topmost item under the pointer, or clears the selection.
func (c *JournalCanvas) Tapped(e *fyne.PointEvent) {
	p := c.pointer(e.Position)
	id, _ := transform.TopmostAt(c.ed.State().Items, p)
	c.ed.Select(id)
	c.Refresh()
}

// DoubleTapped opens the text editor for text items.
func (c *JournalCanvas) DoubleTapped(e *fyne.PointEvent) {
	p := c.pointer(e.Position)
	id, ok := transform.TopmostAt(c.ed.State().Items, p)
	if !ok {
		return
	}
	if it, found := c.ed.Store().Item(id); found && it.Kind == domain.KindText && c.OnEditText != nil {
		c.ed.Select(id)
		c.OnEditText(id)
	}
}

// Dragged moves, resizes or rotates the item under the pointer.
func (c *JournalCanvas) Dragged(e *fyne.DragEvent) {
	cur := c.pointer(e.Position)
	if c.drag == HandleNone {
		start := c.pointer(e.Position.Subtract(e.Dragged))
		c.beginDrag(start)
		if c.drag == HandleNone {
			return
		}
	}
	var err error
	switch c.drag {
	case HandleBody:
		to := domain.Position{X: c.startItem.Position.X + cur.X - c.startPtr.X, Y: c.startItem.Position.Y + cur.Y - c.startPtr.Y}
		_, err = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventMove, ItemID: c.dragID, Payload: tscanvas.Move{To: to}})
	case HandleResize:
		size := domain.Size{Width: c.startItem.Size.Width + cur.X - c.startPtr.X, Height: c.startItem.Size.Height + cur.Y - c.startPtr.Y}
		_, err = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventResize, ItemID: c.dragID,
			Payload: tscanvas.Resize{Position: c.startItem.Position, Size: size}})
	case HandleRotate:
		_, err = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventRotate, ItemID: c.dragID, Payload: tscanvas.Rotate{Pointer: cur}})
	}
	if err != nil {
		applog.WithOperation(applog.WithComponent("ui"), "drag").Warn("drag event rejected", slog.Any("err", err))
	}
	c.Refresh()
}

func (c *JournalCanvas) beginDrag(start transform.Pt) {
	items := c.ed.State().Items
	if sel, ok := c.ed.Store().Item(c.ed.Store().Selected()); ok {
		if h := HandleAt(sel, start); h != HandleNone {
			c.drag, c.dragID, c.startItem = h, sel.ID, sel
		}
	}
	if c.drag == HandleNone {
		id, ok := transform.TopmostAt(items, start)
		if !ok {
			return
		}
		it, _ := c.ed.Store().Item(id)
		c.ed.Select(id)
		c.drag, c.dragID, c.startItem = HandleBody, id, it
	}
	c.startPtr = start
	if c.drag == HandleRotate {
		_, _ = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventRotateStart, ItemID: c.dragID, Payload: tscanvas.Rotate{Pointer: start}})
	}
}

// DragEnd finishes the gesture; a leaked rotation is always torn down.
func (c *JournalCanvas) DragEnd() {
	if c.drag == HandleRotate {
		_, _ = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventRotateEnd, ItemID: c.dragID})
	}
	_, _ = c.ed.Dispatch(tscanvas.Event{Kind: tscanvas.EventGestureEnd})
	c.drag, c.dragID = HandleNone, ""
	c.Refresh()
}

type journalCanvasRenderer struct {
	jc      *JournalCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	page    *canvas.Image
	edges   [4]*canvas.Line
	rot     *canvas.Circle
	res     *canvas.Rectangle
	cw, ch  float64
}

func (r *journalCanvasRenderer) Destroy()                     {}
func (r *journalCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *journalCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(500, 300) }

func (r *journalCanvasRenderer) Refresh() {
	img, err := r.jc.ed.Render(context.Background())
	if err == nil {
		r.page.Image = img
		b := img.Bounds()
		r.cw, r.ch = float64(b.Dx()), float64(b.Dy())
	}
	r.Layout(r.jc.Size())
	canvas.Refresh(r.jc)
}

func (r *journalCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	if r.cw == 0 {
		r.cw, r.ch = 1000, 600
	}
	vp := FitViewport(r.cw, r.ch, float64(size.Width), float64(size.Height))
	r.jc.vp = vp
	r.page.Move(fyne.NewPos(float32(vp.OffX), float32(vp.OffY)))
	r.page.Resize(fyne.NewSize(float32(r.cw*vp.Scale), float32(r.ch*vp.Scale)))

	it, ok := r.jc.ed.Store().Item(r.jc.ed.Store().Selected())
	if !ok {
		for _, e := range r.edges {
			e.Hide()
		}
		r.rot.Hide()
		r.res.Hide()
		return
	}
	m := transform.ItemMatrix(it)
	corners := [4]transform.Pt{{X: 0, Y: 0}, {X: it.Size.Width, Y: 0}, {X: it.Size.Width, Y: it.Size.Height}, {X: 0, Y: it.Size.Height}}
	for i, e := range r.edges {
		a := r.widgetPos(m.Apply(corners[i]))
		b := r.widgetPos(m.Apply(corners[(i+1)%4]))
		e.Position1, e.Position2 = a, b
		e.Show()
	}
	const knob = 8
	rp := r.widgetPos(RotateHandle(it))
	r.rot.Move(fyne.NewPos(rp.X-knob, rp.Y-knob))
	r.rot.Resize(fyne.NewSize(2*knob, 2*knob))
	r.rot.Show()
	// no resizing mid-rotation
	if id, rotating := r.jc.ed.Store().Rotating(); rotating && id == it.ID {
		r.res.Hide()
		return
	}
	sp := r.widgetPos(ResizeHandle(it))
	r.res.Move(fyne.NewPos(sp.X-knob/2, sp.Y-knob/2))
	r.res.Resize(fyne.NewSize(knob, knob))
	r.res.Show()
}

func (r *journalCanvasRenderer) widgetPos(p transform.Pt) fyne.Position {
	x, y := r.jc.vp.ToWidget(p)
	return fyne.NewPos(float32(x), float32(y))
}

func showTextDialog(w fyne.Window, ed *editor.Editor, jc *JournalCanvas, id string) {
	it, ok := ed.Store().Item(id)
	if !ok {
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(it.Content)
	dialog.ShowForm("Edit text", "Save", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
		if ok {
			ed.UpdateContent(id, entry.Text)
			jc.Refresh()
		}
	}, w)
}

func showStyleDialog(w fyne.Window, ed *editor.Editor, jc *JournalCanvas, it domain.Item) {
	st := domain.DefaultTextStyle()
	if it.Style != nil {
		st = it.Style.WithDefaults()
	}
	var sizes []string
	for n := domain.MinFontSize; n <= domain.MaxFontSize; n += 2 {
		sizes = append(sizes, fmt.Sprintf("%dpx", n))
	}
	size := widget.NewSelect(sizes, nil)
	size.SetSelected(st.FontSize)
	family := widget.NewSelect(domain.FontFamilies, nil)
	family.SetSelected(st.FontFamily)
	col := widget.NewEntry()
	col.SetText(st.Color)
	bold := widget.NewCheck("Bold", nil)
	bold.SetChecked(st.Bold())
	italic := widget.NewCheck("Italic", nil)
	italic.SetChecked(st.Italic())
	underline := widget.NewCheck("Underline", nil)
	underline.SetChecked(st.Underline())
	align := widget.NewRadioGroup([]string{"left", "center", "right"}, nil)
	align.Horizontal = true
	align.SetSelected(st.TextAlign)

	items := []*widget.FormItem{
		widget.NewFormItem("Size", size),
		widget.NewFormItem("Font", family),
		widget.NewFormItem("Color", col),
		widget.NewFormItem("", container.NewHBox(bold, italic, underline)),
		widget.NewFormItem("Align", align),
	}
	dialog.ShowForm("Text style", "Apply", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		patch := domain.StylePatch{
			FontSize:       domain.Ptr(size.Selected),
			FontFamily:     domain.Ptr(family.Selected),
			Color:          domain.Ptr(strings.TrimSpace(col.Text)),
			FontWeight:     domain.Ptr(choose(bold.Checked, "bold", "normal")),
			FontStyle:      domain.Ptr(choose(italic.Checked, "italic", "normal")),
			TextDecoration: domain.Ptr(choose(underline.Checked, "underline", "none")),
			TextAlign:      domain.Ptr(align.Selected),
		}
		if _, err := ed.UpdateStyle(it.ID, patch); err != nil {
			dialog.ShowError(err, w)
			return
		}
		jc.Refresh()
	}, w)
}

func choose(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func showStickerDialog(w fyne.Window, ed *editor.Editor, jc *JournalCanvas) {
	cats, err := catalog.Categories()
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	var d dialog.Dialog
	tabs := container.NewAppTabs()
	for _, cat := range cats {
		grid := container.NewGridWithColumns(3)
		for _, s := range cat.Stickers {
			id := s.ID
			grid.Add(widget.NewButton(s.Alt, func() {
				if _, err := ed.AddSticker(id); err != nil {
					dialog.ShowError(err, w)
					return
				}
				jc.Refresh()
				d.Hide()
			}))
		}
		tabs.Append(container.NewTabItem(catalog.CategoryTitle(cat.Name), grid))
	}
	d = dialog.NewCustom("Stickers", "Close", tabs, w)
	d.Show()
}

func showPreviewDialog(w fyne.Window, ed *editor.Editor) {
	ctx, cancel := context.WithCancel(context.Background())
	v := ed.OpenPreview()
	first, err := v.Frame(ctx, 0)
	if err != nil {
		cancel()
		dialog.ShowError(err, w)
		return
	}
	screen := canvas.NewImageFromImage(first)
	screen.FillMode = canvas.ImageFillContain
	screen.SetMinSize(fyne.NewSize(480, 270))

	download := widget.NewButton("Download", func() {
		go func() { _, _ = ed.DownloadVideo(ctx) }()
	})
	download.Disable()
	var generate *widget.Button
	generate = widget.NewButton("Generate video", func() {
		generate.Disable()
		go func() {
			_, err := ed.GenerateVideo(ctx)
			fyne.Do(func() {
				generate.Enable()
				if err == nil {
					download.Enable()
				}
			})
		}()
	})

	go func() {
		t := time.NewTicker(time.Second / time.Duration(v.FPS()))
		defer t.Stop()
		frame := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				frame = (frame + 1) % v.Frames()
				img, err := v.Frame(ctx, frame)
				if err != nil {
					continue
				}
				fyne.Do(func() {
					screen.Image = img
					screen.Refresh()
				})
			}
		}
	}()

	d := dialog.NewCustom("Video preview", "Close", container.NewBorder(nil, container.NewHBox(generate, download), nil, nil, screen), w)
	d.SetOnClosed(func() {
		cancel()
		ed.ClosePreview()
	})
	d.Show()
}
