/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"travelstory/internal/domain"
	applog "travelstory/internal/log"
	"travelstory/internal/version"
)

// Page geometry in points. The page is A4 landscape.
const (
	PageWidth  = 842.0
	PageHeight = 595.0
	PageMargin = 25.0
)

// FitRect places an image of w×h pixels on the page: scaled to the usable
// width first, then to the usable height if it would still overflow, and
// centred on both axes.
func FitRect(w, h float64) (x, y, fw, fh float64) {
	if w <= 0 || h <= 0 {
		return PageMargin, PageMargin, 0, 0
	}
	maxW := PageWidth - 2*PageMargin
	maxH := PageHeight - 2*PageMargin
	fw = maxW
	fh = h * fw / w
	if fh > maxH {
		fh = maxH
		fw = w * fh / h
	}
	x = (PageWidth - fw) / 2
	y = (PageHeight - fh) / 2
	return x, y, fw, fh
}

// BuildPDF embeds img as the only content of a single page.
func BuildPDF(img image.Image) ([]byte, error) {
	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}
	b := img.Bounds()
	x, y, w, h := FitRect(float64(b.Dx()), float64(b.Dy()))

	// Use points for 1:1 mapping to the page geometry
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
		OrientationStr: "P",
	})
	pdf.SetTitle("Travel Story", true)
	pdf.SetCreator("travelstory "+version.String(), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("canvas", opts, &raster)
	pdf.ImageOptions("canvas", x, y, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// PDF flushes, rasterizes and delivers the canvas as TravelStory_<date>.pdf.
func (e *Exporter) PDF(ctx context.Context, st domain.CanvasState) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf").With(slog.Int("items", len(st.Items)))
	img, err := e.prepare(ctx, st)
	if err != nil {
		l.ErrorContext(ctx, "pdf export failed", slog.Any("err", err))
		return "", err
	}
	data, err := BuildPDF(img)
	if err != nil {
		err = stageErr(StageBuild, err)
		l.ErrorContext(ctx, "pdf export failed", slog.Any("err", err))
		return "", err
	}
	loc, err := e.deliver(ctx, "pdf", data)
	if err != nil {
		l.ErrorContext(ctx, "pdf export failed", slog.Any("err", err))
		return "", err
	}
	l.InfoContext(ctx, "pdf exported", slog.String("path", loc), slog.Int("bytes", len(data)))
	return loc, nil
}
