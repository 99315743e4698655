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
	"image/png"
	"log/slog"

	"travelstory/internal/domain"
	applog "travelstory/internal/log"
)

// PNG flushes, rasterizes and delivers the canvas as TravelStory_<date>.png.
func (e *Exporter) PNG(ctx context.Context, st domain.CanvasState) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "png").With(slog.Int("items", len(st.Items)))
	img, err := e.prepare(ctx, st)
	if err != nil {
		l.ErrorContext(ctx, "png export failed", slog.Any("err", err))
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		err = stageErr(StageEncode, err)
		l.ErrorContext(ctx, "png export failed", slog.Any("err", err))
		return "", err
	}
	loc, err := e.deliver(ctx, "png", buf.Bytes())
	if err != nil {
		l.ErrorContext(ctx, "png export failed", slog.Any("err", err))
		return "", err
	}
	l.InfoContext(ctx, "png exported", slog.String("path", loc), slog.Int("bytes", buf.Len()))
	return loc, nil
}
