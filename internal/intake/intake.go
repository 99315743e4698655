/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package intake validates user-supplied images and turns them into data
// URIs that can be stored as item content.
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	applog "travelstory/internal/log"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// Upload is one file picked by the user.
type Upload struct {
	Name string
	MIME string
	Size int64
	Body io.Reader
}

// ValidationError is a user-facing rejection of an upload.
type ValidationError struct {
	Title       string
	Description string
}

func (e *ValidationError) Error() string { return e.Title + ": " + e.Description }

// Titles shown to the user.
const (
	TitleInvalidType = "Invalid file type"
	TitleTooLarge    = "File too large"
)

// ErrNotImage is wrapped when the bytes do not decode as an image.
var ErrNotImage = errors.New("content is not a decodable image")

// Validate checks MIME type and size. maxBytes <= 0 uses DefaultMaxBytes.
func Validate(u Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(u.MIME)), "image/") {
		return &ValidationError{Title: TitleInvalidType, Description: "Please upload an image file"}
	}
	if u.Size > maxBytes {
		return &ValidationError{
			Title:       TitleTooLarge,
			Description: fmt.Sprintf("Please upload an image smaller than %dMB", maxBytes/(1024*1024)),
		}
	}
	return nil
}

// ReadDataURI validates u, reads at most maxBytes+1 bytes of its body and
// returns a base64 data URI. A body that turns out larger than the limit is
// rejected even when the declared size was not.
func ReadDataURI(u Upload, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := Validate(u, maxBytes); err != nil {
		return "", err
	}
	if u.Body == nil {
		return "", errors.New("upload has no body")
	}
	data, err := io.ReadAll(io.LimitReader(u.Body, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", &ValidationError{
			Title:       TitleTooLarge,
			Description: fmt.Sprintf("Please upload an image smaller than %dMB", maxBytes/(1024*1024)),
		}
	}
	mt := strings.ToLower(strings.TrimSpace(u.MIME))
	if err := checkDecodes(mt, data); err != nil {
		applog.WithOperation(applog.WithComponent("intake"), "read").Warn("image rejected",
			slog.String("name", u.Name), slog.String("mime", mt), slog.Any("err", err))
		return "", &ValidationError{Title: TitleInvalidType, Description: "The file could not be read as an image"}
	}
	return EncodeDataURI(mt, data), nil
}

func checkDecodes(mt string, data []byte) error {
	if IsSVG(mt, data) {
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return nil
}

// IsSVG reports whether the content is an SVG document.
func IsSVG(mt string, data []byte) bool {
	if strings.HasPrefix(mt, "image/svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mt string, data []byte) string {
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into MIME type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, errors.New("data URI without payload")
	}
	mt, params, _ := strings.Cut(meta, ";")
	if !strings.Contains(params, "base64") {
		return mt, []byte(payload), nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mt, b, nil
}

// FromPath opens a local file as an upload. The MIME type comes from the
// extension, falling back to content sniffing. The caller closes the
// returned file.
func FromPath(path string) (Upload, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return Upload{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Upload{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		mt = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return Upload{}, nil, fmt.Errorf("rewind %s: %w", path, err)
		}
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return Upload{Name: filepath.Base(path), MIME: mt, Size: st.Size(), Body: f}, f, nil
}
