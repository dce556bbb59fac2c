// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest image accepted for upload (5 MiB).
const MaxImageSize = 5 * 1024 * 1024

// sniffLen matches what http.DetectContentType considers.
const sniffLen = 512

// User-facing messages for rejected files.
const (
	MsgNotImage = "Please select an image file"
	MsgTooLarge = "Image size should be less than 5MB"
)

var (
	ErrNotImage = errors.New("not an image file")
	ErrTooLarge = errors.New("image exceeds 5 MiB")
	ErrNotFile  = errors.New("not a regular file")
)

// File describes a local file selected for attachment.
type File struct {
	Path string
	Name string
	MIME string
	Size int64
}

// IsImage reports whether the detected MIME type is an image type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MIME, "image/")
}

// Inspect stats path and detects its MIME type from the leading bytes,
// falling back to the extension when the content is not recognized.
func Inspect(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("%s: %w", path, ErrNotFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return File{}, err
	}

	return File{
		Path: path,
		Name: filepath.Base(path),
		MIME: detectMIME(path, head[:n]),
		Size: info.Size(),
	}, nil
}

// detectMIME prefers the sniffed type. SVG is text and sniffs as text/xml or
// text/plain, so for .svg files a text sniff defers to the extension.
func detectMIME(path string, head []byte) string {
	sniffed := stripParams(http.DetectContentType(head))
	byExt := stripParams(mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
	switch {
	case sniffed == "application/octet-stream" && byExt != "":
		return byExt
	case strings.HasPrefix(sniffed, "text/") && byExt == "image/svg+xml":
		return byExt
	}
	return sniffed
}

func stripParams(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		return strings.TrimSpace(t[:i])
	}
	return t
}

// Validate rejects files that must never reach the upload operation.
func Validate(f File) error {
	if !f.IsImage() {
		return ErrNotImage
	}
	if f.Size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// Message returns the notification text for a validation or inspect error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotImage), errors.Is(err, ErrNotFile):
		return MsgNotImage
	case errors.Is(err, ErrTooLarge):
		return MsgTooLarge
	case errors.Is(err, os.ErrNotExist):
		return "File not found"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
