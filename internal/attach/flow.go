// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

const (
	MsgUploaded     = "Image uploaded successfully!"
	MsgUploadFailed = "Failed to upload image"
)

// ErrSuperseded is returned by Flow.Attach when the attachment was removed
// or replaced while its upload was in flight.
var ErrSuperseded = errors.New("attachment removed during upload")

// Uploader sends an image to remote storage and returns its hosted URL.
type Uploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Notifier receives transient user notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Flow runs the select, validate, preview, upload sequence for one
// Attachment.
type Flow struct {
	up     Uploader
	att    *Attachment
	notify Notifier
	log    *slog.Logger
}

// NewFlow wires a Flow. A nil logger uses slog.Default.
func NewFlow(up Uploader, att *Attachment, notify Notifier, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{up: up, att: att, notify: notify, log: logger}
}

// Attachment returns the state the flow writes to.
func (f *Flow) Attachment() *Attachment {
	return f.att
}

// Attach validates the file at path and uploads it. It blocks until the
// upload resolves; the local preview is produced concurrently.
func (f *Flow) Attach(ctx context.Context, path string) error {
	file, err := Inspect(path)
	if err == nil {
		err = Validate(file)
	}
	if err != nil {
		f.log.Info("attachment rejected", "path", path, "error", err)
		f.notify.Error(Message(err))
		return err
	}

	token := f.att.Begin(file)
	f.log.Debug("attachment selected", "name", file.Name, "mime", file.MIME, "size", file.Size)

	go func() {
		for res := range Preview(ctx, file) {
			if res.Err != nil {
				f.log.Debug("preview failed", "name", file.Name, "error", res.Err)
				continue
			}
			f.att.SetPreview(token, res.DataURL)
		}
	}()

	url, err := f.upload(ctx, file)
	if err != nil {
		f.att.Fail(token)
		f.log.Warn("image upload failed", "name", file.Name, "error", err)
		if errors.Is(err, ErrTooLarge) {
			f.notify.Error(MsgTooLarge)
		} else {
			f.notify.Error(MsgUploadFailed)
		}
		return err
	}
	if !f.att.Complete(token, url) {
		f.log.Debug("upload finished after removal", "name", file.Name)
		return ErrSuperseded
	}

	f.log.Info("image uploaded", "name", file.Name, "url", url)
	f.notify.Success(MsgUploaded)
	return nil
}

// upload re-reads the file with a hard cap, since it may have grown after
// Inspect measured it.
func (f *Flow) upload(ctx context.Context, file File) (string, error) {
	r, err := os.Open(file.Path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	return f.up.UploadImage(ctx, file.Name, bytes.NewReader(data))
}
