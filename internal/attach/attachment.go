// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import "sync"

// State is the lifecycle stage of the pending attachment.
type State int

const (
	StateNone State = iota
	StateUploading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateReady:
		return "ready"
	default:
		return "none"
	}
}

// Attachment holds at most one pending image for the next send.
//
// Each Begin returns a token. Complete and Fail only take effect for the
// current token, so an upload that finishes after the user removed or
// replaced the attachment leaves no trace.
type Attachment struct {
	mu      sync.Mutex
	state   State
	file    File
	url     string
	preview string
	gen     uint64
}

// Begin starts tracking f as uploading and returns its token.
func (a *Attachment) Begin(f File) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.state = StateUploading
	a.file = f
	a.url = ""
	a.preview = ""
	return a.gen
}

// SetPreview records the local preview for the attachment identified by token.
func (a *Attachment) SetPreview(token uint64, dataURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token == a.gen && a.state != StateNone {
		a.preview = dataURL
	}
}

// Complete stores the hosted URL. It reports false when token is stale.
func (a *Attachment) Complete(token uint64, url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token != a.gen || a.state != StateUploading {
		return false
	}
	a.state = StateReady
	a.url = url
	return true
}

// Fail drops the attachment identified by token.
func (a *Attachment) Fail(token uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token == a.gen {
		a.reset()
	}
}

// Clear removes any attachment, including one still uploading.
func (a *Attachment) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.reset()
}

func (a *Attachment) reset() {
	a.state = StateNone
	a.file = File{}
	a.url = ""
	a.preview = ""
}

// State returns the current stage.
func (a *Attachment) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Uploading reports whether an upload is in flight.
func (a *Attachment) Uploading() bool {
	return a.State() == StateUploading
}

// URL returns the hosted URL once the upload completed, else "".
func (a *Attachment) URL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url
}

// File returns the selected file, if any.
func (a *Attachment) File() (File, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file, a.state != StateNone
}

// Preview returns the local data URL preview, or "" if not yet read.
func (a *Attachment) Preview() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.preview
}
