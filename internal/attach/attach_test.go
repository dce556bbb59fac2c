// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// =============================================================================
// FAKES
// =============================================================================

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	url   string
	err   error
	gate  chan struct{}
}

func (u *fakeUploader) UploadImage(ctx context.Context, name string, r io.Reader) (string, error) {
	u.mu.Lock()
	u.calls = append(u.calls, name)
	u.mu.Unlock()
	_, _ = io.Copy(io.Discard, r)
	if u.gate != nil {
		<-u.gate
	}
	return u.url, u.err
}

func (u *fakeUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

type recorder struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		file File
		want error
	}{
		{"png", File{MIME: "image/png", Size: 100}, nil},
		{"exactly max", File{MIME: "image/jpeg", Size: MaxImageSize}, nil},
		{"one byte over", File{MIME: "image/jpeg", Size: MaxImageSize + 1}, ErrTooLarge},
		{"text", File{MIME: "text/plain", Size: 10}, ErrNotImage},
		{"pdf", File{MIME: "application/pdf", Size: 10}, ErrNotImage},
		{"empty mime", File{Size: 10}, ErrNotImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInspect(t *testing.T) {
	f, err := Inspect(writeFile(t, "shot.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MIME)
	assert.Equal(t, "shot.png", f.Name)
	assert.Equal(t, int64(len(pngHeader)), f.Size)
	assert.True(t, f.IsImage())

	f, err = Inspect(writeFile(t, "notes.txt", []byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", f.MIME)
	assert.False(t, f.IsImage())
}

func TestInspect_ContentWinsOverExtension(t *testing.T) {
	f, err := Inspect(writeFile(t, "fake.png", []byte("just some text")))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(f), ErrNotImage)
}

func TestInspect_SVGByExtension(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"xml prolog", `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`},
		{"bare svg", `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Inspect(writeFile(t, "Logo.SVG", []byte(tt.data)))
			require.NoError(t, err)
			assert.Equal(t, "image/svg+xml", f.MIME)
			assert.NoError(t, Validate(f))
		})
	}

	// Only SVG gets this treatment.
	f, err := Inspect(writeFile(t, "notes.png", []byte("<?xml version=\"1.0\"?><notes/>")))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(f), ErrNotImage)
}

func TestInspect_Errors(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "File not found", Message(err))

	_, err = Inspect(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFile)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, MsgNotImage, Message(ErrNotImage))
	assert.Equal(t, MsgTooLarge, Message(ErrTooLarge))
	assert.Equal(t, "", Message(nil))
}

func TestPreview(t *testing.T) {
	path := writeFile(t, "a.png", pngHeader)
	f, err := Inspect(path)
	require.NoError(t, err)

	var results []PreviewResult
	for res := range Preview(context.Background(), f) {
		results = append(results, res)
	}
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.True(t, strings.HasPrefix(results[0].DataURL, "data:image/png;base64,"))
}

func TestPreview_Canceled(t *testing.T) {
	f := File{Path: writeFile(t, "a.png", pngHeader), MIME: "image/png"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := <-Preview(ctx, f)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

// =============================================================================
// ATTACHMENT STATE
// =============================================================================

func TestAttachment_Lifecycle(t *testing.T) {
	var a Attachment
	assert.Equal(t, StateNone, a.State())

	tok := a.Begin(File{Name: "x.png"})
	assert.True(t, a.Uploading())
	assert.Equal(t, "", a.URL())

	a.SetPreview(tok, "data:image/png;base64,AA==")
	assert.True(t, a.Complete(tok, "http://img/x.png"))
	assert.Equal(t, StateReady, a.State())
	assert.Equal(t, "http://img/x.png", a.URL())
	assert.Equal(t, "data:image/png;base64,AA==", a.Preview())

	a.Clear()
	assert.Equal(t, StateNone, a.State())
	assert.Equal(t, "", a.URL())
	_, ok := a.File()
	assert.False(t, ok)
}

func TestAttachment_StaleTokens(t *testing.T) {
	var a Attachment
	first := a.Begin(File{Name: "one.png"})
	second := a.Begin(File{Name: "two.png"})

	assert.False(t, a.Complete(first, "http://img/one"))
	a.Fail(first)
	assert.True(t, a.Uploading(), "stale Fail must not clear the newer upload")

	a.Clear()
	assert.False(t, a.Complete(second, "http://img/two"))
	assert.Equal(t, "", a.URL())
}

func TestAttachment_FailClears(t *testing.T) {
	var a Attachment
	tok := a.Begin(File{Name: "x.png"})
	a.Fail(tok)
	assert.Equal(t, StateNone, a.State())
	assert.Equal(t, "", a.URL())
}

// =============================================================================
// FLOW
// =============================================================================

func TestFlow_Success(t *testing.T) {
	up := &fakeUploader{url: "http://img/shot.png"}
	rec := &recorder{}
	flow := NewFlow(up, &Attachment{}, rec, nil)

	require.NoError(t, flow.Attach(context.Background(), writeFile(t, "shot.png", pngHeader)))
	assert.Equal(t, "http://img/shot.png", flow.Attachment().URL())
	assert.Equal(t, []string{MsgUploaded}, rec.successes)
	assert.Empty(t, rec.errors)

	assert.Eventually(t, func() bool {
		return strings.HasPrefix(flow.Attachment().Preview(), "data:image/png")
	}, time.Second, 10*time.Millisecond)
}

func TestFlow_InvalidFilesNeverUpload(t *testing.T) {
	big := writeFile(t, "big.png", pngHeader)
	require.NoError(t, os.Truncate(big, MaxImageSize+1))

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"not an image", writeFile(t, "notes.txt", []byte("plain text")), MsgNotImage},
		{"too large", big, MsgTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{url: "http://img/x"}
			rec := &recorder{}
			flow := NewFlow(up, &Attachment{}, rec, nil)

			err := flow.Attach(context.Background(), tt.path)
			require.Error(t, err)
			assert.Equal(t, 0, up.callCount())
			assert.Equal(t, []string{tt.msg}, rec.errors)
			assert.Equal(t, StateNone, flow.Attachment().State())
		})
	}
}

func TestFlow_UploadFailureLeavesNoAttachment(t *testing.T) {
	up := &fakeUploader{err: errors.New("network down")}
	rec := &recorder{}
	flow := NewFlow(up, &Attachment{}, rec, nil)

	err := flow.Attach(context.Background(), writeFile(t, "shot.png", pngHeader))
	require.Error(t, err)
	assert.Equal(t, 1, up.callCount())
	assert.Equal(t, []string{MsgUploadFailed}, rec.errors)
	assert.Equal(t, StateNone, flow.Attachment().State())
	assert.Equal(t, "", flow.Attachment().URL())
}

func TestFlow_FileGrewAfterInspect(t *testing.T) {
	path := writeFile(t, "shot.png", pngHeader)
	file, err := Inspect(path)
	require.NoError(t, err)
	require.NoError(t, Validate(file))

	require.NoError(t, os.Truncate(path, MaxImageSize+1))

	up := &fakeUploader{url: "http://img/shot.png"}
	flow := NewFlow(up, &Attachment{}, &recorder{}, nil)
	_, err = flow.upload(context.Background(), file)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, up.callCount())

	require.NoError(t, os.Truncate(path, MaxImageSize))
	url, err := flow.upload(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "http://img/shot.png", url)
}

func TestFlow_RemovedDuringUpload(t *testing.T) {
	up := &fakeUploader{url: "http://img/late", gate: make(chan struct{})}
	rec := &recorder{}
	att := &Attachment{}
	flow := NewFlow(up, att, rec, nil)

	done := make(chan error, 1)
	go func() {
		done <- flow.Attach(context.Background(), writeFile(t, "shot.png", pngHeader))
	}()

	require.Eventually(t, att.Uploading, time.Second, 5*time.Millisecond)
	att.Clear()
	close(up.gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, "", att.URL())
	assert.Empty(t, rec.successes)
}
