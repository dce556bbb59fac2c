// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"encoding/base64"
	"os"
)

// PreviewResult is delivered once by Preview.
type PreviewResult struct {
	DataURL string
	Err     error
}

// Preview reads f in the background and delivers it as a data URL
// ("data:<mime>;base64,..."). The channel receives exactly one result and
// is then closed.
func Preview(ctx context.Context, f File) <-chan PreviewResult {
	out := make(chan PreviewResult, 1)
	go func() {
		defer close(out)
		data, err := os.ReadFile(f.Path)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			out <- PreviewResult{Err: err}
			return
		}
		out <- PreviewResult{DataURL: DataURL(f.MIME, data)}
	}()
	return out
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
