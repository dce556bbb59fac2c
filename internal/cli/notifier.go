// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/chatdeck/internal/ui/styles"
)

// WriterNotifier prints notifications as status lines, for commands
// without a toast area.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier prints to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) {
	n.print(SuccessStyle.Render(styles.StatusIndicators.Success) + " " + msg)
}

func (n *WriterNotifier) Error(msg string) {
	n.print(ErrorStyle.Render(styles.StatusIndicators.Error) + " " + msg)
}

func (n *WriterNotifier) print(line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, line)
}
