// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"log/slog"
	"sync"
)

// NoticeKind distinguishes success from error notifications.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is one transient notification.
type Notice struct {
	Kind NoticeKind
	Text string
}

// QueueNotifier buffers notices for a consumer that drains them at its own
// pace, such as the TUI event loop. When the buffer is full the oldest
// notice is dropped.
type QueueNotifier struct {
	mu sync.Mutex
	ch chan Notice
}

// NewQueueNotifier returns a notifier holding up to size pending notices.
func NewQueueNotifier(size int) *QueueNotifier {
	if size < 1 {
		size = 1
	}
	return &QueueNotifier{ch: make(chan Notice, size)}
}

// C returns the channel notices are delivered on.
func (q *QueueNotifier) C() <-chan Notice {
	return q.ch
}

func (q *QueueNotifier) Success(msg string) { q.push(Notice{Kind: NoticeSuccess, Text: msg}) }
func (q *QueueNotifier) Error(msg string)   { q.push(Notice{Kind: NoticeError, Text: msg}) }

func (q *QueueNotifier) push(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case q.ch <- n:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// LogNotifier writes notices to a logger. Useful for headless runs.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) logger() *slog.Logger {
	if l.Log == nil {
		return slog.Default()
	}
	return l.Log
}

func (l LogNotifier) Success(msg string) { l.logger().Info(msg) }
func (l LogNotifier) Error(msg string)   { l.logger().Error(msg) }

// Multi fans notices out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
