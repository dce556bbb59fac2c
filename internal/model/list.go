// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sort"

// =============================================================================
// MESSAGE LIST STATE
// =============================================================================

// List is the ordered, in-memory message collection of the active session.
// A List is a value: Reduce never mutates its input, so a caller holding
// an older List keeps a consistent snapshot.
type List struct {
	items []Message
}

// NewList returns a List holding a copy of msgs in the given order.
func NewList(msgs ...Message) List {
	return List{items: clone(msgs)}
}

// Len returns the number of messages.
func (l List) Len() int {
	return len(l.items)
}

// Messages returns a copy of the messages in insertion order.
func (l List) Messages() []Message {
	return clone(l.items)
}

// Sorted returns the messages ordered by CreatedAt ascending. Entries with
// equal timestamps keep their insertion order.
func (l List) Sorted() []Message {
	out := clone(l.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
	})
	return out
}

// Find returns the message with the given id.
func (l List) Find(id string) (Message, bool) {
	for _, m := range l.items {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Last returns the most recently inserted message with the given role.
func (l List) Last(role Role) (Message, bool) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].Role == role {
			return l.items[i], true
		}
	}
	return Message{}, false
}

// =============================================================================
// ACTIONS
// =============================================================================

// Action is a state transition applied by Reduce.
type Action interface {
	apply(items []Message) []Message
}

// Append adds a message at the end of the list.
type Append struct {
	Message Message
}

func (a Append) apply(items []Message) []Message {
	return append(clone(items), a.Message)
}

// Remove drops the entry whose id equals ID. No other entry is touched and
// the relative order of the rest is preserved. Removing an unknown id is a no-op.
type Remove struct {
	ID string
}

func (a Remove) apply(items []Message) []Message {
	out := make([]Message, 0, len(items))
	for _, m := range items {
		if m.ID != a.ID {
			out = append(out, m)
		}
	}
	return out
}

// Replace swaps the whole list, used when a session is loaded.
type Replace struct {
	Messages []Message
}

func (a Replace) apply([]Message) []Message {
	return clone(a.Messages)
}

// Clear empties the list, used after a session is deleted.
type Clear struct{}

func (Clear) apply([]Message) []Message {
	return nil
}

// Reduce returns the list that results from applying action to l.
func Reduce(l List, action Action) List {
	if action == nil {
		return l
	}
	return List{items: action.apply(l.items)}
}

func clone(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
