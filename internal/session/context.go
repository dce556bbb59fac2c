// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
)

// =============================================================================
// SESSION CONTEXT
// =============================================================================

// Context is the explicit handle on the active session that the composer,
// the transport callers and the UI share. It caches the stored id in
// memory and writes through to its Store.
type Context struct {
	mu    sync.Mutex
	store Store
	id    string

	subs   map[int]func(id string)
	nextID int
}

// NewContext wraps store. Call Load to pick up a previously stored id.
func NewContext(store Store) *Context {
	return &Context{
		store: store,
		subs:  make(map[int]func(string)),
	}
}

// Load reads the stored id into memory and returns it ("" when absent).
func (c *Context) Load(ctx context.Context) (string, error) {
	id, _, err := c.store.Get(ctx)
	if err != nil {
		return "", err
	}
	c.update(id)
	return id, nil
}

// Reload is Load for callers that only care about change notifications,
// such as the file watcher.
func (c *Context) Reload(ctx context.Context) error {
	_, err := c.Load(ctx)
	return err
}

// ID returns the active session id, or "" if there is none.
func (c *Context) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Has reports whether a session is active.
func (c *Context) Has() bool {
	return c.ID() != ""
}

// Set persists id as the active session.
func (c *Context) Set(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	if err := c.store.Set(ctx, id); err != nil {
		return err
	}
	c.update(id)
	return nil
}

// Clear forgets the active session.
func (c *Context) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.update("")
	return nil
}

// Subscribe registers fn to be called with the new id whenever it changes.
// The returned func removes the subscription.
func (c *Context) Subscribe(fn func(id string)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.nextID
	c.nextID++
	c.subs[key] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, key)
	}
}

// update stores id and notifies subscribers outside the lock.
func (c *Context) update(id string) {
	c.mu.Lock()
	if c.id == id {
		c.mu.Unlock()
		return
	}
	c.id = id
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}
