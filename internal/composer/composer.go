// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/session"
	"github.com/jeranaias/chatdeck/internal/transport"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultImagePrompt is sent when a message carries an image but no text.
const DefaultImagePrompt = "Generate React code for this UI mockup"

// Notification texts.
const (
	MsgDeleted       = "Your chat has been deleted"
	MsgDeleteFailed  = "An error occurred, check console"
	MsgEmpty         = "Type a message or attach an image"
	MsgUploadPending = "Wait for the image upload to finish"
	MsgNoSession     = "There is no chat to delete"
)

var (
	ErrEmptyMessage   = errors.New("message is empty and no image is attached")
	ErrSendInFlight   = errors.New("a message is already being sent")
	ErrUploadInFlight = errors.New("an image upload is still in progress")
	ErrNoSession      = errors.New("no active session")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ChatAPI is the part of the transport the composer drives.
type ChatAPI interface {
	CreateOrContinueChat(ctx context.Context, req transport.ChatRequest) (model.Message, error)
	FetchSessionMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Notifier receives transient user notifications.
type Notifier = attach.Notifier

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.log = l }
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer owns the message list of the active session and runs the send,
// bootstrap and delete protocols against the chat API.
//
// Methods are safe to call from multiple goroutines. Network calls are made
// without holding the lock, so accessors stay responsive while a send is
// pending.
type Composer struct {
	api     ChatAPI
	session *session.Context
	att     *attach.Attachment
	notify  Notifier
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	list    model.List
	loading bool
	// active is the session the list belongs to.
	active  string
	subs    map[int]func()
	nextSub int
}

// New creates a Composer. att may be nil when attachments are not used.
func New(api ChatAPI, sc *session.Context, att *attach.Attachment, notify Notifier, opts ...Option) *Composer {
	if att == nil {
		att = &attach.Attachment{}
	}
	c := &Composer{
		api:     api,
		session: sc,
		att:     att,
		notify:  notify,
		log:     slog.Default(),
		now:     time.Now,
		subs:    make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send runs the optimistic send protocol for text plus any completed
// attachment and returns the confirmed assistant reply.
//
// On failure the optimistic user entry is removed again and nothing else
// in the list changes.
func (c *Composer) Send(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return model.Message{}, ErrSendInFlight
	}
	if c.att.Uploading() {
		c.mu.Unlock()
		c.notify.Error(MsgUploadPending)
		return model.Message{}, ErrUploadInFlight
	}
	imageURL := c.att.URL()
	if text == "" && imageURL == "" {
		c.mu.Unlock()
		c.notify.Error(MsgEmpty)
		return model.Message{}, ErrEmptyMessage
	}

	content := text
	if content == "" {
		content = DefaultImagePrompt
	}
	sessionID := c.session.ID()
	pending := model.NewUserMessage(content, sessionID, imageURL, c.now())

	c.list = model.Reduce(c.list, model.Append{Message: pending})
	c.loading = true
	c.att.Clear()
	c.mu.Unlock()
	c.changed()

	c.log.Debug("sending message", "temp_id", pending.ID, "session_id", sessionID, "has_image", imageURL != "")

	reply, err := c.api.CreateOrContinueChat(ctx, transport.ChatRequest{
		Message:   content,
		SessionID: sessionID,
		ImageURL:  imageURL,
	})
	// The session id is kept even when the reply itself is rejected.
	if err == nil || errors.Is(err, transport.ErrInvalidReply) {
		if sessionID == "" && reply.Session() != "" {
			c.setActive(reply.Session())
			if serr := c.session.Set(ctx, reply.Session()); serr != nil {
				c.log.Error("failed to persist session id", "session_id", reply.Session(), "error", serr)
			}
		}
	}
	if err == nil {
		err = validateReply(reply)
	}

	if err != nil {
		c.mu.Lock()
		c.list = model.Reduce(c.list, model.Remove{ID: pending.ID})
		c.loading = false
		c.mu.Unlock()
		c.changed()

		c.log.Warn("send failed", "temp_id", pending.ID, "error", err)
		c.notify.Error("Error: " + transport.ErrorMessage(err))
		return model.Message{}, err
	}

	confirmed := c.confirm(reply, sessionID)

	c.mu.Lock()
	c.list = model.Reduce(c.list, model.Append{Message: confirmed})
	c.loading = false
	c.mu.Unlock()
	c.changed()

	return confirmed, nil
}

// confirm fills the fields a server may omit from a reply.
func (c *Composer) confirm(reply model.Message, sessionID string) model.Message {
	if reply.ID == "" {
		reply.ID = model.NewFallbackID(c.now())
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = model.Timestamp{Time: c.now()}
	}
	if reply.SessionID == nil {
		if sid := c.session.ID(); sid != "" {
			reply.SessionID = model.SessionRef(sid)
		} else {
			reply.SessionID = model.SessionRef(sessionID)
		}
	}
	reply.Role = model.RoleAssistant
	return reply
}

func validateReply(m model.Message) error {
	if m.Role != model.RoleAssistant || strings.TrimSpace(m.Content) == "" {
		return transport.ErrInvalidReply
	}
	return nil
}

// Bootstrap loads the stored session id and, when one exists, replaces the
// list with the session's messages. A fetch failure is reported and leaves
// the list empty.
func (c *Composer) Bootstrap(ctx context.Context) error {
	id, err := c.session.Load(ctx)
	if err != nil {
		c.log.Error("failed to read session", "error", err)
		c.notify.Error("Error: " + err.Error())
		return err
	}
	c.setActive(id)
	if id == "" {
		c.apply(model.Clear{})
		return nil
	}

	msgs, err := c.api.FetchSessionMessages(ctx, id)
	if err != nil {
		c.apply(model.Clear{})
		c.log.Warn("failed to load session messages", "session_id", id, "error", err)
		c.notify.Error("Error: " + transport.ErrorMessage(err))
		return err
	}

	c.apply(model.Replace{Messages: msgs})
	c.log.Debug("session loaded", "session_id", id, "messages", len(msgs))
	return nil
}

// DeleteSession deletes the active session on the server, then forgets it
// locally and empties the list. On failure nothing local changes.
func (c *Composer) DeleteSession(ctx context.Context) error {
	id := c.session.ID()
	if id == "" {
		c.notify.Error(MsgNoSession)
		return ErrNoSession
	}

	if err := c.api.DeleteSession(ctx, id); err != nil {
		c.log.Error("delete session failed", "session_id", id, "error", err)
		c.notify.Error(MsgDeleteFailed)
		return err
	}
	c.setActive("")
	if err := c.session.Clear(ctx); err != nil {
		c.setActive(id)
		c.log.Error("failed to clear stored session", "session_id", id, "error", err)
		c.notify.Error(MsgDeleteFailed)
		return err
	}

	c.apply(model.Clear{})
	c.log.Info("session deleted", "session_id", id)
	c.notify.Success(MsgDeleted)
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Loading reports whether a send is in flight.
func (c *Composer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// CanSend reports whether Send would dispatch text right now.
func (c *Composer) CanSend(text string) bool {
	if c.Loading() || c.att.Uploading() {
		return false
	}
	return strings.TrimSpace(text) != "" || c.att.URL() != ""
}

// List returns a snapshot of the message list.
func (c *Composer) List() model.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list
}

// Messages returns the messages in display order.
func (c *Composer) Messages() []model.Message {
	return c.List().Sorted()
}

// SessionID returns the active session id, or "".
func (c *Composer) SessionID() string {
	return c.session.ID()
}

// Current reports whether id is the session the list already belongs to.
// Session change notifications caused by the composer itself match it.
func (c *Composer) Current(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active == id
}

func (c *Composer) setActive(id string) {
	c.mu.Lock()
	c.active = id
	c.mu.Unlock()
}

// Attachment returns the attachment state shared with the upload flow.
func (c *Composer) Attachment() *attach.Attachment {
	return c.att
}

// Subscribe registers fn to run after every list or loading change.
func (c *Composer) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, key)
	}
}

func (c *Composer) apply(action model.Action) {
	c.mu.Lock()
	c.list = model.Reduce(c.list, action)
	c.mu.Unlock()
	c.changed()
}

func (c *Composer) changed() {
	c.mu.Lock()
	subs := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
