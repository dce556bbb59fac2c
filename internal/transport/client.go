// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jeranaias/chatdeck/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the server root used when nothing is configured.
	DefaultBaseURL = "http://127.0.0.1:5005"

	// UploadField is the multipart field carrying an image upload.
	UploadField = "image"

	userAgent = "chatdeck"
)

// Endpoints, relative to the API root.
const (
	pathListChats     = "/chat/chats"
	pathNewChat       = "/chat/new-chat"
	pathNewMessage    = "/chat/new-message/{session_id}"
	pathMessages      = "/chat/messages/{session_id}"
	pathDeleteSession = "/chat/delete-session/{session_id}"
	pathUploadImage   = "/chat/upload-image"
)

// =============================================================================
// TYPES
// =============================================================================

// ChatRequest is the body of a new-chat call. SessionID is sent as the empty
// string when no session exists yet.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	ImageURL  string `json:"image_url,omitempty"`
}

// UploadResult is the body returned by a successful image upload.
type UploadResult struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	PublicID string `json:"public_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Config holds client settings.
type Config struct {
	// BaseURL is the server root. "/api" is appended unless already present.
	BaseURL string

	// Timeout bounds each request. Zero or negative means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat backend over HTTP.
// It is safe for concurrent use.
type Client struct {
	rootURL string
	apiURL  string
	http    *resty.Client
	log     *slog.Logger
}

// NewClient creates a client for cfg. Zero fields take their defaults.
func NewClient(cfg Config) *Client {
	root, api := SplitBaseURL(cfg.BaseURL)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(api).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger})
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	return &Client{rootURL: root, apiURL: api, http: rc, log: logger}
}

// SplitBaseURL normalizes a configured base URL into the server root and
// the API root ("<root>/api").
func SplitBaseURL(base string) (root, api string) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/api") {
		return strings.TrimSuffix(base, "/api"), base
	}
	return base, base + "/api"
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.apiURL
}

// ListAllChats returns every stored message across all sessions.
func (c *Client) ListAllChats(ctx context.Context) ([]model.Message, error) {
	const op = "list chats"
	res, err := c.http.R().SetContext(ctx).Get(pathListChats)
	if err != nil {
		return nil, requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return nil, err
	}
	return decodeMessages(op, res.Body())
}

// CreateOrContinueChat posts a user turn and returns the assistant reply.
// A reply that is not an assistant message with non-empty content is
// rejected with ErrInvalidReply. The decoded reply is still returned with
// that error so callers can keep the session id the server assigned.
func (c *Client) CreateOrContinueChat(ctx context.Context, req ChatRequest) (model.Message, error) {
	const op = "new chat"
	c.log.Debug("sending chat", "session_id", req.SessionID, "has_image", req.ImageURL != "")

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(pathNewChat)
	if err != nil {
		return model.Message{}, requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return model.Message{}, err
	}

	var reply model.Message
	if err := json.Unmarshal(res.Body(), &reply); err != nil {
		return model.Message{}, invalidReply(op, err.Error())
	}
	if reply.Role != model.RoleAssistant {
		return reply, invalidReply(op, fmt.Sprintf("role %q", reply.Role))
	}
	if strings.TrimSpace(reply.Content) == "" {
		return reply, invalidReply(op, "empty message")
	}
	return reply, nil
}

// NewMessage stores raw text in an existing session without requesting a
// reply and returns the session's messages.
func (c *Client) NewMessage(ctx context.Context, sessionID, text string) ([]model.Message, error) {
	const op = "new message"
	if sessionID == "" {
		return nil, ErrNoSession
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("session_id", sessionID).
		SetHeader("Content-Type", "text/plain").
		SetBody(text).
		Put(pathNewMessage)
	if err != nil {
		return nil, requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return nil, err
	}
	return decodeMessages(op, res.Body())
}

// FetchSessionMessages returns the stored messages of one session.
func (c *Client) FetchSessionMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	const op = "fetch messages"
	if sessionID == "" {
		return nil, ErrNoSession
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("session_id", sessionID).
		Get(pathMessages)
	if err != nil {
		return nil, requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return nil, err
	}
	return decodeMessages(op, res.Body())
}

// DeleteSession removes a session and its messages on the server.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	const op = "delete session"
	if sessionID == "" {
		return ErrNoSession
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("session_id", sessionID).
		Delete(pathDeleteSession)
	if err != nil {
		return requestError(op, err)
	}
	return checkStatus(op, res)
}

// UploadImage sends an image as multipart form data and returns the hosted
// URL reported by the server.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "upload image"
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader(UploadField, filename, r).
		Post(pathUploadImage)
	if err != nil {
		return "", requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return "", err
	}

	var out UploadResult
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return "", invalidReply(op, err.Error())
	}
	if out.ImageURL == "" {
		return "", invalidReply(op, "missing image_url")
	}
	return out.ImageURL, nil
}

// Hello checks that the server is reachable and returns its greeting.
func (c *Client) Hello(ctx context.Context) (string, error) {
	const op = "hello"
	res, err := c.http.R().SetContext(ctx).Get(c.rootURL + "/")
	if err != nil {
		return "", requestError(op, err)
	}
	if err := checkStatus(op, res); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.String()), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func checkStatus(op string, res *resty.Response) error {
	if res.IsSuccess() {
		return nil
	}
	var body errorBody
	_ = json.Unmarshal(res.Body(), &body)
	return statusError(op, res.StatusCode(), body.Error)
}

func decodeMessages(op string, data []byte) ([]model.Message, error) {
	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, invalidReply(op, err.Error())
	}
	return msgs, nil
}

// restyLogger routes resty's internal logging through slog.
type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}
