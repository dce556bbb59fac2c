// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jeranaias/chatdeck/internal/config"
	"github.com/jeranaias/chatdeck/internal/model"
)

// Upload and body limits.
const (
	MaxUploadBytes  = 10 << 20
	MaxMessageBytes = 1 << 20
)

// =============================================================================
// SERVICE
// =============================================================================

// ChatService implements the chat API.
type ChatService struct {
	db        *gorm.DB
	images    ImageStore
	responder Responder
	publicURL string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a ChatService.
type Option func(*ChatService)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// WithPublicURL fixes the origin used in image URLs.
func WithPublicURL(u string) Option {
	return func(s *ChatService) { s.publicURL = strings.TrimRight(u, "/") }
}

// NewChatService wires the service dependencies.
func NewChatService(db *gorm.DB, images ImageStore, responder Responder, opts ...Option) *ChatService {
	s := &ChatService{
		db:        db,
		images:    images,
		responder: responder,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRoutes mounts the chat endpoints on r.
func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Hello World!")
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/chats", RestHandler(s.ListChats))
		r.Post("/new-chat", RestHandlerStatus(http.StatusCreated, s.NewChat))
		r.Put("/new-message/{session_id}", RestHandlerStatus(http.StatusCreated, s.NewMessage))
		r.Get("/messages/{session_id}", RestHandlerStatus(http.StatusCreated, s.GetMessages))
		r.Delete("/delete-session/{session_id}", RestHandler(s.DeleteSession))
		r.Post("/upload-image", RestHandler(s.UploadImage))
		r.Post("/add-snippet", RestHandler(s.AddSnippet))
	})

	if disk, ok := s.images.(*DiskImageStore); ok {
		fs := http.StripPrefix(ImagesRoute+"/", http.FileServer(http.Dir(disk.Dir)))
		r.Get(ImagesRoute+"/*", fs.ServeHTTP)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

type newChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	ImageURL  string `json:"image_url"`
}

func (s *ChatService) ListChats(r *http.Request) (any, error) {
	var records []MessageRecord
	if err := s.db.WithContext(r.Context()).Order("created_at asc, seq asc").Find(&records).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to load chats: %v", err)
	}
	return toModels(records), nil
}

func (s *ChatService) NewChat(r *http.Request) (any, error) {
	req, err := ParseRequest[newChatRequest](r)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if req.Message == "" && req.ImageURL == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "No message or image provided")
	}

	ctx := r.Context()
	user := MessageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      string(model.RoleUser),
		Message:   req.Message,
		HasImage:  req.ImageURL != "",
		ImageURL:  req.ImageURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to save user message: %v", err)
	}

	reply := s.reply(ctx, Prompt{Text: req.Message, ImageURL: req.ImageURL})

	assistant := MessageRecord{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Role:            string(model.RoleAssistant),
		Message:         reply,
		ReferencesImage: req.ImageURL,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&assistant).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to save assistant message: %v", err)
	}

	s.logger.Info("chat reply", "session_id", sessionID, "has_image", user.HasImage, "reply_len", len(reply))
	return assistant.ToModel(), nil
}

// reply picks the canned project-setup answer, the responder, or the
// fallback component when the responder fails.
func (s *ChatService) reply(ctx context.Context, p Prompt) string {
	if IsBoilerplateRequest(p.Text) {
		return BoilerplateReply
	}
	out, err := s.responder.Reply(ctx, p)
	if err != nil {
		s.logger.Warn("responder failed, using fallback reply", "error", err)
		return FallbackReply
	}
	return out
}

func (s *ChatService) NewMessage(r *http.Request) (any, error) {
	sessionID, err := urlParam(r, "session_id")
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxMessageBytes+1))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read request body")
	}
	if len(body) > MaxMessageBytes {
		return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "Message is too large")
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "No message provided")
	}

	rec := MessageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      string(model.RoleUser),
		Message:   string(body),
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(r.Context()).Create(&rec).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to save message: %v", err)
	}
	return s.sessionMessages(r.Context(), sessionID)
}

func (s *ChatService) GetMessages(r *http.Request) (any, error) {
	sessionID, err := urlParam(r, "session_id")
	if err != nil {
		return nil, err
	}
	return s.sessionMessages(r.Context(), sessionID)
}

func (s *ChatService) sessionMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	var records []MessageRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc, seq asc").
		Find(&records).Error
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to load messages: %v", err)
	}
	return toModels(records), nil
}

func (s *ChatService) DeleteSession(r *http.Request) (any, error) {
	sessionID, err := urlParam(r, "session_id")
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(r.Context()).Where("session_id = ?", sessionID).Delete(&MessageRecord{})
	if res.Error != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to delete session: %v", res.Error)
	}
	s.logger.Info("session deleted", "session_id", sessionID, "messages", res.RowsAffected)
	return map[string]string{"message": "Your session has been deleted!"}, nil
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	PublicID string `json:"public_id"`
	Filename string `json:"filename"`
}

func (s *ChatService) UploadImage(r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "Image file is too large")
		}
		return nil, CodedErrorf(http.StatusBadRequest, "No image file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read image: %v", err)
	}
	if len(data) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "Image file is empty")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, CodedErrorf(http.StatusBadRequest, "Please select an image file")
	}

	key := ImageKey(header.Filename, contentType)
	if err := s.images.Put(r.Context(), key, contentType, data); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Upload failed: %v", err)
	}

	return uploadResponse{
		Success:  true,
		ImageURL: s.images.URL(s.origin(r), key),
		PublicID: key,
		Filename: header.Filename,
	}, nil
}

// origin is the base URL clients reach this server on.
func (s *ChatService) origin(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

type addSnippetRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

func (s *ChatService) AddSnippet(r *http.Request) (any, error) {
	req, err := ParseRequest[addSnippetRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "No snippet text provided")
	}
	snippet := Snippet{Text: req.Text, Tags: strings.Join(req.Tags, ",")}
	if err := s.db.WithContext(r.Context()).Create(&snippet).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to save snippet: %v", err)
	}
	return map[string]string{"status": "added"}, nil
}

// =============================================================================
// ROUTER AND LIFECYCLE
// =============================================================================

// NewRouter builds the middleware stack around the service routes.
func NewRouter(svc *ChatService, cfg config.ServerConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware)
	r.Use(middleware.Timeout(3 * time.Minute))

	svc.AddRoutes(r)
	return r
}

// Run opens the database and image store from cfg and serves until ctx is
// canceled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) error {
	db, err := OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	images, err := NewImageStore(ctx, cfg.Images)
	if err != nil {
		return fmt.Errorf("image store: %w", err)
	}

	responder := NewResponder(cfg.OpenAI)
	svc := NewChatService(db, images, responder,
		WithLogger(logger),
		WithPublicURL(cfg.Images.PublicURL),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat API server listening", "addr", cfg.Addr,
			"images", cfg.Images.Backend, "responder", fmt.Sprintf("%T", responder))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
