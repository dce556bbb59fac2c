// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/config"
	"github.com/jeranaias/chatdeck/internal/session"
	"github.com/jeranaias/chatdeck/internal/storage"
	"github.com/jeranaias/chatdeck/internal/transport"
)

// =============================================================================
// SHARED RUNTIME
// =============================================================================

// App is what every command needs: configuration, logger, API client and
// the active session.
type App struct {
	Config  *config.Config
	Log     *slog.Logger
	Client  *transport.Client
	Store   session.Store
	Session *session.Context

	Out io.Writer
	Err io.Writer

	closers []io.Closer
}

// loadConfig applies --env, --config and the flag overrides.
func loadConfig() (*config.Config, error) {
	if flagEnvFile != "" {
		if err := config.LoadEnvFile(flagEnvFile); err != nil {
			return nil, err
		}
	} else if err := config.LoadDefaultEnvFile(); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.LoadFromPath(flagConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagEphemeral {
		cfg.Session.Backend = session.BackendMemory
		cfg.Session.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// newApp builds the runtime for cmd.
func newApp(cmd *cobra.Command, mode logMode) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := newLogger(mode, cfg.Log.Level, cfg.Log.File, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &App{
		Config: cfg,
		Log:    logger,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
	}
	if logCloser != nil {
		a.closers = append(a.closers, logCloser)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		a.Close()
		return nil, err
	}
	store, err := session.Open(cfg.Session.Backend, dir, cfg.Session.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if c, ok := store.(session.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.Store = store
	a.Session = session.NewContext(store)
	if _, err := a.Session.Load(cmd.Context()); err != nil {
		a.Close()
		return nil, fmt.Errorf("read session: %w", err)
	}

	a.Client = transport.NewClient(transport.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
		Logger:  logger,
	})

	logger.Debug("runtime ready",
		"api_url", a.Client.BaseURL(),
		"session_backend", cfg.Session.Backend,
		"session_id", a.Session.ID())
	return a, nil
}

// Close releases the log file and session store.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.Log != nil {
			a.Log.Debug("close failed", "error", err)
		}
	}
	a.closers = nil
}

// Composer wires a composer and upload flow sharing one attachment.
func (a *App) Composer(notify composer.Notifier) (*composer.Composer, *attach.Flow) {
	att := &attach.Attachment{}
	c := composer.New(a.Client, a.Session, att, notify, composer.WithLogger(a.Log))
	return c, attach.NewFlow(a.Client, att, notify, a.Log)
}

// Transcripts opens the local transcript cache.
func (a *App) Transcripts() (*storage.TranscriptStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return storage.NewTranscriptStore(filepath.Join(dir, "transcripts"))
}

// Watch starts reloading the session when another process rewrites the
// session file. It is a no-op for other backends.
func (a *App) Watch() {
	if !a.Config.Session.Watch {
		return
	}
	fs, ok := a.Store.(*session.FileStore)
	if !ok {
		return
	}
	w, err := session.NewWatcher(a.Session, fs, 0)
	if err != nil {
		a.Log.Warn("session watcher unavailable", "error", err)
		return
	}
	a.closers = append(a.closers, w)
}

// fetchTranscript loads the messages of sessionID from the server and
// caches them. When the server cannot be reached the cached copy is used.
func (a *App) fetchTranscript(ctx context.Context, sessionID string) (*storage.Transcript, bool, error) {
	store, err := a.Transcripts()
	if err != nil {
		return nil, false, err
	}

	msgs, err := a.Client.FetchSessionMessages(ctx, sessionID)
	if err != nil {
		cached, cerr := store.Load(sessionID)
		if cerr != nil {
			return nil, false, err
		}
		a.Log.Warn("using cached transcript", "session_id", sessionID, "error", err)
		return cached, true, nil
	}

	t := storage.NewTranscript(sessionID, msgs)
	if err := store.Save(t); err != nil {
		a.Log.Warn("failed to cache transcript", "session_id", sessionID, "error", err)
	}
	return t, false, nil
}
