// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// CODED ERRORS
// =============================================================================

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

// CodedError attaches an HTTP status to err.
func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

// CodedErrorf is CodedError with fmt.Errorf formatting.
func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	return http.StatusInternalServerError
}

// errorBody is the JSON shape clients read the message from.
type errorBody struct {
	Error string `json:"error"`
}

// =============================================================================
// HANDLER ADAPTERS
// =============================================================================

// ParseRequest decodes a JSON request body into T.
func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Debug("error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "Invalid JSON: %v", err)
	}
	return data, nil
}

// RestHandler adapts handler into an http.HandlerFunc that answers 200.
func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return RestHandlerStatus(http.StatusOK, handler)
}

// RestHandlerStatus adapts handler into an http.HandlerFunc answering with
// status on success. Errors become {"error": "..."} with the coded status.
func RestHandlerStatus(status int, handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code := StatusOf(err)
			if code >= http.StatusInternalServerError {
				slog.Error("internal server error received in endpoint", "path", r.URL.Path, "error", err)
			}
			WriteJSONResponse(w, code, errorBody{Error: err.Error()})
			return
		}

		if res == nil {
			res = struct{}{}
		}
		WriteJSONResponse(w, status, res)
	}
}

// WriteJSONResponse encodes data with the given status.
func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error serializing response body", "error", err)
	}
}

// urlParam returns a required path parameter.
func urlParam(r *http.Request, key string) (string, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return "", CodedErrorf(http.StatusBadRequest, "missing {%v} url parameter", key)
	}
	return param, nil
}
