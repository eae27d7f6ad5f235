// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the quizbank JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quizbank/internal/qbank"
)

// errorBody is the JSON shape of every error response. Key carries the
// message key of policy failures.
type errorBody struct {
	Error string `json:"error"`
	Key   string `json:"key,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// policyStatus maps a policy failure kind to its HTTP status.
func policyStatus(kind error) int {
	switch {
	case errors.Is(kind, qbank.ErrTopCategoryProtected), errors.Is(kind, qbank.ErrOnlyChildProtected):
		return http.StatusConflict
	case errors.Is(kind, qbank.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(kind, qbank.ErrCategoryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers policy failures with their status and message
// key. Anything else is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var pe *qbank.PolicyError
	if errors.As(err, &pe) {
		writeJSON(w, policyStatus(pe.Kind), errorBody{Error: pe.Error(), Key: pe.MessageKey})
		return
	}
	slog.Error(op+" failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
