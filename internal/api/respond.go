// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/models"
	"github.com/flybywiresim/api/internal/telex"
	"github.com/flybywiresim/api/internal/validation"
)

const maxBodySize = 1 << 20 // 1 MiB

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("failed to encode response")
	}
}

// respondRaw writes pre-encoded JSON, used for cached responses.
func respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Err(err).Msg("failed to write response")
	}
}

// respondError translates a service error into the wire error shape.
// Unknown errors become opaque 500s; the detail only goes to the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *telex.Error
	if errors.As(err, &svcErr) {
		respondJSON(w, svcErr.Status, models.HTTPError{
			StatusCode: svcErr.Status,
			Message:    svcErr.Message,
		})
		return
	}

	var valErr *validation.RequestValidationError
	if errors.As(err, &valErr) {
		respondJSON(w, http.StatusBadRequest, models.HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    valErr.Error(),
		})
		return
	}

	logging.Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondJSON(w, http.StatusInternalServerError, models.HTTPError{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal server error",
	})
}

// respondBadRequest writes a 400 with the given message.
func respondBadRequest(w http.ResponseWriter, format string, args ...interface{}) {
	respondJSON(w, http.StatusBadRequest, models.HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, args...),
	})
}

// decodeAndValidate parses the request body into v and runs struct
// validation. It writes the error response itself and reports whether
// the caller may proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondBadRequest(w, "invalid request body")
		return false
	}
	if err := validation.ValidateStruct(v); err != nil {
		respondError(w, r, err)
		return false
	}
	return true
}
