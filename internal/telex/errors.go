// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package telex

import (
	"fmt"
	"net/http"
)

// Error is a service failure with an HTTP status the API layer can
// surface directly. Message is safe to show to clients.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return newError(http.StatusBadRequest, format, args...)
}

func conflict(format string, args ...any) *Error {
	return newError(http.StatusConflict, format, args...)
}

func notFound(format string, args ...any) *Error {
	return newError(http.StatusNotFound, format, args...)
}
