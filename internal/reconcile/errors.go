// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package reconcile implements the action state machine that mirrors
// remote event lifecycles into the local content store: upserts keyed
// on the remote event ID, plural deletes, private-event removal, and
// the capability gates around all of it.
package reconcile

import "net/http"

// Code is a stable machine-readable error classification, carried
// through the API response envelope unchanged.
type Code string

const (
	CodeMalformedPayload   Code = "MALFORMED_PAYLOAD"
	CodeInvalidMethod      Code = "INVALID_METHOD"
	CodeInvalidAction      Code = "INVALID_ACTION"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUpstreamValidation Code = "UPSTREAM_VALIDATION_ERROR"
)

// Error is a structured reconcile failure. Status is the HTTP status
// the gateway renders; permission and upstream-validation failures
// answer 401 to match what the remote platform expects.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError creates an Error with the canonical HTTP status for its code.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  statusFor(code),
	}
}

func statusFor(code Code) int {
	switch code {
	case CodeForbidden, CodeUpstreamValidation:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
