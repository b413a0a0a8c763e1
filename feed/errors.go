// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the feed service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int

	// Body is the raw response body.
	Body string

	// Details holds the service's structured error list when the body
	// carried one.
	Details []ErrorDetail
}

// ErrorDetail is one entry of the service's {"errors": [...]} body.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("feed: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
	}
	messages := make([]string, len(e.Details))
	for i, detail := range e.Details {
		messages[i] = fmt.Sprintf("%s (%d)", detail.Message, detail.Code)
	}
	return fmt.Sprintf("feed: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, strings.Join(messages, "; "))
}

func newAPIError(method, path string, statusCode int, body string) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: statusCode, Body: body}
	var envelope struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if json.Unmarshal([]byte(body), &envelope) == nil {
		apiErr.Details = envelope.Errors
	}
	return apiErr
}
