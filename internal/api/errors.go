package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RejectedError reports an HTTP 4xx/5xx response. Detail carries the
// server's message verbatim so it can be shown to the user.
type RejectedError struct {
	Path       string
	StatusCode int
	Detail     string
	Code       string
	Retryable  bool
}

func (e *RejectedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Detail)
}

// UnreachableError reports that no usable HTTP response was obtained.
type UnreachableError struct {
	Path  string
	Cause error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api %s unreachable: %v", e.Path, e.Cause)
}

func (e *UnreachableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRejected reports whether err wraps a RejectedError.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

// IsUnreachable reports whether err wraps an UnreachableError.
func IsUnreachable(err error) bool {
	var un *UnreachableError
	return errors.As(err, &un)
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status of a rejection, or zero.
func StatusCode(err error) int {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.StatusCode
	}
	return 0
}

// parseDetail extracts a human readable message from an error body. The
// server uses {"detail": "..."}, {"detail": {error object}} or a list of
// validation errors.
func parseDetail(body []byte, statusCode int) (detail, code string, retryable bool) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return text, "", false
		}
		var obj JobError
		if err := json.Unmarshal(envelope.Detail, &obj); err == nil && obj.Message != "" {
			return obj.Message, obj.Code, obj.Retryable
		}
		var list []struct {
			Msg string `json:"msg"`
			Loc []any  `json:"loc"`
		}
		if err := json.Unmarshal(envelope.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; "), "", false
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return http.StatusText(statusCode), "", false
	}
	if len(text) > 300 {
		text = text[:300]
	}
	return text, "", false
}
