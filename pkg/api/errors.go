package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any 401 response. Callers react by forcing the
	// user back through login.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrRequestFailed matches every other non-2xx response.
	ErrRequestFailed = errors.New("api: request failed")
	// ErrNoToken is returned when a login response carries no access token.
	ErrNoToken = errors.New("api: login response has no access_token")
)

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api: %s %s: %s", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is lets errors.Is match the sentinel for the status class.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrRequestFailed:
		return e.Code != http.StatusUnauthorized
	}
	return false
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

const maxErrorBody = 4 << 10

func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL.Path,
		Code:   resp.StatusCode,
		Status: resp.Status,
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	se.Message = errorMessage(body)
	return se
}

// errorMessage pulls a human readable reason out of common error bodies:
// {"detail": "..."}, {"error": "..."} or {"message": "..."}.
func errorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return s
			}
			return string(raw)
		}
	}
	return strings.TrimSpace(string(body))
}
