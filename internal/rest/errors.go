// SPDX-License-Identifier: MPL-2.0

package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a 4xx/5xx response from the API. The action layer never
// handles these itself; they propagate unchanged to the CLI front-end for
// top-level reporting.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	// Detail is the server's error message when the body carried one,
	// otherwise the raw (truncated) body.
	Detail string
}

// Error formats the failure with enough context to act on.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
}

// IsNotFound reports whether the error is an HTTP 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

const maxDetailBytes = 2048

func newAPIError(req *http.Request, status int, body []byte) *APIError {
	detail := strings.TrimSpace(string(body))

	// Most API errors come back as {"detail": "..."} or as a field->messages
	// validation map; surface the detail field when present.
	var decoded map[string]any
	if json.Unmarshal(body, &decoded) == nil {
		if d, ok := decoded["detail"].(string); ok {
			detail = d
		}
	}
	if len(detail) > maxDetailBytes {
		detail = detail[:maxDetailBytes] + "…"
	}
	return &APIError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: status,
		Detail:     detail,
	}
}
