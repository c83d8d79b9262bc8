package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v wrapped in the {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// DecodeJSON strictly decodes a single JSON object from the request body.
// Bodies larger than maxBytes, unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return BadRequest("INVALID_BODY", "request body is required", nil, nil)
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		switch {
		case errors.As(err, &maxErr):
			return NewAppError("BODY_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, err)
		case errors.As(err, &syntaxErr):
			return BadRequest("INVALID_BODY", "malformed JSON", err, map[string]any{"offset": syntaxErr.Offset})
		case errors.Is(err, io.EOF):
			return BadRequest("INVALID_BODY", "request body is required", err, nil)
		default:
			return BadRequest("INVALID_BODY", fmt.Sprintf("invalid request body: %v", err), err, nil)
		}
	}
	if dec.More() {
		return BadRequest("INVALID_BODY", "request body must contain a single JSON object", nil, nil)
	}
	return nil
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are not
// read here; chi's RealIP middleware rewrites RemoteAddr at the edge.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
