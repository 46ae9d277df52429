// Package shared centralizes domain error translation to HTTP responses so
// every handler produces the same JSON error envelope.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "gavel/pkg/domain-errors"
)

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a coded domain error to its HTTP status and envelope.
// Uncoded errors become opaque 500s; internals never leak into responses.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
	})
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
