// Package shared holds the response helpers every handler uses, keeping the
// wire shape of errors identical across domains.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "utsav/pkg/domain-errors"
)

// ErrorResponse is the JSON error body. Code is machine-readable; Message is
// safe to show to end users.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// WriteError maps a coded error onto its HTTP status and writes the JSON
// body. Uncoded errors become 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	msg := dErrors.MessageOf(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: string(code), Message: msg})
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
