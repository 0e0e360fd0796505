// Package respond writes the uniform JSON envelopes used by every handler.
//
// Success:
//
//	{ "statusCode": 200, "data": …, "message": "…", "success": true }
//
// Failure:
//
//	{ "statusCode": 403, "message": "…", "success": false, "errors": […] }
//
// Both gates and business handlers use the same envelope, so clients handle
// failures identically regardless of which layer raised them.
package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the JSON body shape for every response.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// JSON writes a success envelope with the given status, payload, and message.
func JSON(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// Error writes a failure envelope. The optional errs list carries
// field-level validation details.
func Error(w http.ResponseWriter, status int, message string, errs ...string) {
	write(w, status, Envelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
