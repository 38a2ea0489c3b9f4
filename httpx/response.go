package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error envelope used on every non-2xx JSON response:
// a short machine-readable code plus optional structured details (a
// validation.Violations map, typically). Human-readable wording is the
// client's job; the server only ships codes.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload as a JSON response with the given status.
// The payload is marshalled before the header goes out, so an encode
// failure still produces a well-formed 500 instead of truncated JSON.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// Client went away mid-response; nothing left to do.
		_ = err
	}
}

// JSONError writes the standard error envelope.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}
