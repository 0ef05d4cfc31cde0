package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// UserHeader carries the caller identity set by the upstream gateway
const UserHeader = "X-User-ID"

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// errorBody is the JSON error envelope
type errorBody struct {
	Error  string      `json:"error"`
	Code   string      `json:"code,omitempty"`
	Detail interface{} `json:"detail,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

func respondCode(w http.ResponseWriter, status int, code, message string, detail interface{}) {
	respondJSON(w, status, errorBody{Error: message, Code: code, Detail: detail})
}

// decodeJSON reads a single JSON value from the body, rejecting unknown fields
func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
