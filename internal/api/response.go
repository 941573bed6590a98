// internal/api/response.go
package api

import (
	"encoding/json"
	"net/http"
)

// Fields is a flat JSON envelope. Every response carries "success" next to
// the route's own keys, e.g. {"success":true,"databases":[...]}.
type Fields map[string]any

// Response is the envelope for failures.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes fields with success=true and status 200.
func WriteSuccess(w http.ResponseWriter, fields Fields) {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["success"] = true
	WriteJSON(w, http.StatusOK, out)
}

// WriteFailure reports an operation that ran but did not succeed, such as
// a MySQL error. The status stays 200.
func WriteFailure(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusOK, message)
}

// WriteError writes an error JSON response with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Success: false, Error: message})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteMethodNotAllowed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusMethodNotAllowed, message)
}
