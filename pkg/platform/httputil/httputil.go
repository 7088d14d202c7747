// Package httputil centralizes the JSON response envelope. Every endpoint
// responds through these writers so the {success, data|error} contract stays
// uniform across handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "persreg/pkg/domain-errors"
)

// Pagination is the list-response paging block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    string      `json:"details,omitempty"`
	Path       string      `json:"path,omitempty"`
	Method     string      `json:"method,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData responds with {success:true, data}.
func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// WriteList responds with {success:true, data, pagination}.
func WriteList(w http.ResponseWriter, data any, p Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

// WriteMessage responds with {success:true, message} for actions that
// produce no record payload (delete, restore).
func WriteMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// WriteError maps a domain error to its HTTP status and failure envelope.
// Internal errors surface a generic message; the cause stays in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	msg := "Internal server error"

	var domErr *dErrors.Error
	if errors.As(err, &domErr) {
		code = domErr.Code
		if code != dErrors.CodeInternal {
			msg = domErr.Message
		}
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), envelope{Success: false, Error: msg})
}

// WriteRouteNotFound is the fallback for unmatched routes, keeping the
// path/method echo the API has always had.
func WriteRouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		Success: false,
		Error:   "Not found",
		Path:    r.URL.Path,
		Method:  r.Method,
	})
}
