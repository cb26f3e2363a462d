// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every response body. Kind classifies a failure for clients
// that branch on it (for example "limit_exceeded" for a full gallery).
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 envelope around data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope around data.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes a failed envelope tagged with kind.
func Fail(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, Envelope{Error: message, Kind: kind})
}

// Error writes a failed envelope without a kind.
func Error(w http.ResponseWriter, status int, message string) {
	Fail(w, status, "", message)
}

func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, "validation", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, "not_found", message)
}

// Conflict is used when a room's state blocks the request, such as deleting
// a room that still owns photos.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// PayloadTooLarge rejects a multipart batch over the upload ceiling.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	Fail(w, http.StatusRequestEntityTooLarge, "validation", message)
}

// InternalError hides the cause behind a generic message.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}
