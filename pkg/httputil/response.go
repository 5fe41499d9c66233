// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and request parsing.
//
// Error responses carry a single "detail" field:
//
//	{"detail": "Not found."}
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/epicevents/crm/pkg/crm"
)

// DetailResponse is the standard error payload.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes a JSON detail response with the given status code
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(DetailResponse{Detail: detail})
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteAccepted writes a successful update response (202 Accepted) with JSON data
func WriteAccepted(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusAccepted, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusBadRequest, detail)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusUnauthorized, detail)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusForbidden, detail)
}

// WriteNotFound writes a not found error (404). The detail is always
// "Not found." so responses do not leak which records exist.
func WriteNotFound(w http.ResponseWriter) {
	WriteDetail(w, http.StatusNotFound, crm.DetailNotFound)
}

// WriteInternalError writes an internal server error response (500)
func WriteInternalError(w http.ResponseWriter) {
	WriteDetail(w, http.StatusInternalServerError, "internal server error")
}

// WriteServiceUnavailable writes a service unavailable error (503)
func WriteServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusServiceUnavailable, detail)
}

// WriteDomainError maps a domain error to its HTTP representation:
// validation errors to 400, permission and state-lock errors to 403,
// missing records to 404, anything else to 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var validationErr *crm.ValidationError
	if errors.As(err, &validationErr) {
		WriteBadRequest(w, validationErr.Detail)
		return
	}
	var lockedErr *crm.StateLockedError
	if errors.As(err, &lockedErr) {
		WriteForbidden(w, lockedErr.Detail)
		return
	}
	var permissionErr *crm.PermissionError
	if errors.As(err, &permissionErr) {
		WriteForbidden(w, permissionErr.Detail)
		return
	}
	var notFoundErr *crm.NotFoundError
	if errors.As(err, &notFoundErr) {
		WriteNotFound(w)
		return
	}
	WriteInternalError(w)
}
