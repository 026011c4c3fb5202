package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// OAuth2 error codes per RFC 6749.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeServerError          = "server_error"
)

// OAuth2Error is a structured OAuth2 error response per RFC 6749 §5.2. It
// implements the error interface so pipeline code can return it like any
// other error, and it knows how to render itself onto an HTTP response.
type OAuth2Error struct {
	// StatusCode is the HTTP status used when rendering the error.
	StatusCode int `json:"-"`

	// Code is the OAuth2 error code (e.g. "invalid_request").
	Code string `json:"error"`

	// Description is the fixed, human-readable error_description. These
	// strings are part of the wire contract and must not be reworded.
	Description string `json:"error_description,omitempty"`

	// URI is the optional error_uri pointing at human-readable docs.
	URI string `json:"error_uri,omitempty"`
}

// Error implements the error interface.
func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError renders the error as an OAuth2 JSON error response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// NewError builds an OAuth2Error for the given code and description, picking
// the conventional HTTP status for the code.
func NewError(code, description string) *OAuth2Error {
	return &OAuth2Error{
		StatusCode:  statusFor(code),
		Code:        code,
		Description: description,
	}
}

// NewErrorURI is NewError with an error_uri attached.
func NewErrorURI(code, description, uri string) *OAuth2Error {
	e := NewError(code, description)
	e.URI = uri
	return e
}

func statusFor(code string) int {
	switch code {
	case ErrorCodeInvalidClient, ErrorCodeInvalidGrant:
		return http.StatusUnauthorized
	case ErrorCodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
