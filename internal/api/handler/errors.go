package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mcoot/quizarena/internal/api/apierr"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
