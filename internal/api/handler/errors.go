package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/squidgame/internal/api/apierr"
)

// maxJSONBody bounds a JSON request. A join carries its photo base64
// encoded, so a full-size photo must fit.
const maxJSONBody = 8 << 20

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody reads the JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
