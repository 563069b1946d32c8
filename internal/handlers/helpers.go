package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/loquor/internal/common"
)

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps a service error to an HTTP status and writes it.
// Client mistakes surface as 4xx; provider failures as 502 so callers can
// tell them from bugs in this service.
func WriteServiceError(w http.ResponseWriter, err error) error {
	var embErr *common.EmbeddingError
	var genErr *common.GenerationError

	switch {
	case errors.Is(err, common.ErrNoDocument),
		errors.Is(err, common.ErrEmptyDocument),
		errors.Is(err, common.ErrUnsupportedFormat):
		return WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrSessionNotFound):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &embErr), errors.As(err, &genErr):
		return WriteError(w, http.StatusBadGateway, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
