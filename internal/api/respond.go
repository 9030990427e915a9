package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/importer"
	"github.com/mentha-app/mentha/internal/ofx"
)

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		notFound  *domain.NotFoundError
		integrity *domain.DataIntegrityError
		invalid   *domain.ValidationError
		format    *ofx.FormatError
		imported  *importer.Error
	)
	switch {
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &integrity), errors.As(err, &invalid),
		errors.As(err, &format), errors.As(err, &imported):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
