package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the error type to a status code. Store failures
// are logged and reported without their details.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
			return
		case apperrors.ErrorTypeExternal:
			observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("upstream request failed")
			respondWithError(w, http.StatusBadGateway, "upstream service unavailable")
			return
		}
	}

	observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
