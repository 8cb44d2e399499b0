package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/response"
	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON")
		}
	}
}

// maxBodyBytes caps request bodies; ledger requests are small.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T, rejecting unknown fields and trailing data.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is required")
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&v); err != nil {
		return v, err
	}
	if decoder.More() {
		return v, fmt.Errorf("unexpected data after JSON body")
	}
	return v, nil
}

// respondServiceError maps a service error to its HTTP response:
//   - business failures (oversell, unknown security): 200 with a failure payload
//   - validation errors: 400
//   - missing entities: 404
//   - lost concurrent holding updates: 409
//   - everything else: 500 with fallback as the message
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	var verr *validation.Error

	switch {
	case apperrors.IsBusinessFailure(err):
		response.RespondFailure(w, err.Error())
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrHoldingNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrHoldingNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrSecurityNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrSecurityNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidTicker),
		errors.Is(err, apperrors.ErrInvalidTransactionID):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, apperrors.ErrHoldingVersionConflict):
		response.RespondError(w, http.StatusConflict, apperrors.ErrHoldingVersionConflict.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback.Error(), err.Error())
	}
}
