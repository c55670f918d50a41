package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/messaging"
	"dues-ledger/internal/models"
	"dues-ledger/internal/services"
)

func listStatusesHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, models.AllStatuses)
}

// respondWithServiceError maps service errors onto status codes. Integrity
// failures are reported separately from ordinary server errors.
func respondWithServiceError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var validationErr *services.ValidationError
	var integrityErr *services.IntegrityError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, services.ErrNoValidRows),
		errors.Is(err, services.ErrPurgeNotConfirmed),
		errors.Is(err, messaging.ErrNoContact),
		errors.Is(err, messaging.ErrUnknownChannel):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConsumerNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &integrityErr):
		log.WithError(err).WithField("stage", integrityErr.Stage).Error("Store integrity check failed")
		respondWithError(w, http.StatusInternalServerError, "integrity error: "+integrityErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		log.WithError(err).Error("Request failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
