package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"dues-ledger/internal/messaging"
	"dues-ledger/internal/services"
)

type LedgerHandler struct {
	ledgerService   *services.LedgerService
	queryService    *services.QueryService
	followUpService *services.FollowUpService
	settingsService *services.SettingsService
	log             *logrus.Logger
}

func NewLedgerHandler(
	ledgerService *services.LedgerService,
	queryService *services.QueryService,
	followUpService *services.FollowUpService,
	settingsService *services.SettingsService,
	log *logrus.Logger,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:   ledgerService,
		queryService:    queryService,
		followUpService: followUpService,
		settingsService: settingsService,
		log:             log,
	}
}

func (h *LedgerHandler) ListConsumers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	consumers, err := h.queryService.ListConsumers(r.Context(), services.ConsumerQuery{
		Filter: query.Get("filter"),
		Search: query.Get("q"),
		Sort:   query.Get("sort"),
	})
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, consumers)
}

func (h *LedgerHandler) GetConsumer(w http.ResponseWriter, r *http.Request) {
	consumerNo := mux.Vars(r)["consumer_no"]

	detail, err := h.queryService.ConsumerDetail(r.Context(), consumerNo)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

func (h *LedgerHandler) RecordFollowUp(w http.ResponseWriter, r *http.Request) {
	var input services.FollowUpInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	input.ConsumerNo = mux.Vars(r)["consumer_no"]

	result, err := h.followUpService.Record(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ComposeMessage fills the saved template for the consumer and returns the
// link that opens it on the device.
func (h *LedgerHandler) ComposeMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	consumer, err := h.ledgerService.Get(r.Context(), vars["consumer_no"])
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	if consumer == nil {
		respondWithServiceError(w, h.log, services.ErrConsumerNotFound)
		return
	}

	message, err := messaging.Build(vars["channel"], h.settingsService.Get(r.Context()), consumer)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, message)
}

func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queryService.Dashboard(r.Context())
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

type PurgeRequest struct {
	Confirm bool `json:"confirm"`
}

// PurgeCycle removes every consumer ahead of a new collection cycle. The
// request must carry an explicit confirmation.
func (h *LedgerHandler) PurgeCycle(w http.ResponseWriter, r *http.Request) {
	var req PurgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !req.Confirm {
		respondWithServiceError(w, h.log, services.ErrPurgeNotConfirmed)
		return
	}

	if err := h.ledgerService.Purge(r.Context()); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Consumer list cleared, history kept"})
}
