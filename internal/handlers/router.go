package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"dues-ledger/internal/config"
	"dues-ledger/internal/repositories"
	"dues-ledger/internal/services"
)

const requestIDHeader = "X-Request-ID"

func SetupRouter(db *sql.DB, cfg *config.Config, log *logrus.Logger) *mux.Router {
	consumerRepo := repositories.NewConsumerRepository()
	historyRepo := repositories.NewHistoryRepository()
	settingsRepo := repositories.NewSettingsRepository()

	ledgerService := services.NewLedgerService(db, consumerRepo, log)
	journalService := services.NewJournalService(db, historyRepo, log)
	settingsService := services.NewSettingsService(db, settingsRepo, log)

	ledgerHandler := NewLedgerHandler(
		ledgerService,
		services.NewQueryService(ledgerService, journalService, settingsService, cfg.Location()),
		services.NewFollowUpService(db, consumerRepo, historyRepo, log),
		settingsService,
		log,
	)
	dataHandler := NewDataHandler(
		services.NewImportService(ledgerService, log),
		services.NewBackupService(db, historyRepo, settingsRepo, log),
		settingsService,
		cfg.Import,
		log,
	)

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Use(loggingMiddleware(log))
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/statuses", listStatusesHandler).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", ledgerHandler.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/consumers", ledgerHandler.ListConsumers).Methods(http.MethodGet)
	api.HandleFunc("/consumers/{consumer_no}", ledgerHandler.GetConsumer).Methods(http.MethodGet)
	api.HandleFunc("/consumers/{consumer_no}/follow-ups", ledgerHandler.RecordFollowUp).Methods(http.MethodPost)
	api.HandleFunc("/consumers/{consumer_no}/messages/{channel}", ledgerHandler.ComposeMessage).Methods(http.MethodGet)
	api.HandleFunc("/cycles/purge", ledgerHandler.PurgeCycle).Methods(http.MethodPost)

	api.HandleFunc("/imports", dataHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/backup", dataHandler.Backup).Methods(http.MethodGet)
	api.HandleFunc("/restore", dataHandler.Restore).Methods(http.MethodPost)
	api.HandleFunc("/settings", dataHandler.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", dataHandler.PutSettings).Methods(http.MethodPut)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).String(),
			}).Info("Request handled")
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
