package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/config"
	"dues-ledger/internal/models"
	"dues-ledger/internal/services"
)

const maxRestoreBytes = 32 << 20

type DataHandler struct {
	importService   *services.ImportService
	backupService   *services.BackupService
	settingsService *services.SettingsService
	importCfg       config.ImportConfig
	log             *logrus.Logger
}

func NewDataHandler(
	importService *services.ImportService,
	backupService *services.BackupService,
	settingsService *services.SettingsService,
	importCfg config.ImportConfig,
	log *logrus.Logger,
) *DataHandler {
	return &DataHandler{
		importService:   importService,
		backupService:   backupService,
		settingsService: settingsService,
		importCfg:       importCfg,
		log:             log,
	}
}

// Import accepts a multipart upload in the "file" field.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.importCfg.MaxUploadMB << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ctx := r.Context()
	if h.importCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.importCfg.Timeout)
		defer cancel()
	}

	result, err := h.importService.Import(ctx, header.Filename, file)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Message: fmt.Sprintf("Imported %d consumers", result.RecordsCount),
		Data:    result,
	})
}

func (h *DataHandler) Backup(w http.ResponseWriter, r *http.Request) {
	data, err := h.backupService.ExportJSON(r.Context())
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	filename := fmt.Sprintf("mra-backup-%s.json", time.Now().Format(models.DateLayout))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Restore takes the backup document as the raw request body.
func (h *DataHandler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRestoreBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read backup")
		return
	}

	result, err := h.backupService.Restore(r.Context(), data)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Backup restored", Data: result})
}

func (h *DataHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.settingsService.Get(r.Context()))
}

func (h *DataHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.settingsService.Set(r.Context(), settings); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}
