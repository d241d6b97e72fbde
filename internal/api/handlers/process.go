package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/listarr/internal/controllers"
	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
)

// defaultUserID scopes API-triggered runs until the excluded auth layer
// supplies a real caller identity.
const defaultUserID uint64 = 1

// ProcessHandler triggers manual processing runs
type ProcessHandler struct {
	processor *controllers.Processor
	logger    *logrus.Logger
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(processor *controllers.Processor, logger *logrus.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		logger:    logger,
	}
}

// ProcessList handles POST /api/process/lists/{id}
func (h *ProcessHandler) ProcessList(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid list id", http.StatusBadRequest)
		return
	}

	exec, err := h.processor.ProcessList(r.Context(), listID, models.TriggerManual, defaultUserID)
	if err != nil {
		h.writeProcessError(w, err, exec)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(exec)
}

// ProcessBatch handles POST /api/process
func (h *ProcessHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.processor.ProcessBatch(r.Context(), models.TriggerManual, defaultUserID)
	if err != nil {
		h.writeProcessError(w, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// writeProcessError maps pipeline errors to HTTP statuses. The execution,
// when one was created, is included so the caller sees the audit record.
func (h *ProcessHandler) writeProcessError(w http.ResponseWriter, err error, exec *models.ProcessingExecution) {
	h.logger.WithError(err).Warn("Manual processing failed")

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, controllers.ErrListNotFound):
		status = http.StatusNotFound
	case errors.Is(err, controllers.ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, controllers.ErrProviderNotConfigured),
		errors.Is(err, controllers.ErrDownstreamNotConfigured):
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":     err.Error(),
		"execution": exec,
	})
}
