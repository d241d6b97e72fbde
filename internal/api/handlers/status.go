package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports cache and execution state
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Lists            int            `json:"lists"`
	EnabledLists     int            `json:"enabled_lists"`
	CachedItems      int            `json:"cached_items"`
	RecentExecutions int            `json:"recent_executions"`
	ByStatus         map[string]int `json:"executions_by_status"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lists, err := h.db.GetAllLists()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get lists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	cached, err := h.db.CountCached()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count cache")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	execs, err := h.db.GetRecentExecutions(50)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get executions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		Lists:            len(lists),
		CachedItems:      cached,
		RecentExecutions: len(execs),
		ByStatus:         make(map[string]int),
	}

	for _, list := range lists {
		if list.Enabled {
			response.EnabledLists++
		}
	}
	for _, exec := range execs {
		response.ByStatus[string(exec.Status)]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ExecutionsHandler serves recent execution records
type ExecutionsHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewExecutionsHandler creates a new executions handler
func NewExecutionsHandler(db *models.Database, logger *logrus.Logger) *ExecutionsHandler {
	return &ExecutionsHandler{
		db:     db,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/executions
func (h *ExecutionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	execs, err := h.db.GetRecentExecutions(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get executions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(execs)
}
