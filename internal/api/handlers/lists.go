package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

// SchedulerReloader lets list changes refresh the timers without this
// package depending on the scheduler
type SchedulerReloader interface {
	LoadScheduledLists() error
	UnscheduleList(listID uint64)
}

// ListsHandler provides minimal list management so the daemon is operable
// without the web dashboard
type ListsHandler struct {
	db       *models.Database
	reloader SchedulerReloader
	logger   *logrus.Logger
}

// NewListsHandler creates a new lists handler
func NewListsHandler(db *models.Database, reloader SchedulerReloader, logger *logrus.Logger) *ListsHandler {
	return &ListsHandler{
		db:       db,
		reloader: reloader,
		logger:   logger,
	}
}

// List handles GET /api/lists
func (h *ListsHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.db.GetAllLists()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get lists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lists)
}

// createListRequest is the POST /api/lists payload
type createListRequest struct {
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	SourceURL  string `json:"source_url"`
	DisplayURL string `json:"display_url"`
	Enabled    *bool  `json:"enabled"`
	MaxItems   int    `json:"max_items"`
	Schedule   string `json:"schedule"`
}

// Create handles POST /api/lists
func (h *ListsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.SourceURL == "" {
		http.Error(w, "name and source_url are required", http.StatusBadRequest)
		return
	}

	provider := models.ProviderKind(req.Provider)
	switch provider {
	case models.ProviderMDBList, models.ProviderTrakt, models.ProviderIMDB:
	default:
		http.Error(w, "Unknown provider", http.StatusBadRequest)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.MaxItems == 0 {
		req.MaxItems = 20
	}

	list := &models.MediaList{
		Name:       req.Name,
		Provider:   provider,
		SourceURL:  req.SourceURL,
		DisplayURL: req.DisplayURL,
		Enabled:    enabled,
		MaxItems:   req.MaxItems,
		Schedule:   req.Schedule,
		UserID:     defaultUserID,
	}

	if err := h.db.CreateList(list); err != nil {
		h.logger.WithError(err).Error("Failed to create list")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.reloader.LoadScheduledLists(); err != nil {
		h.logger.WithError(err).Error("Failed to reload schedules after list create")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(list)
}

// Delete handles DELETE /api/lists/{id}
func (h *ListsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid list id", http.StatusBadRequest)
		return
	}

	if _, err := h.db.GetListByID(listID, defaultUserID); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			http.Error(w, "List not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to resolve list")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.db.DeleteList(listID); err != nil {
		h.logger.WithError(err).Error("Failed to delete list")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.reloader.UnscheduleList(listID)

	w.WriteHeader(http.StatusNoContent)
}
