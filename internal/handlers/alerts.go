package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"assetwatch/internal/alerts"
	"assetwatch/internal/models"
	"assetwatch/internal/storage"
)

// AlertsHandler exposes the alert lifecycle transitions over HTTP.
// Authentication and ownership checks live outside the core.
type AlertsHandler struct {
	manager *alerts.Manager
}

// NewAlertsHandler creates a new alerts handler
func NewAlertsHandler(manager *alerts.Manager) *AlertsHandler {
	return &AlertsHandler{manager: manager}
}

// AcknowledgeRequest is the bulk-acknowledge payload
type AcknowledgeRequest struct {
	IDs []string `json:"ids"`
}

// Acknowledge handles POST /alerts/acknowledge
func (h *AlertsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no alert ids provided")
		return
	}

	count, err := h.manager.Acknowledge(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"acknowledged": count,
	})
}

// ResolveRequest is the resolve payload
type ResolveRequest struct {
	ID         string `json:"id"`
	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes,omitempty"`
	Close      bool   `json:"close,omitempty"`
}

// Resolve handles POST /alerts/resolve
func (h *AlertsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "alert id is required")
		return
	}

	alert, err := h.manager.Resolve(r.Context(), req.ID, req.ResolvedBy, req.Notes, req.Close)
	if err != nil {
		var transitionErr *models.InvalidTransitionError
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "alert not found")
		case errors.As(err, &transitionErr):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alert)
}
