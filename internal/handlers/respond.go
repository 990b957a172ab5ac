package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/darahtanyoe/mitra-dashboard/internal/dashboard"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handlers] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeActionError maps a list-view action failure onto the JSON error
// vocabulary the page scripts understand.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrRowBusy):
		writeError(w, http.StatusConflict, "row_busy")
	case errors.Is(err, dashboard.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "row_not_found")
	case errors.Is(err, workflow.ErrTransitionNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, "transition_not_allowed")
	case errors.Is(err, upstream.ErrCodeRejected):
		writeError(w, http.StatusUnprocessableEntity, "code_rejected")
	case errors.Is(err, upstream.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session_expired")
	default:
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			log.Printf("[handlers] upstream rejected action: %v", err)
			writeError(w, http.StatusBadGateway, "upstream_error")
			return
		}
		log.Printf("[handlers] action failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
