package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// LivenessHandler обрабатывает GET /healthz
func (h *HealthHandler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		serviceUnavailableResponse(w, r, "database unavailable")
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"status": "ok"}, nil)
}
