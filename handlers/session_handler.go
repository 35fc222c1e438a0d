package handlers

import (
	"net/http"

	"github.com/Dosada05/league-buysell/services"
)

type SessionHandler struct {
	roster services.RosterService
}

func NewSessionHandler(rs services.RosterService) *SessionHandler {
	return &SessionHandler{roster: rs}
}

// ListHandler
// @Summary Список предстоящих сессий
// @Tags sessions
// @Description Будущие сессии без отметки "cancelled", по возрастанию даты.
// @Produce json
// @Success 200 {object} map[string]interface{} "sessions"
// @Router /sessions [get]
func (h *SessionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.roster.ListUpcomingSessions(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"sessions": sessions}, nil)
}

// GetByIDHandler обрабатывает GET /sessions/{sessionID}
func (h *SessionHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	session, err := h.roster.GetSession(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"session": session}, nil)
}

// StatusesHandler обрабатывает GET /sessions/{sessionID}/statuses
func (h *SessionHandler) StatusesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	players, err := h.roster.SessionStatuses(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"players": players}, nil)
}
