package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/league-buysell/live"
	"github.com/Dosada05/league-buysell/middleware"
	"github.com/Dosada05/league-buysell/services"
)

type WebSocketHandler struct {
	hub      *live.Hub
	roster   services.RosterService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *live.Hub, rs services.RosterService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:    hub,
		roster: rs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(allowed, u.Scheme+"://"+u.Host)
	}
}

// ServeWs обрабатывает GET /ws/sessions/{sessionID}: поток activity одной сессии.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.roster.GetSession(r.Context(), sessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Int("session_id", sessionID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.SessionRoom(sessionID), userID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
	h.logger.DebugContext(r.Context(), "websocket client connected",
		slog.Int("session_id", sessionID), slog.Int("user_id", userID), slog.String("client_id", client.ID))
}
