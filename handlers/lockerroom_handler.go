package handlers

import (
	"net/http"

	"github.com/Dosada05/league-buysell/middleware"
	"github.com/Dosada05/league-buysell/services"
)

type LockerRoomHandler struct {
	roster   services.RosterService
	snapshot services.SnapshotService
}

func NewLockerRoomHandler(rs services.RosterService, ss services.SnapshotService) *LockerRoomHandler {
	return &LockerRoomHandler{roster: rs, snapshot: ss}
}

// ViewHandler
// @Summary Статусы игроков LockerRoom13 на предстоящие сессии
// @Tags lockerroom13
// @Description Доступно только участникам LockerRoom13.
// @Produce json
// @Success 200 {object} map[string]interface{} "sessions"
// @Failure 403 {object} map[string]string "Не участник LockerRoom13"
// @Security BearerAuth
// @Router /lockerroom13 [get]
func (h *LockerRoomHandler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	view, err := h.roster.LockerRoom13ViewFor(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"sessions": view}, nil)
}

// SnapshotHandler
// @Summary Опубликовать снимок LockerRoom13 в объектное хранилище
// @Tags admin
// @Produce json
// @Success 201 {object} map[string]interface{} "snapshot"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /admin/lockerroom13/snapshot [post]
func (h *LockerRoomHandler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.snapshot.PublishLockerRoom13(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusCreated, jsonResponse{"snapshot": result}, nil)
}
