package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/league-buysell/middleware"
	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/services"
)

type MarketplaceHandler struct {
	marketplace services.MarketplaceService
}

func NewMarketplaceHandler(ms services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplace: ms}
}

// SubmitBuyHandler
// @Summary Встать в очередь на покупку места
// @Tags marketplace
// @Description Матчит покупателя с самым старым продавцом сессии или ставит его в очередь BUYING.
// @Accept json
// @Produce json
// @Param sessionID path int true "Session ID"
// @Param body body services.SubmitInput false "Заметка покупателя"
// @Success 201 {object} map[string]interface{} "order и activity"
// @Failure 403 {object} map[string]interface{} "Окно покупки ещё закрыто"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Failure 409 {object} map[string]string "Недопустимое состояние или конфликт"
// @Security BearerAuth
// @Router /sessions/{sessionID}/buy [post]
func (h *MarketplaceHandler) SubmitBuyHandler(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.marketplace.SubmitBuy)
}

// SubmitSellHandler
// @Summary Выставить своё место на продажу
// @Tags marketplace
// @Accept json
// @Produce json
// @Param sessionID path int true "Session ID"
// @Param body body services.SubmitInput false "Заметка, цена и способ оплаты"
// @Success 201 {object} map[string]interface{} "order и activity"
// @Failure 404 {object} map[string]string "Сессия не найдена"
// @Failure 409 {object} map[string]string "Недопустимое состояние или конфликт"
// @Security BearerAuth
// @Router /sessions/{sessionID}/sell [post]
func (h *MarketplaceHandler) SubmitSellHandler(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.marketplace.SubmitSell)
}

type submitFunc func(ctx context.Context, sessionID, userID int, input services.SubmitInput) (*services.OrderResult, error)

func (h *MarketplaceHandler) submit(w http.ResponseWriter, r *http.Request, fn submitFunc) {
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

	var input services.SubmitInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := fn(r.Context(), sessionID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusCreated, jsonResponse{"order": result.Order, "activity": result.Activity}, nil)
}

// GetBuySellHandler обрабатывает GET /buysells/{buySellID}
func (h *MarketplaceHandler) GetBuySellHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "buySellID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	order, err := h.marketplace.GetOrder(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"order": order}, nil)
}

// QueuePositionHandler обрабатывает GET /buysells/{buySellID}/queue-position.
// Позиция null, если заявка уже сматчена или не существует.
func (h *MarketplaceHandler) QueuePositionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "buySellID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	pos, err := h.marketplace.QueuePosition(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"queue_position": pos}, nil)
}

// ListSessionBuySellsHandler обрабатывает GET /sessions/{sessionID}/buysells
func (h *MarketplaceHandler) ListSessionBuySellsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	orders, err := h.marketplace.ListSessionOrders(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"orders": orders}, nil)
}

// WindowHandler
// @Summary Проверить окно покупки для текущего пользователя
// @Tags marketplace
// @Produce json
// @Param sessionID path int true "Session ID"
// @Success 200 {object} map[string]interface{} "window и retry_after_seconds"
// @Security BearerAuth
// @Router /sessions/{sessionID}/window [get]
func (h *MarketplaceHandler) WindowHandler(w http.ResponseWriter, r *http.Request) {
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
	e, err := h.marketplace.CheckWindow(r.Context(), sessionID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	retry := 0
	if !e.Allowed {
		retry = retryAfterSeconds(&services.WindowClosedError{TimeUntilAllowed: e.TimeUntilAllowed})
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"window": e, "retry_after_seconds": retry}, nil)
}

type orderActionFunc func(ctx context.Context, buySellID, userID int) (*services.OrderResult, error)

func (h *MarketplaceHandler) orderAction(fn orderActionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.GetUserIDFromContext(r.Context())
		if err != nil {
			unauthorizedResponse(w, r, "authentication required")
			return
		}
		id, err := getIDFromURL(r, "buySellID")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		result, err := fn(r.Context(), id, userID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		writeEnvelope(w, r, http.StatusOK, jsonResponse{"order": result.Order, "activity": result.Activity}, nil)
	}
}

// ConfirmPaymentSentHandler обрабатывает PUT /buysells/{buySellID}/payment-sent
func (h *MarketplaceHandler) ConfirmPaymentSentHandler(w http.ResponseWriter, r *http.Request) {
	h.orderAction(h.marketplace.ConfirmPaymentSent)(w, r)
}

// UnconfirmPaymentSentHandler обрабатывает DELETE /buysells/{buySellID}/payment-sent
func (h *MarketplaceHandler) UnconfirmPaymentSentHandler(w http.ResponseWriter, r *http.Request) {
	h.orderAction(h.marketplace.UnconfirmPaymentSent)(w, r)
}

// ConfirmPaymentReceivedHandler обрабатывает PUT /buysells/{buySellID}/payment-received
func (h *MarketplaceHandler) ConfirmPaymentReceivedHandler(w http.ResponseWriter, r *http.Request) {
	h.orderAction(h.marketplace.ConfirmPaymentReceived)(w, r)
}

// UnconfirmPaymentReceivedHandler обрабатывает DELETE /buysells/{buySellID}/payment-received
func (h *MarketplaceHandler) UnconfirmPaymentReceivedHandler(w http.ResponseWriter, r *http.Request) {
	h.orderAction(h.marketplace.UnconfirmPaymentReceived)(w, r)
}

type cancelFunc func(ctx context.Context, buySellID, userID int) (*models.Activity, error)

func (h *MarketplaceHandler) cancel(w http.ResponseWriter, r *http.Request, fn cancelFunc) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "buySellID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	activity, err := fn(r.Context(), id, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"activity": activity}, nil)
}

// CancelBuyHandler
// @Summary Выйти из очереди BUYING
// @Tags marketplace
// @Param buySellID path int true "BuySell ID"
// @Success 200 {object} map[string]interface{} "activity"
// @Failure 409 {object} map[string]string "Заявка уже сматчена"
// @Security BearerAuth
// @Router /buysells/{buySellID}/buy [delete]
func (h *MarketplaceHandler) CancelBuyHandler(w http.ResponseWriter, r *http.Request) {
	h.cancel(w, r, h.marketplace.CancelBuy)
}

// CancelSellHandler обрабатывает DELETE /buysells/{buySellID}/sell
func (h *MarketplaceHandler) CancelSellHandler(w http.ResponseWriter, r *http.Request) {
	h.cancel(w, r, h.marketplace.CancelSell)
}
