package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/league-buysell/market"
	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/repositories"
)

const (
	maxNoteLength = 500
	// A submit that loses a race is replayed once before the conflict is surfaced.
	submitAttempts = 2
)

var tracer trace.Tracer = otel.Tracer("github.com/Dosada05/league-buysell/services")

// SubmitInput carries the optional fields of a buy or sell intent.
type SubmitInput struct {
	Note          string   `json:"note"`
	Price         *float64 `json:"price,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
}

// OrderView is a BuySell with its derived status.
type OrderView struct {
	*models.BuySell
	Status        market.TransactionStatus `json:"status"`
	QueuePosition *int                     `json:"queue_position,omitempty"`
}

// OrderResult is what every mutating marketplace call returns: the order as it
// now stands and the activity line describing the change.
type OrderResult struct {
	Order    OrderView       `json:"order"`
	Activity models.Activity `json:"activity"`
}

type MarketplaceService interface {
	SubmitBuy(ctx context.Context, sessionID, userID int, input SubmitInput) (*OrderResult, error)
	SubmitSell(ctx context.Context, sessionID, userID int, input SubmitInput) (*OrderResult, error)
	ConfirmPaymentSent(ctx context.Context, buySellID, userID int) (*OrderResult, error)
	ConfirmPaymentReceived(ctx context.Context, buySellID, userID int) (*OrderResult, error)
	UnconfirmPaymentSent(ctx context.Context, buySellID, userID int) (*OrderResult, error)
	UnconfirmPaymentReceived(ctx context.Context, buySellID, userID int) (*OrderResult, error)
	CancelBuy(ctx context.Context, buySellID, userID int) (*models.Activity, error)
	CancelSell(ctx context.Context, buySellID, userID int) (*models.Activity, error)
	GetOrder(ctx context.Context, buySellID int) (*OrderView, error)
	ListSessionOrders(ctx context.Context, sessionID int) ([]OrderView, error)
	QueuePosition(ctx context.Context, buySellID int) (*int, error)
	CheckWindow(ctx context.Context, sessionID, userID int) (*market.Eligibility, error)
}

// ActivityPublisher receives activity lines after the change has committed.
// Delivery is best effort.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity models.Activity)
}

// ViewInvalidator drops cached aggregate views after a marketplace change.
type ViewInvalidator interface {
	Invalidate(ctx context.Context) error
}

type MarketplaceOption func(*marketplaceService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MarketplaceOption {
	return func(s *marketplaceService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithViewInvalidator(v ViewInvalidator) MarketplaceOption {
	return func(s *marketplaceService) {
		s.views = v
	}
}

type marketplaceService struct {
	db          *sql.DB
	sessionRepo repositories.SessionRepository
	buySellRepo repositories.BuySellRepository
	rosterRepo  repositories.SessionRosterRepository
	userRepo    repositories.UserRepository
	activity    ActivityPublisher
	views       ViewInvalidator
	location    *time.Location
	logger      *slog.Logger
	now         func() time.Time
}

func NewMarketplaceService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	buySellRepo repositories.BuySellRepository,
	rosterRepo repositories.SessionRosterRepository,
	userRepo repositories.UserRepository,
	activity ActivityPublisher,
	location *time.Location,
	logger *slog.Logger,
	opts ...MarketplaceOption,
) MarketplaceService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &marketplaceService{
		db:          db,
		sessionRepo: sessionRepo,
		buySellRepo: buySellRepo,
		rosterRepo:  rosterRepo,
		userRepo:    userRepo,
		activity:    activity,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *marketplaceService) SubmitBuy(ctx context.Context, sessionID, userID int, input SubmitInput) (*OrderResult, error) {
	return s.submitWithRetry(ctx, market.SideBuy, sessionID, userID, input)
}

func (s *marketplaceService) SubmitSell(ctx context.Context, sessionID, userID int, input SubmitInput) (*OrderResult, error) {
	return s.submitWithRetry(ctx, market.SideSell, sessionID, userID, input)
}

func (s *marketplaceService) submitWithRetry(ctx context.Context, side market.Side, sessionID, userID int, input SubmitInput) (*OrderResult, error) {
	if err := validateSubmitInput(side, input); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "marketplace.submit", trace.WithAttributes(
		attribute.String("side", side.String()),
		attribute.Int("session_id", sessionID),
		attribute.Int("user_id", userID),
	))
	defer span.End()

	var (
		result *OrderResult
		err    error
	)
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		result, err = s.submit(ctx, side, sessionID, userID, input)
		if !errors.Is(err, ErrConcurrencyConflict) {
			break
		}
		s.logger.WarnContext(ctx, "marketplace submit lost a race",
			slog.Int("session_id", sessionID), slog.Int("user_id", userID),
			slog.Int("attempt", attempt), slog.Any("error", err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("status", string(result.Order.Status)))
	s.afterCommit(ctx, result.Activity)
	return result, nil
}

func validateSubmitInput(side market.Side, input SubmitInput) error {
	if len(input.Note) > maxNoteLength {
		return fmt.Errorf("%w: note must be at most %d characters", ErrValidationFailed, maxNoteLength)
	}
	if input.Price != nil && *input.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidationFailed)
	}
	if side == market.SideBuy && (input.Price != nil || input.PaymentMethod != "") {
		return fmt.Errorf("%w: price and payment method are set by the seller", ErrValidationFailed)
	}
	return nil
}

// submit runs one attempt. A session counts as started at its start instant,
// so a submit at exactly session.Date is rejected, matching UpcomingSessions.
func (s *marketplaceService) submit(ctx context.Context, side market.Side, sessionID, userID int, input SubmitInput) (*OrderResult, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: membership is not active", ErrForbiddenOperation)
	}

	now := s.now()
	var result *OrderResult
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return translateRepoError(err)
		}
		if !session.Date.After(now) {
			return fmt.Errorf("%w: session %d has already started", ErrInvalidState, sessionID)
		}
		if market.IsCancelled(session) {
			return fmt.Errorf("%w: session %d is cancelled", ErrInvalidState, sessionID)
		}
		if side == market.SideBuy {
			e := market.CanTransact(session, market.TierOf(user), now, s.location)
			if !e.Allowed {
				return &WindowClosedError{Reason: e.Reason, OpensAt: e.OpensAt, TimeUntilAllowed: e.TimeUntilAllowed}
			}
		}

		orders, err := s.buySellRepo.ListBySession(ctx, tx, sessionID)
		if err != nil {
			return translateRepoError(err)
		}
		for _, o := range market.Waiting(orders, side) {
			if ownerOf(o, side) == userID {
				return fmt.Errorf("%w: already in the %s queue for session %d", ErrInvalidState, side, sessionID)
			}
		}

		spot, err := s.rosterEntry(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}
		switch {
		case side == market.SideBuy && spot != nil && spot.IsPlaying:
			return fmt.Errorf("%w: already playing in session %d", ErrInvalidState, sessionID)
		case side == market.SideSell && (spot == nil || !spot.IsPlaying):
			return fmt.Errorf("%w: no playing spot to sell in session %d", ErrInvalidState, sessionID)
		}

		if side == market.SideBuy {
			result, err = s.matchOrQueueBuy(ctx, tx, session, user, input, now)
		} else {
			result, err = s.matchOrQueueSell(ctx, tx, session, user, spot, input, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *marketplaceService) matchOrQueueBuy(ctx context.Context, tx *sql.Tx, session *models.Session, buyer *models.User, input SubmitInput, now time.Time) (*OrderResult, error) {
	counter, err := s.buySellRepo.FindOldestUnmatchedSell(ctx, tx, session.ID, buyer.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if counter == nil {
		order := &models.BuySell{
			SessionID:       session.ID,
			BuyerUserID:     &buyer.ID,
			BuyerNote:       strPtr(input.Note),
			CreatedAt:       now,
			UpdatedAt:       now,
			CreatedByUserID: &buyer.ID,
			UpdatedByUserID: &buyer.ID,
		}
		if err := s.buySellRepo.Insert(ctx, tx, order); err != nil {
			return nil, translateRepoError(err)
		}
		return s.result(order, models.ActivityQueuedBuy, buyer.ID, market.QueuedMessage(buyer.FullName(), market.SideBuy), now), nil
	}

	seller, err := s.userRepo.GetByID(ctx, tx, *counter.SellerUserID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	sellerSpot, err := s.rosterEntry(ctx, tx, session.ID, seller.ID)
	if err != nil {
		return nil, err
	}
	counter.BuyerUserID = &buyer.ID
	counter.BuyerNote = strPtr(input.Note)
	if sellerSpot != nil {
		counter.TeamAssignment = strPtr(sellerSpot.TeamAssignment)
	}
	counter.UpdatedAt = now
	counter.UpdatedByUserID = &buyer.ID
	if err := s.buySellRepo.FillBuyer(ctx, tx, counter); err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.transferSpot(ctx, tx, counter, sellerSpot, now); err != nil {
		return nil, err
	}
	msg := market.PairMessage(buyer.FullName(), seller.FullName(), "matched")
	return s.result(counter, models.ActivityMatched, buyer.ID, msg, now), nil
}

func (s *marketplaceService) matchOrQueueSell(ctx context.Context, tx *sql.Tx, session *models.Session, seller *models.User, spot *models.SessionRoster, input SubmitInput, now time.Time) (*OrderResult, error) {
	counter, err := s.buySellRepo.FindOldestUnmatchedBuy(ctx, tx, session.ID, seller.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	var paymentMethod *string
	if m := strings.TrimSpace(input.PaymentMethod); m != "" {
		paymentMethod = &m
	}
	if counter == nil {
		order := &models.BuySell{
			SessionID:       session.ID,
			SellerUserID:    &seller.ID,
			SellerNote:      strPtr(input.Note),
			Price:           input.Price,
			PaymentMethod:   paymentMethod,
			TeamAssignment:  strPtr(spot.TeamAssignment),
			CreatedAt:       now,
			UpdatedAt:       now,
			CreatedByUserID: &seller.ID,
			UpdatedByUserID: &seller.ID,
		}
		if err := s.buySellRepo.Insert(ctx, tx, order); err != nil {
			return nil, translateRepoError(err)
		}
		return s.result(order, models.ActivityQueuedSell, seller.ID, market.QueuedMessage(seller.FullName(), market.SideSell), now), nil
	}

	buyer, err := s.userRepo.GetByID(ctx, tx, *counter.BuyerUserID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	counter.SellerUserID = &seller.ID
	counter.SellerNote = strPtr(input.Note)
	counter.Price = input.Price
	counter.PaymentMethod = paymentMethod
	counter.TeamAssignment = strPtr(spot.TeamAssignment)
	counter.UpdatedAt = now
	counter.UpdatedByUserID = &seller.ID
	if err := s.buySellRepo.FillSeller(ctx, tx, counter); err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.transferSpot(ctx, tx, counter, spot, now); err != nil {
		return nil, err
	}
	msg := market.PairMessage(buyer.FullName(), seller.FullName(), "matched")
	return s.result(counter, models.ActivityMatched, seller.ID, msg, now), nil
}

// transferSpot moves the seller's roster spot to the buyer of a freshly matched order.
func (s *marketplaceService) transferSpot(ctx context.Context, tx *sql.Tx, order *models.BuySell, sellerSpot *models.SessionRoster, now time.Time) error {
	var team, position string
	if sellerSpot != nil {
		team, position = sellerSpot.TeamAssignment, sellerSpot.Position
		sellerSpot.IsPlaying = false
		sellerSpot.LeftAt = &now
		sellerSpot.LastBuySellID = &order.ID
		if err := s.rosterRepo.Upsert(ctx, tx, sellerSpot); err != nil {
			return translateRepoError(err)
		}
	}

	buyerSpot, err := s.rosterEntry(ctx, tx, order.SessionID, *order.BuyerUserID)
	if err != nil {
		return err
	}
	if buyerSpot == nil {
		buyerSpot = &models.SessionRoster{SessionID: order.SessionID, UserID: *order.BuyerUserID}
	}
	buyerSpot.IsPlaying = true
	buyerSpot.TeamAssignment = team
	buyerSpot.Position = position
	buyerSpot.JoinedAt = now
	buyerSpot.LeftAt = nil
	buyerSpot.LastBuySellID = &order.ID
	if err := s.rosterRepo.Upsert(ctx, tx, buyerSpot); err != nil {
		return translateRepoError(err)
	}
	return nil
}

func (s *marketplaceService) rosterEntry(ctx context.Context, exec repositories.SQLExecutor, sessionID, userID int) (*models.SessionRoster, error) {
	e, err := s.rosterRepo.Get(ctx, exec, sessionID, userID)
	if errors.Is(err, repositories.ErrRosterEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateRepoError(err)
	}
	return e, nil
}

type paymentFlag int

const (
	flagSent paymentFlag = iota
	flagReceived
)

func (s *marketplaceService) ConfirmPaymentSent(ctx context.Context, buySellID, userID int) (*OrderResult, error) {
	return s.setPayment(ctx, buySellID, userID, flagSent, true)
}

func (s *marketplaceService) ConfirmPaymentReceived(ctx context.Context, buySellID, userID int) (*OrderResult, error) {
	return s.setPayment(ctx, buySellID, userID, flagReceived, true)
}

func (s *marketplaceService) UnconfirmPaymentSent(ctx context.Context, buySellID, userID int) (*OrderResult, error) {
	return s.setPayment(ctx, buySellID, userID, flagSent, false)
}

func (s *marketplaceService) UnconfirmPaymentReceived(ctx context.Context, buySellID, userID int) (*OrderResult, error) {
	return s.setPayment(ctx, buySellID, userID, flagReceived, false)
}

// setPayment flips one payment flag on a matched order. The buyer owns "sent",
// the seller owns "received".
func (s *marketplaceService) setPayment(ctx context.Context, buySellID, userID int, flag paymentFlag, value bool) (*OrderResult, error) {
	ctx, span := tracer.Start(ctx, "marketplace.payment", trace.WithAttributes(
		attribute.Int("buy_sell_id", buySellID),
		attribute.Bool("value", value),
	))
	defer span.End()

	now := s.now()
	var result *OrderResult
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		order, err := s.buySellRepo.GetForUpdate(ctx, tx, buySellID)
		if err != nil {
			return translateRepoError(err)
		}
		if !order.IsMatched() {
			return fmt.Errorf("%w: buy/sell order %d is not matched", ErrInvalidState, buySellID)
		}

		var kind models.ActivityKind
		var action string
		switch flag {
		case flagSent:
			if *order.BuyerUserID != userID {
				return fmt.Errorf("%w: only the buyer can change payment sent", ErrForbiddenOperation)
			}
			order.PaymentSent = value
			kind, action = models.ActivityPaymentSent, "payment sent"
			if !value {
				kind, action = models.ActivityPaymentSentUnconfirmed, "payment sent unconfirmed"
			}
		case flagReceived:
			if *order.SellerUserID != userID {
				return fmt.Errorf("%w: only the seller can change payment received", ErrForbiddenOperation)
			}
			order.PaymentReceived = value
			kind, action = models.ActivityPaymentReceived, "payment received"
			if !value {
				kind, action = models.ActivityPaymentReceivedUnconfirmed, "payment received unconfirmed"
			}
		}
		order.UpdatedAt = now
		order.UpdatedByUserID = &userID
		if err := s.buySellRepo.UpdatePayment(ctx, tx, order); err != nil {
			return translateRepoError(err)
		}

		buyer, err := s.userRepo.GetByID(ctx, tx, *order.BuyerUserID)
		if err != nil {
			return translateRepoError(err)
		}
		seller, err := s.userRepo.GetByID(ctx, tx, *order.SellerUserID)
		if err != nil {
			return translateRepoError(err)
		}
		result = s.result(order, kind, userID, market.PairMessage(buyer.FullName(), seller.FullName(), action), now)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.afterCommit(ctx, result.Activity)
	return result, nil
}

func (s *marketplaceService) CancelBuy(ctx context.Context, buySellID, userID int) (*models.Activity, error) {
	return s.cancel(ctx, buySellID, userID, market.SideBuy)
}

func (s *marketplaceService) CancelSell(ctx context.Context, buySellID, userID int) (*models.Activity, error) {
	return s.cancel(ctx, buySellID, userID, market.SideSell)
}

// cancel removes a single-sided order. Matched orders are left untouched.
func (s *marketplaceService) cancel(ctx context.Context, buySellID, userID int, side market.Side) (*models.Activity, error) {
	now := s.now()
	var activity models.Activity
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		order, err := s.buySellRepo.GetForUpdate(ctx, tx, buySellID)
		if err != nil {
			return translateRepoError(err)
		}
		if order.IsMatched() {
			return fmt.Errorf("%w: buy/sell order %d is already matched", ErrInvalidState, buySellID)
		}
		orderSide, ok := market.SideOf(order)
		if !ok || orderSide != side {
			return fmt.Errorf("%w: buy/sell order %d is not in the %s queue", ErrInvalidState, buySellID, side)
		}
		if ownerOf(order, side) != userID {
			return fmt.Errorf("%w: only the owner can cancel buy/sell order %d", ErrForbiddenOperation, buySellID)
		}

		user, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := s.buySellRepo.DeleteUnmatched(ctx, tx, buySellID); err != nil {
			return translateRepoError(err)
		}

		kind := models.ActivityCancelledBuy
		if side == market.SideSell {
			kind = models.ActivityCancelledSell
		}
		activity = newActivity(order.SessionID, &order.ID, userID, kind, market.LeftQueueMessage(user.FullName(), side), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, activity)
	return &activity, nil
}

func (s *marketplaceService) GetOrder(ctx context.Context, buySellID int) (*OrderView, error) {
	order, err := s.buySellRepo.GetByID(ctx, nil, buySellID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	orders, err := s.buySellRepo.ListBySession(ctx, nil, order.SessionID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	view := OrderView{BuySell: order, Status: market.Classify(order), QueuePosition: market.QueuePosition(order.ID, orders)}
	return &view, nil
}

func (s *marketplaceService) ListSessionOrders(ctx context.Context, sessionID int) ([]OrderView, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, translateRepoError(err)
	}
	orders, err := s.buySellRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{BuySell: o, Status: market.Classify(o), QueuePosition: market.QueuePosition(o.ID, orders)})
	}
	return views, nil
}

// QueuePosition returns nil, nil when the order does not exist or is matched.
func (s *marketplaceService) QueuePosition(ctx context.Context, buySellID int) (*int, error) {
	order, err := s.buySellRepo.GetByID(ctx, nil, buySellID)
	if errors.Is(err, repositories.ErrBuySellNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateRepoError(err)
	}
	if order.IsMatched() {
		return nil, nil
	}
	orders, err := s.buySellRepo.ListBySession(ctx, nil, order.SessionID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return market.QueuePosition(buySellID, orders), nil
}

func (s *marketplaceService) CheckWindow(ctx context.Context, sessionID, userID int) (*market.Eligibility, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	e := market.CanTransact(session, market.TierOf(user), s.now(), s.location)
	return &e, nil
}

func (s *marketplaceService) result(order *models.BuySell, kind models.ActivityKind, actorID int, message string, now time.Time) *OrderResult {
	return &OrderResult{
		Order:    OrderView{BuySell: order, Status: market.Classify(order)},
		Activity: newActivity(order.SessionID, &order.ID, actorID, kind, message, now),
	}
}

// afterCommit runs side effects that must not affect the outcome of the
// operation itself.
func (s *marketplaceService) afterCommit(ctx context.Context, a models.Activity) {
	if s.activity != nil {
		s.activity.Publish(ctx, a)
	}
	if s.views != nil {
		if err := s.views.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate cached views", slog.Any("error", err))
		}
	}
}

func newActivity(sessionID int, buySellID *int, userID int, kind models.ActivityKind, message string, now time.Time) models.Activity {
	return models.Activity{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		BuySellID: buySellID,
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
	}
}

// ownerOf returns the user holding the given side of the order, or 0.
func ownerOf(o *models.BuySell, side market.Side) int {
	p := o.BuyerUserID
	if side == market.SideSell {
		p = o.SellerUserID
	}
	if p == nil {
		return 0
	}
	return *p
}
