package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/league-buysell/db/dbtest"
	"github.com/Dosada05/league-buysell/market"
	"github.com/Dosada05/league-buysell/models"
)

var (
	testNow         = time.Date(2025, time.February, 20, 12, 0, 0, 0, time.UTC)
	testSessionDate = time.Date(2025, time.February, 25, 19, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, a models.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
}

func (p *recordingPublisher) kinds() []models.ActivityKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ActivityKind, len(p.activities))
	for i, a := range p.activities {
		out[i] = a.Kind
	}
	return out
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

type marketFixture struct {
	store   *dbtest.Store
	clock   *testClock
	pub     *recordingPublisher
	views   *countingInvalidator
	svc     MarketplaceService
	session *models.Session
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()
	store := dbtest.Open(t)
	clock := &testClock{now: testNow}
	pub := &recordingPublisher{}
	views := &countingInvalidator{}
	svc := NewMarketplaceService(store.DB, store.Sessions, store.BuySells, store.Rosters, store.Users,
		pub, time.UTC, discardLogger(), WithClock(clock.Now), WithViewInvalidator(views))
	return &marketFixture{
		store:   store,
		clock:   clock,
		pub:     pub,
		views:   views,
		svc:     svc,
		session: store.Session(t, testSessionDate, 6, ""),
	}
}

// seller creates a user holding a playing spot in the fixture session.
func (f *marketFixture) seller(t *testing.T, first, last, team string) *models.User {
	t.Helper()
	u := f.store.User(t, first, last)
	f.store.Spot(t, f.session.ID, u.ID, true, team, "F")
	return u
}

func TestSubmitSellThenBuyMatches(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	seller := f.seller(t, "Sam", "Seller", "Dark")
	buyer := f.store.User(t, "Bea", "Buyer")
	price := 20.0

	sold, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{Note: "can't make it", Price: &price, PaymentMethod: "venmo"})
	if err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	if sold.Order.Status != market.StatusAvailableToBuy {
		t.Fatalf("status after sell = %s, want AvailableToBuy", sold.Order.Status)
	}
	if sold.Activity.Message != "Sam Seller added to SELLING queue" {
		t.Fatalf("activity = %q", sold.Activity.Message)
	}

	f.clock.Advance(time.Minute)
	bought, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{Note: "thanks"})
	if err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}
	if bought.Order.ID != sold.Order.ID {
		t.Fatalf("buy created order %d instead of filling %d", bought.Order.ID, sold.Order.ID)
	}
	if bought.Order.Status != market.StatusPaymentPending {
		t.Fatalf("status after match = %s, want PaymentPending", bought.Order.Status)
	}
	if want := "Buyer: Bea Buyer, Seller: Sam Seller - matched"; bought.Activity.Message != want {
		t.Fatalf("activity = %q, want %q", bought.Activity.Message, want)
	}
	if bought.Activity.Kind != models.ActivityMatched || bought.Activity.ID == "" {
		t.Fatalf("unexpected activity %+v", bought.Activity)
	}

	stored, err := f.store.BuySells.GetByID(ctx, nil, sold.Order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.UpdatedAt.Equal(f.clock.Now()) {
		t.Fatalf("UpdatedAt = %s, want %s", stored.UpdatedAt, f.clock.Now())
	}
	if stored.TeamAssignment == nil || *stored.TeamAssignment != "Dark" {
		t.Fatalf("TeamAssignment = %v, want Dark", stored.TeamAssignment)
	}
	if stored.Price == nil || *stored.Price != price {
		t.Fatalf("Price = %v, want %v", stored.Price, price)
	}

	sellerSpot, err := f.store.Rosters.Get(ctx, nil, f.session.ID, seller.ID)
	if err != nil {
		t.Fatalf("seller spot: %v", err)
	}
	if sellerSpot.IsPlaying || sellerSpot.LeftAt == nil || sellerSpot.LastBuySellID == nil || *sellerSpot.LastBuySellID != stored.ID {
		t.Fatalf("seller spot not released: %+v", sellerSpot)
	}
	buyerSpot, err := f.store.Rosters.Get(ctx, nil, f.session.ID, buyer.ID)
	if err != nil {
		t.Fatalf("buyer spot: %v", err)
	}
	if !buyerSpot.IsPlaying || buyerSpot.IsRegular || buyerSpot.TeamAssignment != "Dark" || buyerSpot.Position != "F" {
		t.Fatalf("buyer spot = %+v", buyerSpot)
	}

	if got := f.pub.kinds(); len(got) != 2 || got[0] != models.ActivityQueuedSell || got[1] != models.ActivityMatched {
		t.Fatalf("published kinds = %v", got)
	}
	if f.views.calls != 2 {
		t.Fatalf("view invalidations = %d, want 2", f.views.calls)
	}
}

func TestSubmitBuyMatchesOldestSeller(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	first := f.seller(t, "Fay", "First", "Dark")
	second := f.seller(t, "Sid", "Second", "Light")
	buyer := f.store.User(t, "Bo", "Buyer")

	if _, err := f.svc.SubmitSell(ctx, f.session.ID, first.ID, SubmitInput{}); err != nil {
		t.Fatalf("first sell: %v", err)
	}
	f.clock.Advance(time.Second)
	secondSell, err := f.svc.SubmitSell(ctx, f.session.ID, second.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("second sell: %v", err)
	}

	res, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}
	if *res.Order.SellerUserID != first.ID {
		t.Fatalf("matched seller %d, want oldest seller %d", *res.Order.SellerUserID, first.ID)
	}

	pos, err := f.svc.QueuePosition(ctx, secondSell.Order.ID)
	if err != nil {
		t.Fatalf("QueuePosition: %v", err)
	}
	if pos == nil || *pos != 1 {
		t.Fatalf("second seller position = %v, want 1", pos)
	}
	if pos, _ := f.svc.QueuePosition(ctx, res.Order.ID); pos != nil {
		t.Fatalf("matched order position = %d, want nil", *pos)
	}
	if pos, err := f.svc.QueuePosition(ctx, 9999); pos != nil || err != nil {
		t.Fatalf("missing order position = %v, %v; want nil, nil", pos, err)
	}
}

func TestSubmitSellMatchesOldestBuyer(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	b1 := f.store.User(t, "Ann", "One")
	b2 := f.store.User(t, "Ben", "Two")
	seller := f.seller(t, "Sal", "Seller", "Dark")

	first, err := f.svc.SubmitBuy(ctx, f.session.ID, b1.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("buy 1: %v", err)
	}
	if first.Order.Status != market.StatusLookingToBuy || first.Activity.Message != "Ann One added to BUYING queue" {
		t.Fatalf("unexpected first buy %+v / %q", first.Order.Status, first.Activity.Message)
	}
	f.clock.Advance(time.Second)
	if _, err := f.svc.SubmitBuy(ctx, f.session.ID, b2.ID, SubmitInput{}); err != nil {
		t.Fatalf("buy 2: %v", err)
	}

	res, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	if res.Order.ID != first.Order.ID || *res.Order.BuyerUserID != b1.ID {
		t.Fatalf("sell matched order %d (buyer %d), want order %d", res.Order.ID, *res.Order.BuyerUserID, first.Order.ID)
	}

	orders, err := f.svc.ListSessionOrders(ctx, f.session.ID)
	if err != nil {
		t.Fatalf("ListSessionOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
	for _, o := range orders {
		switch o.ID {
		case first.Order.ID:
			if o.Status != market.StatusPaymentPending || o.QueuePosition != nil {
				t.Errorf("matched order view = %+v", o)
			}
		default:
			if o.Status != market.StatusLookingToBuy || o.QueuePosition == nil || *o.QueuePosition != 1 {
				t.Errorf("waiting order view = %+v", o)
			}
		}
	}
}

func TestSubmitBuyWindowClosed(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	// general opens 2025-02-19 09:30, preferred 2025-02-18 09:30
	f.clock.now = time.Date(2025, time.February, 18, 10, 0, 0, 0, time.UTC)
	general := f.store.User(t, "Gus", "General")
	preferred := f.store.User(t, "Pat", "Preferred", dbtest.Preferred)

	_, err := f.svc.SubmitBuy(ctx, f.session.ID, general.ID, SubmitInput{})
	var windowErr *WindowClosedError
	if !errors.As(err, &windowErr) {
		t.Fatalf("err = %v, want *WindowClosedError", err)
	}
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatal("WindowClosedError should match ErrWindowClosed")
	}
	if windowErr.TimeUntilAllowed != 23*time.Hour+30*time.Minute {
		t.Fatalf("TimeUntilAllowed = %s", windowErr.TimeUntilAllowed)
	}
	if !strings.HasPrefix(windowErr.Reason, "buy window opens at ") {
		t.Fatalf("Reason = %q", windowErr.Reason)
	}

	if _, err := f.svc.SubmitBuy(ctx, f.session.ID, preferred.ID, SubmitInput{}); err != nil {
		t.Fatalf("preferred buy: %v", err)
	}

	e, err := f.svc.CheckWindow(ctx, f.session.ID, general.ID)
	if err != nil {
		t.Fatalf("CheckWindow: %v", err)
	}
	if e.Allowed || e.Tier != "general" {
		t.Fatalf("CheckWindow = %+v", e)
	}

	// selling is not gated by the window
	seller := f.seller(t, "Sue", "Seller", "Dark")
	if _, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{}); err != nil {
		t.Fatalf("sell before window: %v", err)
	}
}

func TestSubmitRejections(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	past := f.store.Session(t, testNow.Add(-time.Hour), 6, "")
	startingNow := f.store.Session(t, testNow, 6, "")
	cancelled := f.store.Session(t, testSessionDate, 6, "Cancelled - rink closed")
	inactive := f.store.User(t, "Ian", "Inactive", dbtest.Inactive)
	playing := f.seller(t, "Reg", "Ular", "Dark")
	buyer := f.store.User(t, "Bud", "Buyer")
	benched := f.store.User(t, "Ned", "Nospot")
	if _, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{}); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	price := -1.0

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{"past session", func() error { _, err := f.svc.SubmitBuy(ctx, past.ID, buyer.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"session starting now", func() error { _, err := f.svc.SubmitBuy(ctx, startingNow.ID, buyer.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"cancelled session", func() error { _, err := f.svc.SubmitBuy(ctx, cancelled.ID, buyer.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"unknown session", func() error { _, err := f.svc.SubmitBuy(ctx, 9999, buyer.ID, SubmitInput{}); return err }, ErrNotFound},
		{"unknown user", func() error { _, err := f.svc.SubmitBuy(ctx, f.session.ID, 9999, SubmitInput{}); return err }, ErrNotFound},
		{"inactive member", func() error { _, err := f.svc.SubmitBuy(ctx, f.session.ID, inactive.ID, SubmitInput{}); return err }, ErrForbiddenOperation},
		{"already in buying queue", func() error { _, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"buyer already playing", func() error { _, err := f.svc.SubmitBuy(ctx, f.session.ID, playing.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"seller without a spot", func() error { _, err := f.svc.SubmitSell(ctx, f.session.ID, benched.ID, SubmitInput{}); return err }, ErrInvalidState},
		{"note too long", func() error {
			_, err := f.svc.SubmitSell(ctx, f.session.ID, playing.ID, SubmitInput{Note: strings.Repeat("x", maxNoteLength+1)})
			return err
		}, ErrValidationFailed},
		{"negative price", func() error { _, err := f.svc.SubmitSell(ctx, f.session.ID, playing.ID, SubmitInput{Price: &price}); return err }, ErrValidationFailed},
		{"buyer sets price", func() error {
			p := 5.0
			_, err := f.svc.SubmitBuy(ctx, f.session.ID, benched.ID, SubmitInput{Price: &p})
			return err
		}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	orders, err := f.store.BuySells.ListBySession(ctx, nil, f.session.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("rejected submits changed the ledger: %d orders", len(orders))
	}
}

func TestPaymentConfirmations(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	seller := f.seller(t, "Sam", "Seller", "Dark")
	buyer := f.store.User(t, "Bea", "Buyer")
	waiting := f.store.User(t, "Wes", "Waiting")

	if _, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{}); err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	matched, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}
	single, err := f.svc.SubmitBuy(ctx, f.session.ID, waiting.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitBuy (waiting): %v", err)
	}
	id := matched.Order.ID

	steps := []struct {
		name       string
		call       func() (*OrderResult, error)
		wantStatus market.TransactionStatus
		wantMsg    string
	}{
		{"buyer confirms sent", func() (*OrderResult, error) { return f.svc.ConfirmPaymentSent(ctx, id, buyer.ID) },
			market.StatusPaymentSent, "Buyer: Bea Buyer, Seller: Sam Seller - payment sent"},
		{"seller confirms received", func() (*OrderResult, error) { return f.svc.ConfirmPaymentReceived(ctx, id, seller.ID) },
			market.StatusComplete, "Buyer: Bea Buyer, Seller: Sam Seller - payment received"},
		{"buyer withdraws sent", func() (*OrderResult, error) { return f.svc.UnconfirmPaymentSent(ctx, id, buyer.ID) },
			market.StatusPaymentPending, "Buyer: Bea Buyer, Seller: Sam Seller - payment sent unconfirmed"},
		{"seller withdraws received", func() (*OrderResult, error) { return f.svc.UnconfirmPaymentReceived(ctx, id, seller.ID) },
			market.StatusPaymentPending, "Buyer: Bea Buyer, Seller: Sam Seller - payment received unconfirmed"},
	}
	for _, step := range steps {
		f.clock.Advance(time.Minute)
		res, err := step.call()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if res.Order.Status != step.wantStatus {
			t.Fatalf("%s: status = %s, want %s", step.name, res.Order.Status, step.wantStatus)
		}
		if res.Activity.Message != step.wantMsg {
			t.Fatalf("%s: message = %q, want %q", step.name, res.Activity.Message, step.wantMsg)
		}
		stored, err := f.store.BuySells.GetByID(ctx, nil, id)
		if err != nil {
			t.Fatalf("%s: GetByID: %v", step.name, err)
		}
		if !stored.UpdatedAt.Equal(f.clock.Now()) || stored.UpdatedByUserID == nil {
			t.Fatalf("%s: audit fields not stamped: %+v", step.name, stored)
		}
	}

	if _, err := f.svc.ConfirmPaymentReceived(ctx, id, buyer.ID); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("buyer confirming received err = %v, want ErrForbiddenOperation", err)
	}
	if _, err := f.svc.ConfirmPaymentSent(ctx, id, seller.ID); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("seller confirming sent err = %v, want ErrForbiddenOperation", err)
	}
	if _, err := f.svc.ConfirmPaymentSent(ctx, single.Order.ID, waiting.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("payment on unmatched order err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.ConfirmPaymentSent(ctx, 9999, buyer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("payment on missing order err = %v, want ErrNotFound", err)
	}
}

func TestCancel(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	seller := f.seller(t, "Sam", "Seller", "Dark")
	buyer := f.store.User(t, "Bea", "Buyer")
	other := f.store.User(t, "Oz", "Other")

	sell, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	if _, err := f.svc.CancelSell(ctx, sell.Order.ID, other.ID); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("cancel by non-owner err = %v, want ErrForbiddenOperation", err)
	}
	if _, err := f.svc.CancelBuy(ctx, sell.Order.ID, seller.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("CancelBuy on a sell order err = %v, want ErrInvalidState", err)
	}
	activity, err := f.svc.CancelSell(ctx, sell.Order.ID, seller.ID)
	if err != nil {
		t.Fatalf("CancelSell: %v", err)
	}
	if activity.Message != "Sam Seller removed from SELLING queue" || activity.Kind != models.ActivityCancelledSell {
		t.Fatalf("activity = %+v", activity)
	}
	if _, err := f.svc.GetOrder(ctx, sell.Order.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancelled order still readable: %v", err)
	}

	if _, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{}); err != nil {
		t.Fatalf("re-sell: %v", err)
	}
	matched, err := f.svc.SubmitBuy(ctx, f.session.ID, buyer.ID, SubmitInput{})
	if err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}
	if _, err := f.svc.CancelBuy(ctx, matched.Order.ID, buyer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel matched err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.CancelSell(ctx, matched.Order.ID, other.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel matched by stranger err = %v, want ErrInvalidState", err)
	}
	view, err := f.svc.GetOrder(ctx, matched.Order.ID)
	if err != nil {
		t.Fatalf("matched order was removed: %v", err)
	}
	if view.Status != market.StatusPaymentPending {
		t.Fatalf("status = %s, want PaymentPending", view.Status)
	}
}

func TestConcurrentBuyersMatchAtMostOnce(t *testing.T) {
	f := newMarketFixture(t)
	ctx := context.Background()
	seller := f.seller(t, "Sam", "Seller", "Dark")
	if _, err := f.svc.SubmitSell(ctx, f.session.ID, seller.ID, SubmitInput{}); err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}

	const buyers = 8
	ids := make([]int, buyers)
	for i := range ids {
		ids[i] = f.store.User(t, "Buyer", string(rune('A'+i))).ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matched int
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.SubmitBuy(ctx, f.session.ID, id, SubmitInput{})
			if errors.Is(err, ErrConcurrencyConflict) {
				return
			}
			if err != nil {
				t.Errorf("SubmitBuy(%d): %v", id, err)
				return
			}
			if res.Order.Status == market.StatusPaymentPending {
				mu.Lock()
				matched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if matched != 1 {
		t.Fatalf("%d buyers matched, want exactly 1", matched)
	}
	orders, err := f.store.BuySells.ListBySession(ctx, nil, f.session.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	pairs := 0
	for _, o := range orders {
		if o.IsMatched() {
			pairs++
		}
	}
	if pairs != 1 {
		t.Fatalf("ledger holds %d matched orders, want 1", pairs)
	}

	roster, err := f.store.Rosters.ListBySession(ctx, nil, f.session.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	playing := 0
	for _, r := range roster {
		if r.IsPlaying {
			playing++
		}
	}
	if playing != 1 {
		t.Fatalf("%d players seated for one spot", playing)
	}
}
