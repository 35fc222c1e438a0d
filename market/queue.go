package market

import (
	"slices"

	"github.com/Dosada05/league-buysell/models"
)

type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "SELLING"
	}
	return "BUYING"
}

// Opposite returns the side an order on s is matched against.
func (s Side) Opposite() Side {
	if s == SideSell {
		return SideBuy
	}
	return SideSell
}

// SideOf reports which queue a single-sided order waits in.
func SideOf(b *models.BuySell) (Side, bool) {
	switch {
	case b.IsBuyerOnly():
		return SideBuy, true
	case b.IsSellerOnly():
		return SideSell, true
	}
	return 0, false
}

// fifoLess orders by creation time, then id.
func fifoLess(a, b *models.BuySell) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return a.ID - b.ID
}

// Waiting returns the unmatched orders on side in FIFO order.
func Waiting(buySells []*models.BuySell, side Side) []*models.BuySell {
	out := make([]*models.BuySell, 0, len(buySells))
	for _, b := range buySells {
		if s, ok := SideOf(b); ok && s == side {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, fifoLess)
	return out
}

// OldestWaiting returns the counter-offer a new order on side would consume,
// skipping orders placed by excludeUserID.
func OldestWaiting(buySells []*models.BuySell, side Side, excludeUserID int) *models.BuySell {
	for _, b := range Waiting(buySells, side.Opposite()) {
		owner := b.BuyerUserID
		if b.SellerUserID != nil {
			owner = b.SellerUserID
		}
		if owner != nil && *owner == excludeUserID {
			continue
		}
		return b
	}
	return nil
}

// QueuePosition is the 1-based rank of the order among unmatched orders on the
// same side of its session. Nil when the order is absent or already matched.
func QueuePosition(buySellID int, sessionBuySells []*models.BuySell) *int {
	var target *models.BuySell
	for _, b := range sessionBuySells {
		if b.ID == buySellID {
			target = b
			break
		}
	}
	if target == nil {
		return nil
	}
	side, ok := SideOf(target)
	if !ok {
		return nil
	}
	for i, b := range Waiting(sessionBuySells, side) {
		if b.ID == buySellID {
			pos := i + 1
			return &pos
		}
	}
	return nil
}
