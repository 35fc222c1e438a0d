package market

import (
	"fmt"
	"time"

	"github.com/Dosada05/league-buysell/models"
)

const (
	windowOpenHour   = 9
	windowOpenMinute = 30
	// preferred-plus members get this much on top of the preferred day.
	preferredPlusLead = 5 * time.Minute
)

type Tier int

const (
	TierGeneral Tier = iota
	TierPreferred
	TierPreferredPlus
)

func (t Tier) String() string {
	switch t {
	case TierPreferredPlus:
		return "preferred_plus"
	case TierPreferred:
		return "preferred"
	default:
		return "general"
	}
}

// TierOf picks the highest tier the user holds.
func TierOf(u *models.User) Tier {
	if u == nil {
		return TierGeneral
	}
	if u.PreferredPlus {
		return TierPreferredPlus
	}
	if u.Preferred {
		return TierPreferred
	}
	return TierGeneral
}

// Windows are the three instants at which buying opens for a session.
type Windows struct {
	General       time.Time `json:"general"`
	Preferred     time.Time `json:"preferred"`
	PreferredPlus time.Time `json:"preferred_plus"`
}

// ComputeWindows works on the civil date of the session in loc; the session's
// own time of day is ignored.
func ComputeWindows(sessionDate time.Time, buyDayMinimum int, loc *time.Location) Windows {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := sessionDate.In(loc).Date()
	general := time.Date(y, m, d-buyDayMinimum, windowOpenHour, windowOpenMinute, 0, 0, loc)
	preferred := time.Date(y, m, d-buyDayMinimum-1, windowOpenHour, windowOpenMinute, 0, 0, loc)
	return Windows{
		General:       general,
		Preferred:     preferred,
		PreferredPlus: preferred.Add(-preferredPlusLead),
	}
}

func (w Windows) OpenFor(t Tier) time.Time {
	switch t {
	case TierPreferredPlus:
		return w.PreferredPlus
	case TierPreferred:
		return w.Preferred
	default:
		return w.General
	}
}

// Eligibility is the outcome of a buy-window check.
type Eligibility struct {
	Allowed          bool          `json:"allowed"`
	Tier             string        `json:"tier"`
	OpensAt          time.Time     `json:"opens_at"`
	Reason           string        `json:"reason,omitempty"`
	TimeUntilAllowed time.Duration `json:"-"`
}

// CanTransact reports whether now is at or past the window opening for tier.
func CanTransact(s *models.Session, t Tier, now time.Time, loc *time.Location) Eligibility {
	opensAt := ComputeWindows(s.Date, s.BuyDayMinimum, loc).OpenFor(t)
	e := Eligibility{Allowed: !now.Before(opensAt), Tier: t.String(), OpensAt: opensAt}
	if !e.Allowed {
		e.Reason = fmt.Sprintf("buy window opens at %s", opensAt.Format("Mon Jan 2 2006 15:04 MST"))
		e.TimeUntilAllowed = opensAt.Sub(now)
	}
	return e
}
