package market

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Dosada05/league-buysell/models"
)

const cancelledMarker = "cancelled"

// IsCancelled reports whether the session note marks it cancelled.
func IsCancelled(s *models.Session) bool {
	if s == nil || s.Note == nil {
		return false
	}
	return strings.Contains(cases.Fold().String(*s.Note), cancelledMarker)
}

// UpcomingSessions keeps sessions after now that are not cancelled, by date.
func UpcomingSessions(sessions []*models.Session, now time.Time) []*models.Session {
	out := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Date.After(now) && !IsCancelled(s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Session) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out
}

// SortByName orders users by last name, then first name, with English collation.
func SortByName(users []*models.User) {
	// Collator is not safe for concurrent use.
	c := collate.New(language.English)
	slices.SortStableFunc(users, func(a, b *models.User) int {
		if r := c.CompareString(a.LastName, b.LastName); r != 0 {
			return r
		}
		return c.CompareString(a.FirstName, b.FirstName)
	})
}

// BuildLockerRoom13Session classifies every LockerRoom13 member for one session.
func BuildLockerRoom13Session(s *models.Session, members []*models.User, roster []*models.SessionRoster, buySells []*models.BuySell) models.LockerRoom13Session {
	sorted := make([]*models.User, 0, len(members))
	for _, u := range members {
		if u.LockerRoom13 {
			sorted = append(sorted, u)
		}
	}
	SortByName(sorted)

	players := make([]models.LockerRoom13Player, 0, len(sorted))
	for _, u := range sorted {
		players = append(players, models.LockerRoom13Player{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Status:    string(ClassifyPlayer(u.ID, roster, buySells)),
		})
	}
	return models.LockerRoom13Session{Session: *s, Players: players}
}
