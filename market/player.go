package market

import "github.com/Dosada05/league-buysell/models"

type PlayerStatus string

const (
	PlayerRegular    PlayerStatus = "Regular"
	PlayerSubstitute PlayerStatus = "Substitute"
	PlayerInQueue    PlayerStatus = "InQueue"
	PlayerNotPlaying PlayerStatus = "NotPlaying"
)

// ClassifyPlayer checks the roster before the queue, so a playing regular who
// also holds a buy order is still Regular.
func ClassifyPlayer(userID int, roster []*models.SessionRoster, buySells []*models.BuySell) PlayerStatus {
	for _, r := range roster {
		if r.UserID == userID && r.IsPlaying {
			if r.IsRegular {
				return PlayerRegular
			}
			return PlayerSubstitute
		}
	}
	for _, b := range buySells {
		if b.BuyerUserID != nil && *b.BuyerUserID == userID {
			return PlayerInQueue
		}
	}
	return PlayerNotPlaying
}
