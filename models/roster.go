// File: models/roster.go
package models

import "time"

// SessionRoster is a player's placement for one session, seeded from the weekly regular set.
type SessionRoster struct {
	SessionID      int        `json:"session_id" db:"session_id"`
	UserID         int        `json:"user_id" db:"user_id"`
	IsRegular      bool       `json:"is_regular" db:"is_regular"`
	IsPlaying      bool       `json:"is_playing" db:"is_playing"`
	TeamAssignment string     `json:"team_assignment" db:"team_assignment"`
	Position       string     `json:"position" db:"position"`
	JoinedAt       time.Time  `json:"joined_at" db:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty" db:"left_at"`
	LastBuySellID  *int       `json:"last_buy_sell_id,omitempty" db:"last_buy_sell_id"`
}
