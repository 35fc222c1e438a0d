package models

// LockerRoom13Player is one LockerRoom13 member and their status in a session.
type LockerRoom13Player struct {
	UserID    int    `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

type LockerRoom13Session struct {
	Session Session              `json:"session"`
	Players []LockerRoom13Player `json:"players"`
}
