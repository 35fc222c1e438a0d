package models

import "time"

type User struct {
	ID            int       `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	Active        bool      `json:"active" db:"active"`
	Preferred     bool      `json:"preferred" db:"preferred"`
	PreferredPlus bool      `json:"preferred_plus" db:"preferred_plus"`
	LockerRoom13  bool      `json:"locker_room_13" db:"locker_room_13"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// FullName returns "First Last", trimmed when one part is missing.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
