package models

import "time"

// Session представляет одну игровую сессию лиги.
type Session struct {
	ID            int       `json:"id" db:"id"`
	Date          time.Time `json:"date" db:"session_date"`
	BuyDayMinimum int       `json:"buy_day_minimum" db:"buy_day_minimum"`
	Note          *string   `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
