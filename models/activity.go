package models

import "time"

type ActivityKind string

const (
	ActivityQueuedBuy                  ActivityKind = "queued_buy"
	ActivityQueuedSell                 ActivityKind = "queued_sell"
	ActivityMatched                    ActivityKind = "matched"
	ActivityPaymentSent                ActivityKind = "payment_sent"
	ActivityPaymentReceived            ActivityKind = "payment_received"
	ActivityPaymentSentUnconfirmed     ActivityKind = "payment_sent_unconfirmed"
	ActivityPaymentReceivedUnconfirmed ActivityKind = "payment_received_unconfirmed"
	ActivityCancelledBuy               ActivityKind = "cancelled_buy"
	ActivityCancelledSell              ActivityKind = "cancelled_sell"
)

// Activity is a plain-text record of one marketplace state change.
type Activity struct {
	ID        string       `json:"id"`
	SessionID int          `json:"session_id"`
	BuySellID *int         `json:"buy_sell_id,omitempty"`
	UserID    int          `json:"user_id"`
	Kind      ActivityKind `json:"kind"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}
