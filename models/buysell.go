package models

import "time"

// BuySell is one marketplace order: a buy intent, a sell intent or a matched pair.
// Status is never stored; see market.Classify.
type BuySell struct {
	ID                int       `json:"id" db:"id"`
	SessionID         int       `json:"session_id" db:"session_id"`
	BuyerUserID       *int      `json:"buyer_user_id,omitempty" db:"buyer_user_id"`
	SellerUserID      *int      `json:"seller_user_id,omitempty" db:"seller_user_id"`
	Price             *float64  `json:"price,omitempty" db:"price"`
	PaymentMethod     *string   `json:"payment_method,omitempty" db:"payment_method"`
	PaymentSent       bool      `json:"payment_sent" db:"payment_sent"`
	PaymentReceived   bool      `json:"payment_received" db:"payment_received"`
	BuyerNote         *string   `json:"buyer_note,omitempty" db:"buyer_note"`
	SellerNote        *string   `json:"seller_note,omitempty" db:"seller_note"`
	BuyerNoteFlagged  bool      `json:"buyer_note_flagged" db:"buyer_note_flagged"`
	SellerNoteFlagged bool      `json:"seller_note_flagged" db:"seller_note_flagged"`
	TeamAssignment    *string   `json:"team_assignment,omitempty" db:"team_assignment"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	CreatedByUserID   *int      `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	UpdatedByUserID   *int      `json:"updated_by_user_id,omitempty" db:"updated_by_user_id"`
}

// IsMatched reports whether both sides of the order are filled.
func (b *BuySell) IsMatched() bool {
	return b.BuyerUserID != nil && b.SellerUserID != nil
}

// IsBuyerOnly reports whether the order is a buyer waiting for a seller.
func (b *BuySell) IsBuyerOnly() bool {
	return b.BuyerUserID != nil && b.SellerUserID == nil
}

// IsSellerOnly reports whether the order is a seller waiting for a buyer.
func (b *BuySell) IsSellerOnly() bool {
	return b.SellerUserID != nil && b.BuyerUserID == nil
}
