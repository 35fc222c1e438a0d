// Package market holds the pure marketplace rules: transaction status, buy
// windows, FIFO queue ordering and roster status classification. Nothing in
// here touches storage; callers pass plain collections in.
package market

import "github.com/Dosada05/league-buysell/models"

type TransactionStatus string

const (
	StatusAvailableToBuy TransactionStatus = "AvailableToBuy"
	StatusLookingToBuy   TransactionStatus = "LookingToBuy"
	StatusPaymentPending TransactionStatus = "PaymentPending"
	StatusPaymentSent    TransactionStatus = "PaymentSent"
	StatusComplete       TransactionStatus = "Complete"
	StatusUnknown        TransactionStatus = "Unknown"
)

// Classify derives the status of an order from its buyer, seller and payment fields.
func Classify(b *models.BuySell) TransactionStatus {
	if b == nil {
		return StatusUnknown
	}
	switch {
	case b.SellerUserID == nil && b.BuyerUserID != nil:
		return StatusLookingToBuy
	case b.BuyerUserID == nil && b.SellerUserID != nil:
		return StatusAvailableToBuy
	case b.BuyerUserID != nil && b.SellerUserID != nil:
		if b.PaymentSent && b.PaymentReceived {
			return StatusComplete
		}
		if b.PaymentSent {
			return StatusPaymentSent
		}
		return StatusPaymentPending
	default:
		return StatusUnknown
	}
}
