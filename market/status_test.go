package market

import (
	"testing"

	"github.com/Dosada05/league-buysell/models"
)

func intPtr(v int) *int { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		b    *models.BuySell
		want TransactionStatus
	}{
		{"buyer only", &models.BuySell{BuyerUserID: intPtr(1)}, StatusLookingToBuy},
		{"seller only", &models.BuySell{SellerUserID: intPtr(2)}, StatusAvailableToBuy},
		{"matched, nothing paid", &models.BuySell{BuyerUserID: intPtr(1), SellerUserID: intPtr(2)}, StatusPaymentPending},
		{"matched, sent", &models.BuySell{BuyerUserID: intPtr(1), SellerUserID: intPtr(2), PaymentSent: true}, StatusPaymentSent},
		{"matched, sent and received", &models.BuySell{BuyerUserID: intPtr(1), SellerUserID: intPtr(2), PaymentSent: true, PaymentReceived: true}, StatusComplete},
		// received without sent is still waiting on the buyer
		{"matched, received only", &models.BuySell{BuyerUserID: intPtr(1), SellerUserID: intPtr(2), PaymentReceived: true}, StatusPaymentPending},
		{"empty", &models.BuySell{}, StatusUnknown},
		{"nil", nil, StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.b); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
