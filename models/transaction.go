package models

import (
	"strings"
	"time"
)

const (
	TransactionEarnedReport  = "earned_report"
	TransactionEarnedCollect = "earned_collect"
	TransactionRedeemed      = "redeemed"
)

// Transaction is an append-only ledger entry. Amount is never negative; the
// kind decides whether it adds to or subtracts from the balance.
type Transaction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Kind        string    `json:"type" gorm:"not null"`
	Amount      int       `json:"amount" gorm:"not null"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" gorm:"not null;index"`
}

// IsEarning reports whether the kind credits the balance.
func IsEarning(kind string) bool {
	return strings.HasPrefix(kind, "earned_")
}

func ValidTransactionKind(kind string) bool {
	switch kind {
	case TransactionEarnedReport, TransactionEarnedCollect, TransactionRedeemed:
		return true
	}
	return false
}

// ComputeBalance folds a transaction history into a balance, floored at zero.
func ComputeBalance(transactions []Transaction) int {
	balance := 0
	for _, t := range transactions {
		if IsEarning(t.Kind) {
			balance += t.Amount
		} else {
			balance -= t.Amount
		}
	}
	if balance < 0 {
		return 0
	}
	return balance
}
