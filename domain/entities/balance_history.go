package entities

import (
	"errors"
	"time"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	AccountID           int64           `db:"account_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	CreatedAt           time.Time       `db:"created_at"`
}

// NewBalanceChange builds a history entry from the before and after balances
func NewBalanceChange(accountID, before, after int64, txType TransactionType, metadata map[string]any) *BalanceHistory {
	return &BalanceHistory{
		AccountID:           accountID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        after - before,
		TransactionType:     txType,
		TransactionMetadata: metadata,
	}
}

// Validate checks the entry is internally consistent
func (bh *BalanceHistory) Validate() error {
	if bh.AccountID == 0 {
		return errors.New("account id is required")
	}
	if bh.TransactionType == "" {
		return errors.New("transaction type is required")
	}
	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}
	if bh.BalanceBefore+bh.ChangeAmount != bh.BalanceAfter {
		return errors.New("change amount does not match balances")
	}
	return nil
}
