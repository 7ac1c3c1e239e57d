package entities

// TransactionType represents the type of balance change
type TransactionType string

// All transaction types supported by the system
const (
	// Account lifecycle
	TransactionTypeInitial TransactionType = "initial"
	TransactionTypeDaily   TransactionType = "daily"

	// Transfers
	TransactionTypeGiftIn  TransactionType = "gift_in"
	TransactionTypeGiftOut TransactionType = "gift_out"
	TransactionTypeStealIn TransactionType = "steal_in"
	TransactionTypeStolen  TransactionType = "stolen"

	// Markets
	TransactionTypeMarketBuy  TransactionType = "market_buy"
	TransactionTypeMarketSell TransactionType = "market_sell"

	// Betting
	TransactionTypeBetWager  TransactionType = "bet_wager"
	TransactionTypeBetPayout TransactionType = "bet_payout"
	TransactionTypeBetRefund TransactionType = "bet_refund"

	// Lottery
	TransactionTypeLottoTicket TransactionType = "lotto_ticket"
	TransactionTypeLottoWin    TransactionType = "lotto_win"

	// Roulette
	TransactionTypeRouletteWin  TransactionType = "roulette_win"
	TransactionTypeRouletteLoss TransactionType = "roulette_loss"

	// Redistribution
	TransactionTypeTax           TransactionType = "tax"
	TransactionTypeJailRelease   TransactionType = "jail_release"
	TransactionTypeParolePayment TransactionType = "parole_payment"
	TransactionTypeStealPenalty  TransactionType = "steal_penalty"

	// Operator adjustments
	TransactionTypeOperatorGive TransactionType = "operator_give"
	TransactionTypeOperatorTake TransactionType = "operator_take"
)

// IsTransferType returns true if money moved between two accounts
func (tt TransactionType) IsTransferType() bool {
	switch tt {
	case TransactionTypeGiftIn, TransactionTypeGiftOut, TransactionTypeStealIn, TransactionTypeStolen:
		return true
	}
	return false
}

// IsPoolFunding returns true if the deducted amount is routed into the lottery pool
func (tt TransactionType) IsPoolFunding() bool {
	switch tt {
	case TransactionTypeTax, TransactionTypeParolePayment, TransactionTypeLottoTicket:
		return true
	}
	return false
}

// IsSystemGenerated returns true if no user action triggered the change
func (tt TransactionType) IsSystemGenerated() bool {
	switch tt {
	case TransactionTypeInitial, TransactionTypeTax, TransactionTypeParolePayment,
		TransactionTypeOperatorGive, TransactionTypeOperatorTake:
		return true
	}
	return false
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
