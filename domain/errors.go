package domain

import "errors"

// Failures a caller can recover from by retrying with different input.
// Services wrap these with context; classify with errors.Is.
var (
	ErrInvalidAmount                 = errors.New("invalid amount")
	ErrInsufficientBalance           = errors.New("insufficient balance")
	ErrInsufficientHolding           = errors.New("insufficient holding")
	ErrUnknownSymbol                 = errors.New("unknown symbol")
	ErrIlliquidMarket                = errors.New("market is illiquid")
	ErrTradeTooSmall                 = errors.New("trade too small")
	ErrBetNotOpen                    = errors.New("bet is not open")
	ErrInvalidOption                 = errors.New("invalid option")
	ErrAlreadyWageredDifferentOption = errors.New("already wagered on a different option")
	ErrUnknownBet                    = errors.New("unknown bet")
	ErrInvalidNumberRange            = errors.New("number out of range")
	ErrNotActivated                  = errors.New("account not activated")

	ErrInvalidParameter = errors.New("invalid parameter")
	ErrAlreadyActivated = errors.New("account already activated")
	ErrJailed           = errors.New("account is jailed")
	ErrNotJailed        = errors.New("account is not jailed")
	ErrDailyNotReady    = errors.New("daily credits not ready")
	ErrSelfTarget       = errors.New("cannot target yourself")
	ErrNoTickets        = errors.New("no lottery tickets")
	ErrBetFinalized     = errors.New("bet already resolved or canceled")
	ErrNonFinite        = errors.New("non-finite numeric result")
)
