package domain

import "errors"

var (
	// ErrInsufficientBalance occurs when the source balance cannot cover a
	// debit, either pre-confirmation or at settlement time.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrMissingSelection occurs when a trade is requested without both
	// currencies and a positive amount.
	ErrMissingSelection = errors.New("source, target and a positive amount are required")

	// ErrInvalidAmount occurs when the sanitizer rejects free-text input.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSameCurrency occurs when source and target would collide.
	ErrSameCurrency = errors.New("source and target must differ")

	// ErrSessionBusy occurs when a mutating event arrives while a
	// settlement is processing.
	ErrSessionBusy = errors.New("session is processing a settlement")

	// ErrQuoteUnavailable occurs when price data for a currency is missing.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
