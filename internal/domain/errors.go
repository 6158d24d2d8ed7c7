package domain

import "errors"

var (
	// ErrAssetNotFound is returned when a symbol is unknown to the store.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNoHistory is returned when a known symbol has no price history.
	ErrNoHistory = errors.New("no historical data")

	// ErrInsufficientData is returned when the history is shorter than the
	// warm-up window the configured strategy needs.
	ErrInsufficientData = errors.New("insufficient historical data")
)
