package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrConcurrencyConflict  = errors.New("concurrent operation in progress")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
)
