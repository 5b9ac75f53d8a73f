package domain

import (
	"errors" // Sentinel errors

	"github.com/shopspring/decimal" // JSON rendering of money
)

// Error taxonomy shared by the service, the repositories and the HTTP layer.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("order not found")
	ErrStorage     = errors.New("slip storage failed")
	ErrPersistence = errors.New("persistence failed")

	ErrAlreadyApproved   = errors.New("order already approved")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

func init() {
	// Clients read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
