package api

import (
	"context"                      // Request scoped cancellation
	"topup_system/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// TopupService is the business logic behind the HTTP routes
type TopupService interface {
	CreateOrder(ctx context.Context, email string, amount decimal.Decimal) (*domain.Order, string, error)
	UploadSlip(ctx context.Context, id string, slip *domain.SlipUpload) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ApproveOrder(ctx context.Context, id string) (*domain.User, error)
	Buy(ctx context.Context, email string, price decimal.Decimal) (*domain.User, error)
	GetBalance(ctx context.Context, email string) (*domain.User, error)
	ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error)
}

// Response messages
const (
	msgMissingData     = "Missing data"
	msgServerError     = "Server error"
	msgOrderNotFound   = "Order not found"
	msgNoFile          = "No file uploaded"
	msgUploadError     = "Upload error"
	msgSlipUploaded    = "Slip uploaded"
	msgFetchOrders     = "Error fetching orders"
	msgAlreadyApproved = "Already approved"
	msgApproved        = "Order approved and balance updated"
	msgApproveError    = "Error approving order"
	msgUserNotFound    = "User not found"
	msgNoFunds         = "Insufficient funds"
	msgBought          = "Purchase successful"
	msgBuyError        = "Error buying"
	msgFetchLedger     = "Error fetching transactions"
	msgBalanceError    = "Error fetching balance"
)

// MessageResponse is the body of every non-listing response
type MessageResponse struct {
	Message string `json:"message"` // Human readable outcome
}
