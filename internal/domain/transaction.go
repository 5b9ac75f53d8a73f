package domain

import (
	"time" // Creation timestamp

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Ledger entry types
const (
	TransactionTypeTopup    = "topup"    // Credit from an approved order
	TransactionTypePurchase = "purchase" // Debit from /buy
)

// Transaction Model, one row per balance change
type Transaction struct {
	ID        string          `gorm:"primaryKey;size:36" json:"_id"`             // Primary key (uuid)
	Email     string          `gorm:"index;size:255;not null" json:"email"`      // Owner of the balance
	OrderID   string          `gorm:"size:36;index" json:"orderId,omitempty"`    // Source order, empty for purchases
	Type      string          `gorm:"size:16;not null" json:"type"`              // topup or purchase
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"` // Always positive
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`                    // Set on insert
}
