package domain

import "github.com/shopspring/decimal" // Exact money arithmetic

// User Model
type User struct {
	ID      string          `gorm:"primaryKey;size:36" json:"_id"`                        // Primary key (uuid)
	Email   string          `gorm:"uniqueIndex;size:255;not null" json:"email"`           // Logical key, trusted as supplied
	Balance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"` // Spendable balance
}
