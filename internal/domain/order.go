package domain

import (
	"time" // Creation timestamp

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// OrderStatus is the approval state of a top-up order
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"  // Waiting for an admin
	OrderStatusApproved OrderStatus = "approved" // Terminal, balance credited
)

// Order Model
type Order struct {
	ID             string          `gorm:"primaryKey;size:36" json:"_id"`                        // Primary key (uuid), exposed to clients
	Email          string          `gorm:"index;size:255;not null" json:"email"`                 // Purchaser email
	OriginalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"originalAmount"`    // Amount credited on approval
	FinalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"finalAmount"`       // Amount encoded in the QR code
	Status         OrderStatus     `gorm:"size:16;not null;default:pending;index" json:"status"` // pending or approved
	Slip           string          `gorm:"size:512" json:"slip,omitempty"`                       // Filename or URL of the payment slip
	CreatedAt      time.Time       `gorm:"index" json:"createdAt"`                               // Set on insert
}

// IsApproved reports whether the order reached its terminal state
func (o *Order) IsApproved() bool {
	return o.Status == OrderStatusApproved
}

// SlipUpload points at an uploaded slip waiting in temporary storage
type SlipUpload struct {
	Path     string // Temporary file on local disk
	Filename string // Name supplied by the client
}
