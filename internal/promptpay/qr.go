package promptpay

import (
	"encoding/base64" // Data URL encoding
	"fmt"             // Error wrapping

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/skip2/go-qrcode"    // QR PNG rendering
)

const (
	MerchantID = "0611750847" // Receives every top-up transfer

	defaultSize = 300 // Pixels per side
)

// Generator renders PromptPay QR codes for one recipient
type Generator struct {
	id   string
	size int
}

// NewGenerator returns a Generator paying into id
func NewGenerator(id string) *Generator {
	return &Generator{id: id, size: defaultSize}
}

// PNG renders the QR image for amount
func (g *Generator) PNG(amount decimal.Decimal) ([]byte, error) {
	payload, err := Payload(g.id, amount)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL renders the QR image for amount as an embeddable data URL
func (g *Generator) DataURL(amount decimal.Decimal) (string, error) {
	png, err := g.PNG(amount)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
