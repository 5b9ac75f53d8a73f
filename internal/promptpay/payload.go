package promptpay

import (
	"fmt"     // Field formatting
	"regexp"  // Id normalisation
	"strings" // Payload assembly

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sigurn/crc16"       // CRC16-CCITT checksum
)

// EMVCo field ids used by PromptPay
const (
	idPayloadFormat       = "00"
	idPOIMethod           = "01"
	idMerchantInformation = "29"
	idCountryCode         = "58"
	idCurrency            = "53"
	idAmount              = "54"
	idCRC                 = "63"

	subGUID      = "00"
	subMobile    = "01"
	subTaxID     = "02"
	subEWallet   = "03"
	promptPayAID = "A000000677010111"

	poiStatic  = "11" // Reusable, no amount
	poiDynamic = "12" // Single use, amount pinned

	currencyTHB = "764"
	countryTH   = "TH"
)

var (
	crcTable    = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)
	nonDigits   = regexp.MustCompile(`\D`)
	leadingZero = regexp.MustCompile(`^0`)
)

func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// Checksum is the CRC16-CCITT (0xFFFF init) of data as 4 upper-case hex digits
func Checksum(data string) string {
	return fmt.Sprintf("%04X", crc16.Checksum([]byte(data), crcTable))
}

// target classifies a PromptPay id and formats it for the merchant template:
// mobile numbers become 13 digits with the 66 country prefix
func target(id string) (sub, value string, err error) {
	digits := nonDigits.ReplaceAllString(id, "")
	switch {
	case len(digits) >= 15:
		return subEWallet, digits, nil
	case len(digits) >= 13:
		return subTaxID, digits, nil
	case len(digits) >= 9:
		mobile := leadingZero.ReplaceAllString(digits, "66")
		return subMobile, strings.Repeat("0", 13-len(mobile)) + mobile, nil
	default:
		return "", "", fmt.Errorf("promptpay id %q is too short", id)
	}
}

// Payload returns the PromptPay payload for id. A positive amount makes the
// code dynamic and pins the transfer amount to two decimals
func Payload(id string, amount decimal.Decimal) (string, error) {
	sub, value, err := target(id)
	if err != nil {
		return "", err
	}
	poi := poiStatic
	if amount.IsPositive() {
		poi = poiDynamic
	}

	var b strings.Builder
	b.WriteString(field(idPayloadFormat, "01"))
	b.WriteString(field(idPOIMethod, poi))
	b.WriteString(field(idMerchantInformation, field(subGUID, promptPayAID)+field(sub, value)))
	b.WriteString(field(idCountryCode, countryTH))
	b.WriteString(field(idCurrency, currencyTHB))
	if amount.IsPositive() {
		b.WriteString(field(idAmount, amount.StringFixed(2)))
	}
	// The checksum covers its own id and length
	b.WriteString(idCRC + "04")
	data := b.String()
	return data + Checksum(data), nil
}
