package promptpay

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	// CRC-16/CCITT-FALSE check value
	assert.Equal(t, "29B1", Checksum("123456789"))
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		amount decimal.Decimal
		want   string
	}{
		{
			name:   "mobile with amount",
			id:     "0611750847",
			amount: decimal.RequireFromString("100.03"),
			want:   "00020101021229370016A000000677010111011300666117508475802TH53037645406100.03630420DE",
		},
		{
			name:   "mobile with dashes and no amount",
			id:     "061-175-0847",
			amount: decimal.Zero,
			want:   "00020101021129370016A000000677010111011300666117508475802TH53037646304C63E",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Payload(tt.id, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadTargets(t *testing.T) {
	got, err := Payload("1234567890123", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Contains(t, got, "02131234567890123")
	assert.Contains(t, got, "54045.00")

	got, err = Payload("123456789012345", decimal.Zero)
	require.NoError(t, err)
	assert.Contains(t, got, "0315123456789012345")

	_, err = Payload("12", decimal.Zero)
	assert.Error(t, err)
}

func TestPayloadChecksumCoversData(t *testing.T) {
	got, err := Payload(MerchantID, decimal.RequireFromString("42.5"))
	require.NoError(t, err)
	body, sum := got[:len(got)-4], got[len(got)-4:]
	assert.True(t, strings.HasSuffix(body, "6304"))
	assert.Equal(t, Checksum(body), sum)
	assert.Contains(t, body, "540542.50")
}

func TestDataURL(t *testing.T) {
	url, err := NewGenerator(MerchantID).DataURL(decimal.RequireFromString("100.05"))
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(url, prefix))
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}

func TestGeneratorRejectsBadID(t *testing.T) {
	_, err := NewGenerator("0").DataURL(decimal.NewFromInt(1))
	assert.Error(t, err)
}
