package layout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/goover/docudesk/internal/shared"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency shared.Currency
		want     string
	}{
		{"1234.5", shared.CurrencyNGN, "N 1,234.50"},
		{"0", shared.CurrencyUSD, "$ 0.00"},
		{"1000000", shared.CurrencyEUR, "EUR 1,000,000.00"},
		{"12.345", shared.CurrencyGBP, "GBP 12.35"},
		{"999.999", shared.CurrencyNGN, "N 1,000.00"},
		{"-1234.5", shared.CurrencyUSD, "$ -1,234.50"},
		{"5", "JPY", "JPY 5.00"},
		{"9223372036854775807", shared.CurrencyNGN, "N 9,223,372,036,854,775,807.00"},
		{"9223372036854775808", shared.CurrencyNGN, "N 9,223,372,036,854,775,808.00"},
		{"123456789012345678901234.5", shared.CurrencyUSD, "$ 123,456,789,012,345,678,901,234.50"},
		{"-9223372036854775809", shared.CurrencyGBP, "GBP -9,223,372,036,854,775,809.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "7 March 2025", FormatDate(time.Date(2025, time.March, 7, 23, 0, 0, 0, time.UTC)))
}
