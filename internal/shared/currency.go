package shared

// Currency is an ISO 4217 code supported by documents and settings.
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists every supported currency in display order.
var Currencies = []Currency{CurrencyNGN, CurrencyUSD, CurrencyEUR, CurrencyGBP}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}
