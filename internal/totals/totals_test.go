package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineAmount(t *testing.T) {
	tests := []struct {
		name  string
		qty   int64
		price string
		want  string
	}{
		{"whole", 3, "100.00", "300.00"},
		{"zero quantity", 0, "19.99", "0.00"},
		{"zero price", 5, "0", "0.00"},
		{"rounds half up", 1, "0.005", "0.01"},
		{"fractional product", 3, "33.333", "100.00"},
		{"large", 1000000, "1234.56", "1234560000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineAmount(tt.qty, dec(tt.price))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestCompute_ReferenceDocument(t *testing.T) {
	items := []Item{
		{Description: "Consulting", Quantity: 3, UnitPrice: dec("100.00")},
		{Description: "Travel", Quantity: 1, UnitPrice: dec("50.00")},
	}
	got := Compute(items, dec("7.5"))
	assert.Equal(t, "350.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "26.25", got.Tax.StringFixed(2))
	assert.Equal(t, "376.25", got.Total.StringFixed(2))
}

func TestCompute_SkipsBlankDescriptions(t *testing.T) {
	items := []Item{
		{Description: "Kept", Quantity: 2, UnitPrice: dec("10")},
		{Description: "   ", Quantity: 9, UnitPrice: dec("999")},
		{Description: "", Quantity: 1, UnitPrice: dec("1")},
	}
	got := Compute(items, decimal.Zero)
	assert.Equal(t, "20.00", got.Subtotal.StringFixed(2))
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Total.Equal(got.Subtotal))
}

func TestCompute_TaxRounding(t *testing.T) {
	// 10.05 * 7.5% = 0.75375 -> 0.75; 10.10 * 7.5% = 0.7575 -> 0.76
	assert.Equal(t, "0.75", Compute([]Item{{Description: "a", Quantity: 1, UnitPrice: dec("10.05")}}, dec("7.5")).Tax.StringFixed(2))
	assert.Equal(t, "0.76", Compute([]Item{{Description: "a", Quantity: 1, UnitPrice: dec("10.10")}}, dec("7.5")).Tax.StringFixed(2))
	// Exact half: 0.10 * 5% = 0.005 -> 0.01
	assert.Equal(t, "0.01", Compute([]Item{{Description: "a", Quantity: 1, UnitPrice: dec("0.10")}}, dec("5")).Tax.StringFixed(2))
}

func TestCompute_Properties(t *testing.T) {
	rates := []string{"0", "5", "7.5", "12.345", "100"}
	prices := []string{"0", "0.01", "0.99", "10.10", "1999.995", "123456.78"}
	for _, r := range rates {
		for qty := int64(0); qty < 7; qty++ {
			var items []Item
			sum := decimal.Zero
			for i, p := range prices {
				desc := "item"
				if i%4 == 3 {
					desc = " "
				}
				items = append(items, Item{Description: desc, Quantity: qty + int64(i), UnitPrice: dec(p)})
				if desc != " " {
					sum = sum.Add(Round2(dec(p).Mul(decimal.NewFromInt(qty + int64(i)))))
				}
			}
			got := Compute(items, dec(r))
			assert.True(t, got.Subtotal.Equal(sum), "subtotal rate=%s qty=%d", r, qty)
			assert.True(t, got.Tax.Equal(Round2(sum.Mul(dec(r)).Div(decimal.NewFromInt(100)))), "tax rate=%s", r)
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax)))
		}
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	items := []Item{{Description: "x", Quantity: 2, UnitPrice: dec("1.115")}}
	before := items[0]
	Compute(items, dec("10"))
	assert.Equal(t, before.Description, items[0].Description)
	assert.True(t, before.UnitPrice.Equal(items[0].UnitPrice))
}

func TestCompute_Deterministic(t *testing.T) {
	items := []Item{{Description: "x", Quantity: 7, UnitPrice: dec("13.37")}}
	a := Compute(items, dec("7.5"))
	b := Compute(items, dec("7.5"))
	assert.Equal(t, a.Total.String(), b.Total.String())
	assert.Equal(t, a.Tax.String(), b.Tax.String())
}
