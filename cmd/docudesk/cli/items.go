package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goover/docudesk/internal/documents"
)

// parseItem reads "description:quantity:unitPrice". The description may
// itself contain colons; quantity and price are taken from the right.
func parseItem(s string) (documents.ItemInput, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return documents.ItemInput{}, fmt.Errorf("item %q: want description:quantity:unitPrice", s)
	}
	n := len(parts)
	desc := strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	qty, err := strconv.ParseInt(strings.TrimSpace(parts[n-2]), 10, 64)
	if err != nil {
		return documents.ItemInput{}, fmt.Errorf("item %q: quantity: %w", s, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return documents.ItemInput{}, fmt.Errorf("item %q: unit price: %w", s, err)
	}
	return documents.ItemInput{Description: desc, Quantity: qty, UnitPrice: price}, nil
}

func parseItems(in []string) ([]documents.ItemInput, error) {
	out := make([]documents.ItemInput, 0, len(in))
	for _, s := range in {
		item, err := parseItem(s)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func parseRate(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("tax rate %q: %w", s, err)
	}
	return &d, nil
}

func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("due date %q: want YYYY-MM-DD", s)
	}
	return &t, nil
}
