package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// Type is the kind of business document.
type Type string

const (
	TypeInvoice   Type = "invoice"
	TypeQuotation Type = "quotation"
	TypeWaybill   Type = "waybill"
)

// Types lists every document type in display order.
var Types = []Type{TypeInvoice, TypeQuotation, TypeWaybill}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// transitions lists the statuses reachable from each status. Paid and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusPaid, StatusCancelled},
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// LineItem is one row of a document's item table. Amount is always derived
// from Quantity and UnitPrice.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// Document is an invoice, quotation or waybill. Customer is a snapshot taken
// at save time, not a reference to the customers collection.
type Document struct {
	ID           int64              `json:"id,omitempty"`
	SerialNumber string             `json:"serialNumber"`
	Type         Type               `json:"type"`
	Customer     customers.Customer `json:"customer"`
	Items        []LineItem         `json:"items"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Tax          decimal.Decimal    `json:"tax"`
	TaxRate      decimal.Decimal    `json:"taxRate"`
	Total        decimal.Decimal    `json:"total"`
	Currency     shared.Currency    `json:"currency"`
	Notes        string             `json:"notes,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	DueDate      *time.Time         `json:"dueDate,omitempty"`
	Status       Status             `json:"status"`
}

// FileName is the export artifact name, <type>-<serial>.pdf.
func (d Document) FileName() string {
	return string(d.Type) + "-" + d.SerialNumber + ".pdf"
}

func calculatorItems(items []LineItem) []totals.Item {
	out := make([]totals.Item, len(items))
	for i, it := range items {
		out[i] = totals.Item{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// Stats summarises the document collection for the dashboard. Money is
// grouped by currency; amounts in different currencies are never summed.
type Stats struct {
	Counts  map[Type]int                        `json:"counts"`
	Revenue map[shared.Currency]decimal.Decimal `json:"revenue"`
	Pending map[shared.Currency]decimal.Decimal `json:"pending"`
	Recent  []Document                          `json:"recent"`
}
