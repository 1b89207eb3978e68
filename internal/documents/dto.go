package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// CustomerInput is the bill-to party as entered on the form.
type CustomerInput struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ItemInput is a line item as entered. Amount is never accepted from callers.
type ItemInput struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateDocumentRequest creates a new draft document. A nil TaxRate or empty
// Currency falls back to the company settings.
type CreateDocumentRequest struct {
	Type     Type             `json:"type" validate:"oneof=invoice quotation waybill"`
	Customer CustomerInput    `json:"customer"`
	Items    []ItemInput      `json:"items" validate:"dive"`
	TaxRate  *decimal.Decimal `json:"taxRate,omitempty"`
	Currency shared.Currency  `json:"currency,omitempty" validate:"omitempty,oneof=NGN USD EUR GBP"`
	Notes    string           `json:"notes,omitempty"`
	DueDate  *time.Time       `json:"dueDate,omitempty"`
}

// UpdateDocumentRequest rewrites a document's content. Type, serial number,
// creation time and status are kept from the stored record.
type UpdateDocumentRequest struct {
	Customer CustomerInput    `json:"customer"`
	Items    []ItemInput      `json:"items" validate:"dive"`
	TaxRate  *decimal.Decimal `json:"taxRate,omitempty"`
	Currency shared.Currency  `json:"currency,omitempty" validate:"omitempty,oneof=NGN USD EUR GBP"`
	Notes    string           `json:"notes,omitempty"`
	DueDate  *time.Time       `json:"dueDate,omitempty"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status Status `json:"status" validate:"oneof=sent paid cancelled"`
}

// ListDocumentsRequest filters the document list. Empty fields match all.
type ListDocumentsRequest struct {
	Type   Type   `json:"type,omitempty" validate:"omitempty,oneof=invoice quotation waybill"`
	Status Status `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid cancelled"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
}

// PreviewRequest computes totals for unsaved items.
type PreviewRequest struct {
	Items   []ItemInput     `json:"items" validate:"dive"`
	TaxRate decimal.Decimal `json:"taxRate"`
}

// Preview is the live-form view of an unsaved document.
type Preview struct {
	Items []LineItem `json:"items"`
	totals.Totals
}
