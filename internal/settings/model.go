package settings

import (
	"github.com/shopspring/decimal"

	"github.com/goover/docudesk/internal/shared"
)

// BankAccount is one set of payment details printed on invoices.
type BankAccount struct {
	BankName      string          `json:"bankName" validate:"notblank"`
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber" validate:"notblank"`
	Currency      shared.Currency `json:"currency,omitempty" validate:"omitempty,oneof=NGN USD EUR GBP"`
}

func (a BankAccount) blank() bool {
	return a.BankName == "" && a.AccountName == "" && a.AccountNumber == ""
}

// Assets locates branding images. Values are file paths or http(s) URLs.
type Assets struct {
	// Letterhead is a full-page background repeated on every page.
	Letterhead string `json:"letterhead,omitempty"`
	// Header is a top band drawn on the first page only.
	Header string `json:"header,omitempty"`
	// Signature is drawn above the signature rule.
	Signature string `json:"signature,omitempty"`
}

// CompanySettings is the singleton issuer profile.
type CompanySettings struct {
	ID                    int64           `json:"id,omitempty"`
	SchemaVersion         int             `json:"schemaVersion"`
	Name                  string          `json:"name" validate:"notblank"`
	RegNumber             string          `json:"regNumber,omitempty"`
	Address               string          `json:"address"`
	Phone                 string          `json:"phone"`
	Email                 string          `json:"email"`
	TechnicalDirectorName string          `json:"technicalDirectorName,omitempty"`
	BankAccounts          []BankAccount   `json:"bankAccounts" validate:"min=1,dive"`
	TaxRate               decimal.Decimal `json:"taxRate"`
	DefaultCurrency       shared.Currency `json:"defaultCurrency" validate:"oneof=NGN USD EUR GBP"`
	Assets                Assets          `json:"assets"`
}

// Defaults returns the built-in profile used until the user saves their own.
func Defaults() CompanySettings {
	return CompanySettings{
		SchemaVersion: CurrentSchemaVersion,
		Name:          "GOOVEREVERYTHING",
		Address:       "Lagos, Nigeria",
		Phone:         "+234 XXX XXX XXXX",
		Email:         "info@goovereverything.com",
		BankAccounts: []BankAccount{{
			BankName:      "Your Bank Name",
			AccountName:   "GOOVEREVERYTHING",
			AccountNumber: "XXXXXXXXXX",
			Currency:      shared.CurrencyNGN,
		}},
		TaxRate:         decimal.RequireFromString("7.5"),
		DefaultCurrency: shared.CurrencyNGN,
	}
}
