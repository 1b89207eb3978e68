package settings

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/goover/docudesk/internal/shared"
)

// fileSettings is the YAML shape used by export/import. Money is a string so
// the file round-trips without float noise.
type fileSettings struct {
	Name                  string        `yaml:"name"`
	RegNumber             string        `yaml:"regNumber,omitempty"`
	Address               string        `yaml:"address"`
	Phone                 string        `yaml:"phone"`
	Email                 string        `yaml:"email"`
	TechnicalDirectorName string        `yaml:"technicalDirectorName,omitempty"`
	TaxRate               string        `yaml:"taxRate"`
	DefaultCurrency       string        `yaml:"defaultCurrency"`
	BankAccounts          []fileAccount `yaml:"bankAccounts"`
	Assets                fileAssets    `yaml:"assets,omitempty"`
}

type fileAccount struct {
	BankName      string `yaml:"bankName"`
	AccountName   string `yaml:"accountName"`
	AccountNumber string `yaml:"accountNumber"`
	Currency      string `yaml:"currency,omitempty"`
}

type fileAssets struct {
	Letterhead string `yaml:"letterhead,omitempty"`
	Header     string `yaml:"header,omitempty"`
	Signature  string `yaml:"signature,omitempty"`
}

// Export writes the current settings as YAML.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	cs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	f := fileSettings{
		Name:                  cs.Name,
		RegNumber:             cs.RegNumber,
		Address:               cs.Address,
		Phone:                 cs.Phone,
		Email:                 cs.Email,
		TechnicalDirectorName: cs.TechnicalDirectorName,
		TaxRate:               cs.TaxRate.String(),
		DefaultCurrency:       string(cs.DefaultCurrency),
		Assets:                fileAssets(cs.Assets),
	}
	for _, a := range cs.BankAccounts {
		f.BankAccounts = append(f.BankAccounts, fileAccount{
			BankName:      a.BankName,
			AccountName:   a.AccountName,
			AccountNumber: a.AccountNumber,
			Currency:      string(a.Currency),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("settings: encode yaml: %w", err)
	}
	return enc.Close()
}

// Import replaces the singleton with the settings read from YAML.
func (s *Service) Import(ctx context.Context, r io.Reader) (CompanySettings, error) {
	var f fileSettings
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return CompanySettings{}, shared.NewValidationError("file", fmt.Sprintf("invalid yaml: %v", err))
	}
	rate := decimal.Zero
	if f.TaxRate != "" {
		var err error
		rate, err = decimal.NewFromString(f.TaxRate)
		if err != nil {
			return CompanySettings{}, shared.NewValidationError("taxRate", "must be a number")
		}
	}
	cs := CompanySettings{
		Name:                  f.Name,
		RegNumber:             f.RegNumber,
		Address:               f.Address,
		Phone:                 f.Phone,
		Email:                 f.Email,
		TechnicalDirectorName: f.TechnicalDirectorName,
		TaxRate:               rate,
		DefaultCurrency:       shared.Currency(f.DefaultCurrency),
		Assets:                Assets(f.Assets),
	}
	for _, a := range f.BankAccounts {
		cs.BankAccounts = append(cs.BankAccounts, BankAccount{
			BankName:      a.BankName,
			AccountName:   a.AccountName,
			AccountNumber: a.AccountNumber,
			Currency:      shared.Currency(a.Currency),
		})
	}
	return s.Save(ctx, cs)
}
