package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goover/docudesk/internal/platform/store"
	"github.com/goover/docudesk/internal/shared"
)

// Service owns the settings singleton.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Load returns the settings singleton, creating it from Defaults on first
// access and upgrading legacy shapes in place. When the store is unavailable
// it returns in-memory defaults without persisting them.
func (s *Service) Load(ctx context.Context) (CompanySettings, error) {
	recs, err := s.store.All(ctx, store.Settings, store.AllQuery{Limit: 1})
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", slog.Any("error", err))
		return Defaults(), nil
	}

	if len(recs) == 0 {
		cs := Defaults()
		data, err := json.Marshal(cs)
		if err != nil {
			return CompanySettings{}, fmt.Errorf("settings: encode defaults: %w", err)
		}
		id, err := s.store.Add(ctx, store.Settings, data)
		if err != nil {
			s.logger.Warn("persist default settings", slog.Any("error", err))
			return cs, nil
		}
		cs.ID = id
		s.logger.Info("default settings created", slog.Int64("id", id))
		return cs, nil
	}

	return s.decodeAndMigrate(ctx, recs[0])
}

func (s *Service) decodeAndMigrate(ctx context.Context, rec store.Record) (CompanySettings, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.Data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return CompanySettings{}, fmt.Errorf("settings: decode record %d: %w", rec.ID, err)
	}

	migrated, changed := Migrate(raw)
	data, err := json.Marshal(migrated)
	if err != nil {
		return CompanySettings{}, fmt.Errorf("settings: encode migrated record: %w", err)
	}
	var cs CompanySettings
	if err := json.Unmarshal(data, &cs); err != nil {
		return CompanySettings{}, fmt.Errorf("settings: decode migrated record: %w", err)
	}
	cs.ID = rec.ID

	if changed {
		if err := s.put(ctx, cs); err != nil {
			s.logger.Warn("re-save migrated settings", slog.Any("error", err))
		} else {
			s.logger.Info("settings migrated", slog.Int("schema_version", cs.SchemaVersion))
		}
	}
	return cs, nil
}

// Save validates and upserts the singleton. Fully blank bank-account rows are
// dropped first; at least one complete account must remain.
func (s *Service) Save(ctx context.Context, cs CompanySettings) (CompanySettings, error) {
	cs = normalize(cs)
	if err := validate(cs); err != nil {
		return CompanySettings{}, err
	}
	cs.SchemaVersion = CurrentSchemaVersion

	if cs.ID == 0 {
		current, err := s.store.All(ctx, store.Settings, store.AllQuery{Limit: 1})
		if err != nil {
			return CompanySettings{}, fmt.Errorf("settings: locate singleton: %w", err)
		}
		if len(current) > 0 {
			cs.ID = current[0].ID
		}
	}

	if cs.ID == 0 {
		data, err := json.Marshal(cs)
		if err != nil {
			return CompanySettings{}, fmt.Errorf("settings: encode: %w", err)
		}
		id, err := s.store.Add(ctx, store.Settings, data)
		if err != nil {
			return CompanySettings{}, fmt.Errorf("settings: save: %w", err)
		}
		cs.ID = id
		return cs, nil
	}
	if err := s.put(ctx, cs); err != nil {
		return CompanySettings{}, fmt.Errorf("settings: save: %w", err)
	}
	return cs, nil
}

func (s *Service) put(ctx context.Context, cs CompanySettings) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, store.Settings, store.Record{ID: cs.ID, Data: data})
}

func normalize(cs CompanySettings) CompanySettings {
	cs.Name = strings.TrimSpace(cs.Name)
	accounts := make([]BankAccount, 0, len(cs.BankAccounts))
	for _, a := range cs.BankAccounts {
		a.BankName = strings.TrimSpace(a.BankName)
		a.AccountName = strings.TrimSpace(a.AccountName)
		a.AccountNumber = strings.TrimSpace(a.AccountNumber)
		if a.blank() {
			continue
		}
		accounts = append(accounts, a)
	}
	cs.BankAccounts = accounts
	return cs
}

func validate(cs CompanySettings) error {
	verr := &shared.ValidationError{}
	if err := shared.ValidateStruct(cs); err != nil {
		ve, ok := err.(*shared.ValidationError)
		if !ok {
			return err
		}
		verr = ve
	}
	if cs.TaxRate.IsNegative() {
		verr.Add("taxRate", "must be greater than or equal to 0")
	}
	return verr.OrNil()
}
