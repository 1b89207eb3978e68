package documents

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/settings"
	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// RecentLimit is the number of documents shown on the dashboard.
const RecentLimit = 5

// SerialSource issues document serial numbers.
type SerialSource interface {
	Next(ctx context.Context, docType string) (string, error)
}

// CustomerSaver records bill-to parties for later re-use.
type CustomerSaver interface {
	EnsureByName(ctx context.Context, c customers.Customer) (*customers.Customer, bool, error)
}

// SettingsSource resolves the company settings singleton.
type SettingsSource interface {
	Load(ctx context.Context) (settings.CompanySettings, error)
}

// Service is the document lifecycle controller.
type Service struct {
	repo      Repository
	serials   SerialSource
	customers CustomerSaver
	settings  SettingsSource
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, serials SerialSource, cust CustomerSaver, cfg SettingsSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		serials:   serials,
		customers: cust,
		settings:  cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Create validates req, assigns a serial number and stores a new draft. The
// bill-to party is saved as a customer afterwards when no customer with the
// same name exists. A storage failure on the document itself is returned to
// the caller; there is no fallback.
func (s *Service) Create(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	if err := validateContent(req, req.Items, req.TaxRate); err != nil {
		return nil, err
	}
	rate, currency, err := s.resolveDefaults(ctx, req.TaxRate, req.Currency)
	if err != nil {
		return nil, err
	}

	serial, err := s.serials.Next(ctx, string(req.Type))
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	now := s.timestamp()
	doc := Document{
		SerialNumber: serial,
		Type:         req.Type,
		Customer:     snapshot(req.Customer, now),
		Items:        buildItems(req.Items, true),
		TaxRate:      rate,
		Currency:     currency,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
		DueDate:      utcDate(req.DueDate),
		Status:       StatusDraft,
	}
	applyTotals(&doc)

	id, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	doc.ID = id
	s.logger.Info("document created",
		slog.Int64("id", id),
		slog.String("serial", serial),
		slog.String("type", string(doc.Type)),
	)

	if _, created, err := s.customers.EnsureByName(ctx, doc.Customer); err != nil {
		s.logger.Warn("save customer", slog.String("name", doc.Customer.Name), slog.Any("error", err))
	} else if created {
		s.logger.Debug("customer saved from document", slog.String("serial", serial))
	}
	return &doc, nil
}

// Update rewrites a document's content and recomputes its totals. Serial
// number, type, creation time and status are preserved.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	if err := validateContent(req, req.Items, req.TaxRate); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	rate := existing.TaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	currency := existing.Currency
	if req.Currency != "" {
		currency = req.Currency
	}

	doc := *existing
	doc.Customer = snapshot(req.Customer, existing.Customer.CreatedAt)
	doc.Items = buildItems(req.Items, true)
	doc.TaxRate = rate
	doc.Currency = currency
	doc.Notes = strings.TrimSpace(req.Notes)
	doc.DueDate = utcDate(req.DueDate)
	doc.UpdatedAt = s.timestamp()
	applyTotals(&doc)

	if err := s.repo.Replace(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	s.logger.Info("document updated", slog.Int64("id", id), slog.String("serial", doc.SerialNumber))
	return &doc, nil
}

// Transition moves a document to status to. Requests out of a terminal status
// or along an edge the lifecycle does not have fail with
// shared.ErrInvalidTransition and leave the stored document untouched.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("transition document: %w", err)
	}
	if !CanTransition(doc.Status, to) {
		return nil, fmt.Errorf("document %s: %s to %s: %w", doc.SerialNumber, doc.Status, to, shared.ErrInvalidTransition)
	}
	at := s.timestamp()
	if err := s.repo.SetStatus(ctx, id, to, at); err != nil {
		return nil, fmt.Errorf("transition document: %w", err)
	}
	s.logger.Info("document status changed",
		slog.String("serial", doc.SerialNumber),
		slog.String("from", string(doc.Status)),
		slog.String("to", string(to)),
	)
	doc.Status = to
	doc.UpdatedAt = at
	return doc, nil
}

func (s *Service) MarkSent(ctx context.Context, id int64) (*Document, error) {
	return s.Transition(ctx, id, StatusSent)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*Document, error) {
	return s.Transition(ctx, id, StatusPaid)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Document, error) {
	return s.Transition(ctx, id, StatusCancelled)
}

// Delete removes a document permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("document deleted", slog.Int64("id", id), slog.String("serial", doc.SerialNumber))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetBySerial looks a document up by its serial number.
func (s *Service) GetBySerial(ctx context.Context, serial string) (*Document, error) {
	doc, err := s.repo.FindBySerial(ctx, strings.TrimSpace(serial))
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns documents newest first. Search matches the serial number or
// the customer name, case-insensitively.
func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, req.Type)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(req.Search))
	out := make([]Document, 0, len(all))
	for _, d := range all {
		if req.Status != "" && d.Status != req.Status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.SerialNumber), q) &&
			!strings.Contains(strings.ToLower(d.Customer.Name), q) {
			continue
		}
		out = append(out, d)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

// Stats computes the dashboard summary.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	st := &Stats{
		Counts:  make(map[Type]int, len(Types)),
		Revenue: make(map[shared.Currency]decimal.Decimal),
		Pending: make(map[shared.Currency]decimal.Decimal),
	}
	for _, t := range Types {
		st.Counts[t] = 0
	}
	for _, d := range all {
		st.Counts[d.Type]++
		if d.Type != TypeInvoice {
			continue
		}
		switch d.Status {
		case StatusPaid:
			st.Revenue[d.Currency] = st.Revenue[d.Currency].Add(d.Total)
		case StatusDraft, StatusSent:
			st.Pending[d.Currency] = st.Pending[d.Currency].Add(d.Total)
		}
	}
	st.Recent = all[:min(RecentLimit, len(all))]
	return st, nil
}

// Preview prices unsaved items with the same calculator used at save time.
func (s *Service) Preview(req PreviewRequest) (*Preview, error) {
	verr := &shared.ValidationError{}
	if err := shared.ValidateStruct(req); err != nil {
		ve, ok := err.(*shared.ValidationError)
		if !ok {
			return nil, err
		}
		verr = ve
	}
	checkMoney(verr, req.Items, &req.TaxRate)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	items := buildItems(req.Items, false)
	return &Preview{
		Items:  items,
		Totals: totals.Compute(calculatorItems(items), req.TaxRate),
	}, nil
}

func (s *Service) resolveDefaults(ctx context.Context, rate *decimal.Decimal, currency shared.Currency) (decimal.Decimal, shared.Currency, error) {
	if rate != nil && currency != "" {
		return *rate, currency, nil
	}
	cs, err := s.settings.Load(ctx)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("load settings: %w", err)
	}
	r := cs.TaxRate
	if rate != nil {
		r = *rate
	}
	if currency == "" {
		currency = cs.DefaultCurrency
	}
	return r, currency, nil
}

func validateContent(req any, items []ItemInput, rate *decimal.Decimal) error {
	verr := &shared.ValidationError{}
	if err := shared.ValidateStruct(req); err != nil {
		ve, ok := err.(*shared.ValidationError)
		if !ok {
			return err
		}
		verr = ve
	}
	hasItem := false
	for _, it := range items {
		if totals.Counts(it.Description) {
			hasItem = true
			break
		}
	}
	if !hasItem {
		verr.Add("items", "at least one item needs a description")
	}
	checkMoney(verr, items, rate)
	return verr.OrNil()
}

func checkMoney(verr *shared.ValidationError, items []ItemInput, rate *decimal.Decimal) {
	for i, it := range items {
		if it.UnitPrice.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].unitPrice", i), "must be greater than or equal to 0")
		}
	}
	if rate != nil && rate.IsNegative() {
		verr.Add("taxRate", "must be greater than or equal to 0")
	}
}

// buildItems converts form rows into line items with derived amounts. With
// dropBlank set, rows without a description are discarded.
func buildItems(in []ItemInput, dropBlank bool) []LineItem {
	out := make([]LineItem, 0, len(in))
	for _, it := range in {
		if dropBlank && !totals.Counts(it.Description) {
			continue
		}
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, LineItem{
			ID:          id,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      totals.LineAmount(it.Quantity, it.UnitPrice),
		})
	}
	return out
}

func applyTotals(doc *Document) {
	t := totals.Compute(calculatorItems(doc.Items), doc.TaxRate)
	doc.Subtotal, doc.Tax, doc.Total = t.Subtotal, t.Tax, t.Total
}

func snapshot(in CustomerInput, createdAt time.Time) customers.Customer {
	return customers.Customer{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: createdAt,
	}
}

func utcDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC().Truncate(time.Second)
	return &u
}

func sortNewestFirst(docs []Document) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
