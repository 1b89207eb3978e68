package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goover/docudesk/internal/shared"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// EnsureByName returns the stored customer whose name matches c.Name
// case-insensitively, creating one from c when none exists. Existing
// records are never updated.
func (s *Service) EnsureByName(ctx context.Context, c Customer) (*Customer, bool, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := shared.ValidateStruct(c); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByName(ctx, c.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("find customer: %w", err)
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC().Truncate(time.Second)
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, false, fmt.Errorf("create customer: %w", err)
	}
	c.ID = id
	c.NameKey = NameKey(c.Name)
	s.logger.Info("customer created", slog.Int64("id", id), slog.String("name", c.Name))
	return &c, true, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List returns customers ordered by name, filtered by a case-insensitive
// substring over name, email and phone.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	q := strings.TrimSpace(req.Search)
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if !c.matches(q) {
			continue
		}
		out = append(out, c)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}
