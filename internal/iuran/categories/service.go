package categories

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// DeleteOutcome tells the caller whether a delete removed the row or
// only deactivated it.
type DeleteOutcome int

const (
	// OutcomeDeleted means the category row was removed.
	OutcomeDeleted DeleteOutcome = iota
	// OutcomeDeactivated means transactions still reference the category,
	// so it was flagged inactive instead.
	OutcomeDeactivated
)

// Service owns category lifecycle rules.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo RepositoryPort) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo}
}

// List returns categories, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.repo.List(ctx, activeOnly)
}

// Find fetches one category.
func (s *Service) Find(ctx context.Context, id string) (*Category, error) {
	return s.repo.Find(ctx, id)
}

// Create stores a new category.
func (s *Service) Create(ctx context.Context, category Category) (*Category, error) {
	category.NamaKategori = strings.TrimSpace(category.NamaKategori)
	if category.NamaKategori == "" {
		return nil, ErrNameRequired
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.IsActive = true
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, category.ID)
}

// Update rewrites a category.
func (s *Service) Update(ctx context.Context, category Category) (*Category, error) {
	category.NamaKategori = strings.TrimSpace(category.NamaKategori)
	if category.NamaKategori == "" {
		return nil, ErrNameRequired
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, category.ID)
}

// Delete removes a category when nothing references it. A category with
// transaction history is deactivated instead, keeping old records
// readable.
func (s *Service) Delete(ctx context.Context, id string) (DeleteOutcome, error) {
	if _, err := s.repo.Find(ctx, id); err != nil {
		return OutcomeDeleted, err
	}
	count, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return OutcomeDeleted, err
	}
	if count > 0 {
		if err := s.repo.Deactivate(ctx, id); err != nil {
			return OutcomeDeleted, err
		}
		s.logger.Info("category deactivated instead of deleted", "category_id", id, "transactions", count)
		return OutcomeDeactivated, nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return OutcomeDeleted, err
	}
	return OutcomeDeleted, nil
}
