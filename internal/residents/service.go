package residents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Service owns registry rules.
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

// List returns residents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Resident, error) {
	return s.repo.List(ctx, filter)
}

// Find fetches one resident.
func (s *Service) Find(ctx context.Context, id string) (*Resident, error) {
	return s.repo.Find(ctx, id)
}

// Create stores a new resident record.
func (s *Service) Create(ctx context.Context, resident Resident) (*Resident, error) {
	resident.NamaWarga = strings.TrimSpace(resident.NamaWarga)
	if resident.NamaWarga == "" {
		return nil, ErrNameRequired
	}
	if resident.ID == "" {
		resident.ID = uuid.NewString()
	}
	if resident.Status == "" {
		resident.Status = StatusActive
	}
	if resident.JumlahAnggota <= 0 {
		resident.JumlahAnggota = 1
	}
	if err := s.repo.Create(ctx, resident); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, resident.ID)
}

// Update rewrites a resident record.
func (s *Service) Update(ctx context.Context, resident Resident) (*Resident, error) {
	resident.NamaWarga = strings.TrimSpace(resident.NamaWarga)
	if resident.NamaWarga == "" {
		return nil, ErrNameRequired
	}
	if err := s.repo.Update(ctx, resident); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, resident.ID)
}

// Delete removes a resident.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
