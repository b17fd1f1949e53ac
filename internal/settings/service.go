package settings

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Service owns the settings singleton and keeps a cached copy for the
// maintenance middleware, which runs on every request.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	cached atomic.Pointer[Settings]
}

// NewService constructs a Service and primes the cache.
func NewService(ctx context.Context, logger *slog.Logger, repo RepositoryPort) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{logger: logger, repo: repo}
	current, err := repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cached.Store(current)
	return s, nil
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// Current returns the cached settings without touching the database.
func (s *Service) Current() Settings {
	return *s.cached.Load()
}

// Update persists new settings and refreshes the cache.
func (s *Service) Update(ctx context.Context, next Settings) (*Settings, error) {
	if next.DashboardName == "" {
		next.DashboardName = Defaults().DashboardName
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, err
	}
	saved, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cached.Store(saved)
	s.logger.Info("settings updated", "maintenance_mode", saved.MaintenanceMode)
	return saved, nil
}

// Reset restores the factory defaults.
func (s *Service) Reset(ctx context.Context) (*Settings, error) {
	return s.Update(ctx, Defaults())
}
