package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eresidence/eresidence/internal/iuran"
)

// Service assembles the landing-page statistics. The independent
// aggregate reads are fanned out concurrently; any single failure fails
// the whole payload.
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

// Stats gathers the dashboard numbers for the month containing now.
func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	periode := now.Format("2006-01")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalWarga, err = s.repo.CountResidents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.WargaMenunggak, err = s.repo.CountResidentsInArrears(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendapatanBulanan, err = s.repo.MonthlyIncome(gctx, periode)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TunggakanTotal, err = s.repo.OutstandingAmount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Arrears, err = s.repo.ArrearsSummary(gctx, 10)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Recent, err = s.repo.RecentTransactions(gctx, 5)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.Recent == nil {
		stats.Recent = []iuran.Transaction{}
	}
	return stats, nil
}
