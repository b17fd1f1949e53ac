package iuran

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service owns fee transaction rules.
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

// List returns one page of transactions.
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	return s.repo.List(ctx, filter)
}

// Find fetches one transaction.
func (s *Service) Find(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.Find(ctx, id)
}

// History returns the audit trail for a transaction.
func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	return s.repo.History(ctx, id)
}

// Stats returns the aggregated dashboard numbers.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, time.Now())
}

// Create validates and stores a new charge. A resident may carry at
// most one charge per category and periode; the repository assigns the
// sequential nomor_urut.
func (s *Service) Create(ctx context.Context, tx Transaction) (*Transaction, error) {
	if err := validate(&tx); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, tx.ResidentID, tx.CategoryID, tx.Periode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTransaction
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.StatusPembayaran == StatusPaid && tx.TanggalBayar == nil {
		now := time.Now()
		tx.TanggalBayar = &now
	}
	if err := s.repo.Create(ctx, &tx); err != nil {
		return nil, err
	}
	s.logger.Info("transaction created",
		"transaction_id", tx.ID, "nomor_urut", tx.NomorUrut, "periode", tx.Periode)
	return s.repo.Find(ctx, tx.ID)
}

// Update rewrites the mutable fields of a charge. A transition into
// PAID stamps tanggal_bayar when the caller left it empty.
func (s *Service) Update(ctx context.Context, tx Transaction, adminID string) (*Transaction, error) {
	if err := validate(&tx); err != nil {
		return nil, err
	}
	current, err := s.repo.Find(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if tx.StatusPembayaran == StatusPaid && tx.TanggalBayar == nil {
		if current.TanggalBayar != nil {
			tx.TanggalBayar = current.TanggalBayar
		} else {
			now := time.Now()
			tx.TanggalBayar = &now
		}
	}
	if err := s.repo.Update(ctx, &tx, adminID); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, tx.ID)
}

// UpdateStatus changes only the payment status.
func (s *Service) UpdateStatus(ctx context.Context, id, status, adminID string) (*Transaction, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	current, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	current.StatusPembayaran = status
	if status == StatusPaid && current.TanggalBayar == nil {
		now := time.Now()
		current.TanggalBayar = &now
	}
	if err := s.repo.Update(ctx, current, adminID); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, id)
}

// Delete removes a charge, keeping its audit trail.
func (s *Service) Delete(ctx context.Context, id, adminID string) error {
	return s.repo.Delete(ctx, id, adminID)
}

func validate(tx *Transaction) error {
	tx.Periode = strings.TrimSpace(tx.Periode)
	if !ValidPeriode(tx.Periode) {
		return ErrInvalidPeriode
	}
	if tx.JumlahNominal <= 0 {
		return ErrAmountRequired
	}
	if tx.MetodePembayaran == "" {
		tx.MetodePembayaran = MethodCash
	}
	if !ValidMethod(tx.MetodePembayaran) {
		return ErrInvalidMethod
	}
	if tx.StatusPembayaran == "" {
		tx.StatusPembayaran = StatusUnpaid
	}
	if !ValidStatus(tx.StatusPembayaran) {
		return ErrInvalidStatus
	}
	return nil
}
