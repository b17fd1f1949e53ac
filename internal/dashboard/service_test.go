package dashboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/dashboard"
	"github.com/eresidence/eresidence/internal/iuran"
	_ "github.com/eresidence/eresidence/testing"
)

type stubStatsRepo struct {
	total       int64
	arrearCount int64
	income      int64
	outstanding int64
	arrears     []dashboard.ArrearsRow
	recent      []iuran.Transaction
	incomeErr   error
}

func (s *stubStatsRepo) CountResidents(ctx context.Context) (int64, error) {
	return s.total, nil
}

func (s *stubStatsRepo) CountResidentsInArrears(ctx context.Context) (int64, error) {
	return s.arrearCount, nil
}

func (s *stubStatsRepo) MonthlyIncome(ctx context.Context, periode string) (int64, error) {
	if s.incomeErr != nil {
		return 0, s.incomeErr
	}
	return s.income, nil
}

func (s *stubStatsRepo) OutstandingAmount(ctx context.Context) (int64, error) {
	return s.outstanding, nil
}

func (s *stubStatsRepo) ArrearsSummary(ctx context.Context, limit int) ([]dashboard.ArrearsRow, error) {
	return s.arrears, nil
}

func (s *stubStatsRepo) RecentTransactions(ctx context.Context, limit int) ([]iuran.Transaction, error) {
	return s.recent, nil
}

func TestStatsAggregatesAllReads(t *testing.T) {
	repo := &stubStatsRepo{
		total:       120,
		arrearCount: 14,
		income:      3500000,
		outstanding: 900000,
		arrears: []dashboard.ArrearsRow{
			{ResidentID: "r1", NamaWarga: "Pak Budi", NomorRumah: "A-1", JumlahTunggakan: 150000, JumlahTagihan: 3},
		},
		recent: []iuran.Transaction{{ID: "t1", ResidentName: "Bu Ani"}},
	}
	svc := dashboard.NewService(nil, repo)

	stats, err := svc.Stats(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(120), stats.TotalWarga)
	assert.Equal(t, int64(14), stats.WargaMenunggak)
	assert.Equal(t, int64(3500000), stats.PendapatanBulanan)
	assert.Equal(t, int64(900000), stats.TunggakanTotal)
	assert.Len(t, stats.Arrears, 1)
	assert.Len(t, stats.Recent, 1)
}

func TestStatsFailsWhenAnyReadFails(t *testing.T) {
	repo := &stubStatsRepo{incomeErr: errors.New("connection reset")}
	svc := dashboard.NewService(nil, repo)

	_, err := svc.Stats(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestStatsEmptyRecentIsNotNil(t *testing.T) {
	svc := dashboard.NewService(nil, &stubStatsRepo{})

	stats, err := svc.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, stats.Recent)
}
