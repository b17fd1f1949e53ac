package iuran

import (
	"context"
	"time"
)

// Stats aggregates the transaction dashboard numbers for the month
// containing now.
func (r *Repository) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{StatusCounts: make(map[string]int64)}
	periode := now.Format("2006-01")
	prevPeriode := now.AddDate(0, -1, 0).Format("2006-01")

	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(jumlah_nominal), 0) FROM iuran_transactions
		 WHERE periode = $1 AND status_pembayaran = $2`,
		periode, StatusPaid).Scan(&stats.MonthlyRevenue); err != nil {
		return nil, err
	}

	var prevRevenue int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(jumlah_nominal), 0) FROM iuran_transactions
		 WHERE periode = $1 AND status_pembayaran = $2`,
		prevPeriode, StatusPaid).Scan(&prevRevenue); err != nil {
		return nil, err
	}
	if prevRevenue > 0 {
		stats.RevenueGrowth = float64(stats.MonthlyRevenue-prevRevenue) / float64(prevRevenue) * 100
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(jumlah_nominal), 0), COUNT(*) FROM iuran_transactions
		 WHERE status_pembayaran = $1`,
		StatusPending).Scan(&stats.PendingAmount, &stats.PendingCount); err != nil {
		return nil, err
	}

	statusRows, err := r.pool.Query(ctx,
		`SELECT status_pembayaran, COUNT(*) FROM iuran_transactions GROUP BY status_pembayaran`)
	if err != nil {
		return nil, err
	}
	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			statusRows.Close()
			return nil, err
		}
		stats.StatusCounts[status] = count
	}
	statusRows.Close()
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	seriesStart := now.AddDate(0, -5, 0).Format("2006-01")
	seriesRows, err := r.pool.Query(ctx,
		`SELECT periode, COALESCE(SUM(jumlah_nominal), 0) FROM iuran_transactions
		 WHERE status_pembayaran = $1 AND periode >= $2
		 GROUP BY periode ORDER BY periode`,
		StatusPaid, seriesStart)
	if err != nil {
		return nil, err
	}
	for seriesRows.Next() {
		var point MonthlyPoint
		if err := seriesRows.Scan(&point.Periode, &point.Total); err != nil {
			seriesRows.Close()
			return nil, err
		}
		stats.MonthlySeries = append(stats.MonthlySeries, point)
	}
	seriesRows.Close()
	if err := seriesRows.Err(); err != nil {
		return nil, err
	}

	recent, err := r.List(ctx, ListFilter{Page: 1, PerPage: 5})
	if err != nil {
		return nil, err
	}
	stats.RecentTransacts = recent.Transactions
	return stats, nil
}
