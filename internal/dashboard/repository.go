package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/iuran"
)

// RepositoryPort defines the individual aggregate reads the service
// fans out.
type RepositoryPort interface {
	CountResidents(ctx context.Context) (int64, error)
	CountResidentsInArrears(ctx context.Context) (int64, error)
	MonthlyIncome(ctx context.Context, periode string) (int64, error)
	OutstandingAmount(ctx context.Context) (int64, error)
	ArrearsSummary(ctx context.Context, limit int) ([]ArrearsRow, error)
	RecentTransactions(ctx context.Context, limit int) ([]iuran.Transaction, error)
}

// Repository provides PostgreSQL backed aggregate reads.
type Repository struct {
	pool  *pgxpool.Pool
	iuran *iuran.Repository
}

// NewRepository constructs a repository. The iuran repository is reused
// for the recent-transactions read so the join shape stays in one place.
func NewRepository(pool *pgxpool.Pool, iuranRepo *iuran.Repository) *Repository {
	return &Repository{pool: pool, iuran: iuranRepo}
}

// CountResidents counts active warga.
func (r *Repository) CountResidents(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM residents WHERE status = 'AKTIF'`).Scan(&count)
	return count, err
}

// CountResidentsInArrears counts residents holding at least one UNPAID
// or OVERDUE charge.
func (r *Repository) CountResidentsInArrears(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT resident_id) FROM iuran_transactions
		 WHERE status_pembayaran IN ($1, $2)`,
		iuran.StatusUnpaid, iuran.StatusOverdue).Scan(&count)
	return count, err
}

// MonthlyIncome sums paid charges for the periode.
func (r *Repository) MonthlyIncome(ctx context.Context, periode string) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(jumlah_nominal), 0) FROM iuran_transactions
		 WHERE periode = $1 AND status_pembayaran = $2`,
		periode, iuran.StatusPaid).Scan(&total)
	return total, err
}

// OutstandingAmount sums all unpaid and overdue charges.
func (r *Repository) OutstandingAmount(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(jumlah_nominal), 0) FROM iuran_transactions
		 WHERE status_pembayaran IN ($1, $2)`,
		iuran.StatusUnpaid, iuran.StatusOverdue).Scan(&total)
	return total, err
}

// ArrearsSummary lists the residents owing the most.
func (r *Repository) ArrearsSummary(ctx context.Context, limit int) ([]ArrearsRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.resident_id, res.nama_warga, res.nomor_rumah,
		        SUM(t.jumlah_nominal), COUNT(*)
		 FROM iuran_transactions t
		 JOIN residents res ON res.id = t.resident_id
		 WHERE t.status_pembayaran IN ($1, $2)
		 GROUP BY t.resident_id, res.nama_warga, res.nomor_rumah
		 ORDER BY SUM(t.jumlah_nominal) DESC
		 LIMIT $3`,
		iuran.StatusUnpaid, iuran.StatusOverdue, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArrearsRow
	for rows.Next() {
		var row ArrearsRow
		if err := rows.Scan(&row.ResidentID, &row.NamaWarga, &row.NomorRumah,
			&row.JumlahTunggakan, &row.JumlahTagihan); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RecentTransactions returns the newest charges.
func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]iuran.Transaction, error) {
	page, err := r.iuran.List(ctx, iuran.ListFilter{Page: 1, PerPage: limit})
	if err != nil {
		return nil, err
	}
	return page.Transactions, nil
}

var _ RepositoryPort = (*Repository)(nil)
