package iuran

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/shared"
)

// RepositoryPort defines data access for fee transactions.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Find(ctx context.Context, id string) (*Transaction, error)
	Exists(ctx context.Context, residentID, categoryID, periode string) (bool, error)
	Create(ctx context.Context, tx *Transaction) error
	Update(ctx context.Context, tx *Transaction, adminID string) error
	Delete(ctx context.Context, id, adminID string) error
	History(ctx context.Context, transactionID string) ([]HistoryEntry, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	ResidentsWithoutCharge(ctx context.Context, categoryID, periode string) ([]string, error)
	OverdueContacts(ctx context.Context) ([]OverdueContact, error)
}

// Repository provides PostgreSQL backed persistence. Writes also append
// the audit history row inside the same transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txSelect = `
	SELECT t.id, t.nomor_urut, t.resident_id, r.nama_warga, r.nomor_rumah,
	       t.category_id, c.nama_kategori, t.periode, t.jumlah_nominal,
	       t.metode_pembayaran, t.status_pembayaran, t.tanggal_bayar, t.tanggal_jatuh_tempo,
	       COALESCE(t.keterangan, ''), COALESCE(t.bukti_pembayaran, ''), COALESCE(t.dibuat_oleh, ''),
	       t.created_at, t.updated_at
	FROM iuran_transactions t
	JOIN residents r ON r.id = t.resident_id
	JOIN iuran_categories c ON c.id = t.category_id`

// List returns one page of transactions matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) (*Page, error) {
	conds, args := filterConds(filter)
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM iuran_transactions t
		JOIN residents r ON r.id = t.resident_id
		JOIN iuran_categories c ON c.id = t.category_id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)
	query := txSelect + where + fmt.Sprintf(" ORDER BY t.nomor_urut DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Page{
		Transactions: list,
		TotalCount:   total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}, nil
}

func filterConds(filter ListFilter) ([]string, []any) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Periode != "" {
		add("t.periode = $%d", filter.Periode)
	}
	if filter.CategoryID != "" {
		add("t.category_id = $%d", filter.CategoryID)
	}
	if filter.ResidentID != "" {
		add("t.resident_id = $%d", filter.ResidentID)
	}
	if filter.Method != "" {
		add("t.metode_pembayaran = $%d", filter.Method)
	}
	if filter.Status != "" {
		add("t.status_pembayaran = $%d", filter.Status)
	}
	if filter.DateFrom != nil {
		add("t.created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("t.created_at < $%d", *filter.DateTo)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, `(r.nama_warga ILIKE `+p+` OR r.nomor_rumah ILIKE `+p+
			` OR c.nama_kategori ILIKE `+p+` OR t.keterangan ILIKE `+p+`)`)
	}
	return conds, args
}

// Find fetches one transaction with its joined names.
func (r *Repository) Find(ctx context.Context, id string) (*Transaction, error) {
	row := r.pool.QueryRow(ctx, txSelect+` WHERE t.id = $1`, id)
	return scanTransaction(row)
}

// Exists reports whether a charge already exists for the key.
func (r *Repository) Exists(ctx context.Context, residentID, categoryID, periode string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM iuran_transactions WHERE resident_id = $1 AND category_id = $2 AND periode = $3)`,
		residentID, categoryID, periode).Scan(&exists)
	return exists, err
}

// Create inserts the transaction, assigning the next nomor_urut, and
// appends the CREATE history row atomically.
func (r *Repository) Create(ctx context.Context, tx *Transaction) error {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx)

	// The advisory lock serializes nomor_urut assignment across
	// concurrent creators.
	if _, err := dbtx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('iuran_nomor_urut'))`); err != nil {
		return err
	}
	if err := dbtx.QueryRow(ctx,
		`SELECT COALESCE(MAX(nomor_urut), 0) + 1 FROM iuran_transactions`).Scan(&tx.NomorUrut); err != nil {
		return err
	}
	_, err = dbtx.Exec(ctx,
		`INSERT INTO iuran_transactions
		   (id, nomor_urut, resident_id, category_id, periode, jumlah_nominal, metode_pembayaran,
		    status_pembayaran, tanggal_bayar, tanggal_jatuh_tempo, keterangan, bukti_pembayaran,
		    dibuat_oleh, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), now(), now())`,
		tx.ID, tx.NomorUrut, tx.ResidentID, tx.CategoryID, tx.Periode, tx.JumlahNominal,
		tx.MetodePembayaran, tx.StatusPembayaran, tx.TanggalBayar, tx.TanggalJatuhTempo,
		tx.Keterangan, tx.BuktiPembayaran, tx.DibuatOleh)
	if err != nil {
		return err
	}
	if err := appendHistory(ctx, dbtx, tx.ID, ActionCreate, nil, tx, tx.DibuatOleh); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

// Update rewrites a transaction and appends the UPDATE history row with
// the before and after snapshots.
func (r *Repository) Update(ctx context.Context, tx *Transaction, adminID string) error {
	old, err := r.Find(ctx, tx.ID)
	if err != nil {
		return err
	}

	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx)

	tag, err := dbtx.Exec(ctx,
		`UPDATE iuran_transactions SET
		   jumlah_nominal = $2, metode_pembayaran = $3, status_pembayaran = $4,
		   tanggal_bayar = $5, tanggal_jatuh_tempo = $6, keterangan = NULLIF($7, ''),
		   bukti_pembayaran = NULLIF($8, ''), updated_at = now()
		 WHERE id = $1`,
		tx.ID, tx.JumlahNominal, tx.MetodePembayaran, tx.StatusPembayaran,
		tx.TanggalBayar, tx.TanggalJatuhTempo, tx.Keterangan, tx.BuktiPembayaran)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	if err := appendHistory(ctx, dbtx, tx.ID, ActionUpdate, old, tx, adminID); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

// Delete removes a transaction and appends the DELETE history row.
func (r *Repository) Delete(ctx context.Context, id, adminID string) error {
	old, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx)

	if err := appendHistory(ctx, dbtx, id, ActionDelete, old, nil, adminID); err != nil {
		return err
	}
	tag, err := dbtx.Exec(ctx, `DELETE FROM iuran_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return dbtx.Commit(ctx)
}

// History returns the audit rows for a transaction, newest first.
func (r *Repository) History(ctx context.Context, transactionID string) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, transaction_id, action, old_data, new_data, COALESCE(admin_id, ''), created_at
		 FROM iuran_transaction_history WHERE transaction_id = $1 ORDER BY created_at DESC`,
		transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.Action,
			&entry.OldData, &entry.NewData, &entry.AdminID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// MarkOverdue flips UNPAID charges past their due date to OVERDUE and
// reports how many rows changed.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE iuran_transactions SET status_pembayaran = $1, updated_at = now()
		 WHERE status_pembayaran = $2 AND tanggal_jatuh_tempo IS NOT NULL AND tanggal_jatuh_tempo < $3`,
		StatusOverdue, StatusUnpaid, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResidentsWithoutCharge lists active residents that have no charge yet
// for the category and periode. Used by dues generation.
func (r *Repository) ResidentsWithoutCharge(ctx context.Context, categoryID, periode string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id FROM residents r
		 WHERE r.status = 'AKTIF'
		   AND NOT EXISTS (
		     SELECT 1 FROM iuran_transactions t
		     WHERE t.resident_id = r.id AND t.category_id = $1 AND t.periode = $2)`,
		categoryID, periode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OverdueContacts aggregates outstanding OVERDUE amounts per resident
// that has an email on file. Feeds the reminder mails after a scan.
func (r *Repository) OverdueContacts(ctx context.Context) ([]OverdueContact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.nama_warga, r.email, SUM(t.jumlah_nominal), COUNT(*)
		 FROM iuran_transactions t
		 JOIN residents r ON r.id = t.resident_id
		 WHERE t.status_pembayaran = $1 AND r.email IS NOT NULL AND r.email <> ''
		 GROUP BY r.id, r.nama_warga, r.email
		 ORDER BY r.nama_warga`,
		StatusOverdue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueContact
	for rows.Next() {
		var contact OverdueContact
		if err := rows.Scan(&contact.ResidentName, &contact.Email, &contact.TotalAmount, &contact.Count); err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	return out, rows.Err()
}

func appendHistory(ctx context.Context, dbtx pgx.Tx, transactionID, action string, old, updated *Transaction, adminID string) error {
	var oldData, newData []byte
	var err error
	if old != nil {
		if oldData, err = json.Marshal(old); err != nil {
			return err
		}
	}
	if updated != nil {
		if newData, err = json.Marshal(updated); err != nil {
			return err
		}
	}
	_, err = dbtx.Exec(ctx,
		`INSERT INTO iuran_transaction_history (id, transaction_id, action, old_data, new_data, admin_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), now())`,
		uuid.NewString(), transactionID, action, oldData, newData, adminID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var tx Transaction
	if err := row.Scan(&tx.ID, &tx.NomorUrut, &tx.ResidentID, &tx.ResidentName, &tx.NomorRumah,
		&tx.CategoryID, &tx.CategoryName, &tx.Periode, &tx.JumlahNominal,
		&tx.MetodePembayaran, &tx.StatusPembayaran, &tx.TanggalBayar, &tx.TanggalJatuhTempo,
		&tx.Keterangan, &tx.BuktiPembayaran, &tx.DibuatOleh, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

var _ RepositoryPort = (*Repository)(nil)
