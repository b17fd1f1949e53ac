package residents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/shared"
)

// RepositoryPort defines data access for the warga registry.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Resident, error)
	Find(ctx context.Context, id string) (*Resident, error)
	Create(ctx context.Context, resident Resident) error
	Update(ctx context.Context, resident Resident) error
	Delete(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const residentColumns = `id, nama_warga, COALESCE(nik, ''), nomor_rumah, COALESCE(blok, ''),
	COALESCE(alamat_lengkap, ''), COALESCE(no_telp, ''), COALESCE(email, ''),
	jumlah_anggota, status, profile_id, created_at, updated_at`

// List returns residents matching the filter, ordered by block then
// house number.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents`
	var conds []string
	var args []any
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, `(nama_warga ILIKE `+p+` OR nomor_rumah ILIKE `+p+` OR no_telp ILIKE `+p+`)`)
	}
	if filter.Blok != "" {
		args = append(args, filter.Blok)
		conds = append(conds, fmt.Sprintf("blok = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY blok, nomor_rumah"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resident
	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *resident)
	}
	return out, rows.Err()
}

// Find fetches one resident by id.
func (r *Repository) Find(ctx context.Context, id string) (*Resident, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE id = $1`, id)
	return scanResident(row)
}

// Create inserts a resident.
func (r *Repository) Create(ctx context.Context, resident Resident) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO residents (id, nama_warga, nik, nomor_rumah, blok, alamat_lengkap, no_telp, email,
		                        jumlah_anggota, status, profile_id, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
		         $9, $10, $11, now(), now())`,
		resident.ID, resident.NamaWarga, resident.NIK, resident.NomorRumah, resident.Blok,
		resident.AlamatLengkap, resident.NoTelp, resident.Email, resident.JumlahAnggota,
		resident.Status, resident.ProfileID)
	if isUniqueViolation(err) {
		return ErrNIKTaken
	}
	return err
}

// Update rewrites a resident record.
func (r *Repository) Update(ctx context.Context, resident Resident) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE residents SET
		   nama_warga = $2, nik = NULLIF($3, ''), nomor_rumah = $4, blok = NULLIF($5, ''),
		   alamat_lengkap = NULLIF($6, ''), no_telp = NULLIF($7, ''), email = NULLIF($8, ''),
		   jumlah_anggota = $9, status = $10, profile_id = $11, updated_at = now()
		 WHERE id = $1`,
		resident.ID, resident.NamaWarga, resident.NIK, resident.NomorRumah, resident.Blok,
		resident.AlamatLengkap, resident.NoTelp, resident.Email, resident.JumlahAnggota,
		resident.Status, resident.ProfileID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNIKTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a resident.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResident(row rowScanner) (*Resident, error) {
	var res Resident
	if err := row.Scan(&res.ID, &res.NamaWarga, &res.NIK, &res.NomorRumah, &res.Blok,
		&res.AlamatLengkap, &res.NoTelp, &res.Email, &res.JumlahAnggota, &res.Status,
		&res.ProfileID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

var _ RepositoryPort = (*Repository)(nil)
