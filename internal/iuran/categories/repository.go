package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/shared"
)

// RepositoryPort defines data access for fee categories.
type RepositoryPort interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Find(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, category Category) error
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	CountTransactions(ctx context.Context, id string) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const categoryColumns = `id, nama_kategori, COALESCE(deskripsi, ''), nominal_default, is_active, created_at, updated_at`

// List returns categories, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM iuran_categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY nama_kategori`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *category)
	}
	return out, rows.Err()
}

// Find fetches one category.
func (r *Repository) Find(ctx context.Context, id string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM iuran_categories WHERE id = $1`, id)
	return scanCategory(row)
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, category Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO iuran_categories (id, nama_kategori, deskripsi, nominal_default, is_active, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, now(), now())`,
		category.ID, category.NamaKategori, category.Deskripsi, category.NominalDefault, category.IsActive)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

// Update rewrites a category.
func (r *Repository) Update(ctx context.Context, category Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE iuran_categories SET
		   nama_kategori = $2, deskripsi = NULLIF($3, ''), nominal_default = $4, is_active = $5, updated_at = now()
		 WHERE id = $1`,
		category.ID, category.NamaKategori, category.Deskripsi, category.NominalDefault, category.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a category outright.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM iuran_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate flags a category inactive without touching its transactions.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE iuran_categories SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountTransactions reports how many transactions reference the category.
func (r *Repository) CountTransactions(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM iuran_transactions WHERE category_id = $1`, id).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.NamaKategori, &c.Deskripsi, &c.NominalDefault, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ RepositoryPort = (*Repository)(nil)
