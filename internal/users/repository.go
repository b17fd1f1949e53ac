package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
)

// RepositoryPort defines data access for account management.
type RepositoryPort interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	FindAccount(ctx context.Context, id string) (*Account, error)
	CreateAccount(ctx context.Context, id string, account NewAccount, passwordHash, roleHint string) error
	UpdateAccount(ctx context.Context, id string, patch AccountPatch, passwordHash *string, roleHint *string) error
	DeleteAccount(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence. Account writes
// touch both the users and profiles tables inside one transaction so a
// login never exists without its profile half.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountSelect = `
	SELECT u.id, u.email, COALESCE(p.full_name, ''), COALESCE(p.role_id, ''),
	       COALESCE(u.role_hint, ''), u.is_active, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN profiles p ON p.id = u.id`

// ListAccounts returns all accounts with their profile fields.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, accountSelect+` ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *account)
	}
	return out, rows.Err()
}

// FindAccount fetches one account by id.
func (r *Repository) FindAccount(ctx context.Context, id string) (*Account, error) {
	row := r.pool.QueryRow(ctx, accountSelect+` WHERE u.id = $1`, id)
	return scanAccount(row)
}

// CreateAccount inserts the login row and its profile atomically.
func (r *Repository) CreateAccount(ctx context.Context, id string, account NewAccount, passwordHash, roleHint string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role_hint, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), true, now(), now())`,
		id, account.Email, passwordHash, roleHint)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (id, full_name, role_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, true, now(), now())`,
		id, account.FullName, string(account.RoleID))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateAccount applies a partial patch across both tables.
func (r *Repository) UpdateAccount(ctx context.Context, id string, patch AccountPatch, passwordHash *string, roleHint *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET
		   password_hash = COALESCE($2, password_hash),
		   role_hint     = COALESCE($3, role_hint),
		   is_active     = COALESCE($4, is_active),
		   updated_at    = now()
		 WHERE id = $1`,
		id, passwordHash, roleHint, patch.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	_, err = tx.Exec(ctx,
		`UPDATE profiles SET
		   full_name  = COALESCE($2, full_name),
		   role_id    = COALESCE($3, role_id),
		   is_active  = COALESCE($4, is_active),
		   updated_at = now()
		 WHERE id = $1`,
		id, patch.FullName, roleIDText(patch.RoleID), patch.IsActive)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteAccount removes the login, its sessions and its profile.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func roleIDText(role *authz.RoleID) *string {
	if role == nil {
		return nil
	}
	text := string(*role)
	return &text
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var roleID string
	if err := row.Scan(&a.ID, &a.Email, &a.FullName, &roleID, &a.RoleHint, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.RoleID = authz.RoleID(roleID)
	return &a, nil
}

var _ RepositoryPort = (*Repository)(nil)
